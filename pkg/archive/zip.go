package archive

import (
	"archive/zip"
	"fmt"
	"io"
)

// Entry is one file destined for a zip bundle. Open is called lazily while
// streaming so a large batch never sits in memory all at once.
type Entry struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// StreamZip writes entries into w one at a time. Entries are appended in
// order; a fetch failure aborts the stream with the failing entry's name.
func StreamZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)

	for _, entry := range entries {
		fw, err := zw.Create(entry.Name)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %q: %w", entry.Name, err)
		}

		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("failed to open zip entry %q: %w", entry.Name, err)
		}

		_, err = io.Copy(fw, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("failed to write zip entry %q: %w", entry.Name, err)
		}
	}

	return zw.Close()
}
