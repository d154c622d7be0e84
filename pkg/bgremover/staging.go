package bgremover

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Staging holds raw uploads just long enough for the remote cutout service to
// pull them back through the signed source endpoint. Every staged file gets a
// random name and a metadata sidecar; both are removed after the remote call
// finishes, success or not.
type Staging struct {
	dir    string
	secret []byte
}

type stagedMeta struct {
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
}

func NewStaging(dir, secret string) (*Staging, error) {
	if secret == "" {
		return nil, fmt.Errorf("staging signing secret is not set")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid staging dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(absDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}

	return &Staging{dir: absDir, secret: []byte(secret)}, nil
}

// Stage writes the upload under a random filename and returns that name.
func (s *Staging) Stage(originalName, contentType string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".img"
	}
	name := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0600); err != nil {
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}

	meta, _ := json.Marshal(stagedMeta{OriginalName: originalName, ContentType: contentType})
	if err := os.WriteFile(filepath.Join(s.dir, name+".meta"), meta, 0600); err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("failed to write staging metadata: %w", err)
	}

	return name, nil
}

// Read returns a staged file's bytes and content type. Names containing path
// separators are rejected outright.
func (s *Staging) Read(name string) ([]byte, string, error) {
	if !validStagedName(name) {
		return nil, "", fmt.Errorf("invalid staged filename")
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, "", fmt.Errorf("staged file not found: %w", err)
	}

	contentType := "application/octet-stream"
	if raw, err := os.ReadFile(filepath.Join(s.dir, name+".meta")); err == nil {
		var meta stagedMeta
		if json.Unmarshal(raw, &meta) == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}

	return data, contentType, nil
}

// Remove deletes the staged file and its sidecar. Best effort: missing files
// are fine, it runs on every exit path of the removal call.
func (s *Staging) Remove(name string) {
	if !validStagedName(name) {
		return
	}
	_ = os.Remove(filepath.Join(s.dir, name))
	_ = os.Remove(filepath.Join(s.dir, name+".meta"))
}

// SignToken computes the HMAC-SHA256 retrieval token for a staged filename.
func (s *Staging) SignToken(name string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(name))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyToken recomputes the HMAC and compares in constant time. The source
// endpoint must call this before serving any staged file.
func (s *Staging) VerifyToken(name, token string) bool {
	if !validStagedName(name) {
		return false
	}
	expected, err := hex.DecodeString(s.SignToken(name))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

func validStagedName(name string) bool {
	return name != "" &&
		!strings.ContainsAny(name, "/\\") &&
		name != "." && name != ".." &&
		!strings.HasPrefix(name, ".")
}
