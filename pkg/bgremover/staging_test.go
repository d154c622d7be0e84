package bgremover

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStaging(t *testing.T) *Staging {
	t.Helper()
	s, err := NewStaging(t.TempDir(), "test-secret")
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	return s
}

func TestNewStagingRequiresSecret(t *testing.T) {
	if _, err := NewStaging(t.TempDir(), ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestStageReadRemoveRoundTrip(t *testing.T) {
	s := newTestStaging(t)

	name, err := s.Stage("selfie.jpg", "image/jpeg", []byte("raw bytes"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if filepath.Ext(name) != ".jpg" {
		t.Errorf("staged name %q should keep the original extension", name)
	}

	data, contentType, err := s.Read(name)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "raw bytes" {
		t.Errorf("Read returned %q", data)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", contentType)
	}

	s.Remove(name)
	if _, _, err := s.Read(name); err == nil {
		t.Fatal("Read after Remove should fail")
	}
	if _, err := os.Stat(filepath.Join(s.dir, name+".meta")); !os.IsNotExist(err) {
		t.Error("metadata sidecar should be removed too")
	}
}

func TestReadRejectsPathTraversal(t *testing.T) {
	s := newTestStaging(t)

	for _, name := range []string{"../secret", "a/b", `a\b`, ".", "..", ".hidden", ""} {
		if _, _, err := s.Read(name); err == nil {
			t.Errorf("Read(%q) should be rejected", name)
		}
	}
}

func TestTokenSignAndVerify(t *testing.T) {
	s := newTestStaging(t)

	token := s.SignToken("photo.png")
	if !s.VerifyToken("photo.png", token) {
		t.Error("valid token rejected")
	}
	if s.VerifyToken("other.png", token) {
		t.Error("token for one file verified against another")
	}
	if s.VerifyToken("photo.png", "deadbeef") {
		t.Error("forged token accepted")
	}
	if s.VerifyToken("photo.png", "not-hex!") {
		t.Error("non-hex token accepted")
	}
	if s.VerifyToken("../photo.png", token) {
		t.Error("traversal filename accepted")
	}

	other, err := NewStaging(t.TempDir(), "different-secret")
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	if other.VerifyToken("photo.png", token) {
		t.Error("token verified under a different secret")
	}
}
