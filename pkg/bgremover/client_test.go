package bgremover

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func stagingFileCount(t *testing.T, s *Staging) int {
	t.Helper()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	return len(entries)
}

func TestRemoveBackgroundSuccessCleansStaging(t *testing.T) {
	staging := newTestStaging(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/remove-bg", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token123" {
			t.Errorf("Authorization = %q", got)
		}
		var req removeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(removeResponse{OutputURL: "http://" + r.Host + "/output.png"})
	})
	mux.HandleFunc("/output.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("cutout-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, "token123", "http://public.example", staging, 5*time.Second)

	cutout, err := client.RemoveBackground(context.Background(), "selfie.jpg", "image/jpeg", []byte("raw"))
	if err != nil {
		t.Fatalf("RemoveBackground: %v", err)
	}
	if string(cutout.Data) != "cutout-bytes" {
		t.Errorf("cutout data = %q", cutout.Data)
	}
	if cutout.ContentType != "image/png" {
		t.Errorf("cutout content type = %q", cutout.ContentType)
	}

	if n := stagingFileCount(t, staging); n != 0 {
		t.Errorf("staging dir has %d files after success, want 0", n)
	}
}

func TestRemoveBackgroundFailureCleansStaging(t *testing.T) {
	staging := newTestStaging(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token123", "http://public.example", staging, 5*time.Second)

	_, err := client.RemoveBackground(context.Background(), "selfie.jpg", "image/jpeg", []byte("raw"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrService) {
		t.Errorf("error = %v, want ErrService", err)
	}

	if n := stagingFileCount(t, staging); n != 0 {
		t.Errorf("staging dir has %d files after failure, want 0", n)
	}
}

func TestRemoveBackgroundMissingOutputURL(t *testing.T) {
	staging := newTestStaging(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(removeResponse{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token123", "http://public.example", staging, 5*time.Second)

	if _, err := client.RemoveBackground(context.Background(), "a.png", "image/png", []byte("x")); !errors.Is(err, ErrService) {
		t.Fatalf("error = %v, want ErrService", err)
	}
	if n := stagingFileCount(t, staging); n != 0 {
		t.Errorf("staging dir has %d files, want 0", n)
	}
}

func TestUnconfiguredClientFailsFast(t *testing.T) {
	staging := newTestStaging(t)
	client := NewClient("", "", "http://public.example", staging, time.Second)

	if client.Configured() {
		t.Error("client without credentials reports configured")
	}
	if _, err := client.RemoveBackground(context.Background(), "a.png", "image/png", []byte("x")); !errors.Is(err, ErrService) {
		t.Fatalf("error = %v, want ErrService", err)
	}
	if _, _, err := client.GenerateBackground(context.Background(), "sunset"); !errors.Is(err, ErrService) {
		t.Fatalf("error = %v, want ErrService", err)
	}
}

func TestGenerateBackground(t *testing.T) {
	staging := newTestStaging(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/generate-bg", func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt != "neon skyline" {
			t.Errorf("prompt = %q, err = %v", req.Prompt, err)
		}
		json.NewEncoder(w).Encode(removeResponse{OutputURL: "http://" + r.Host + "/bg.png"})
	})
	mux.HandleFunc("/bg.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("generated"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, "token123", "http://public.example", staging, 5*time.Second)

	data, contentType, err := client.GenerateBackground(context.Background(), "neon skyline")
	if err != nil {
		t.Fatalf("GenerateBackground: %v", err)
	}
	if string(data) != "generated" {
		t.Errorf("data = %q", data)
	}
	if contentType == "" {
		t.Error("content type should default when the server omits it")
	}
}
