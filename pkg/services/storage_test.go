package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStore(t *testing.T) *ObjectStorageService {
	t.Helper()
	return &ObjectStorageService{
		basePath: t.TempDir(),
		baseURL:  "http://127.0.0.1:5000/uploads",
		maxBytes: 1024,
	}
}

func TestSaveRoomUpload(t *testing.T) {
	s := testStore(t)
	url, err := s.SaveRoomUpload("general", "u1", "photo.PNG", strings.NewReader("fake-bytes"))
	if err != nil {
		t.Fatalf("SaveRoomUpload: %v", err)
	}
	if !strings.HasPrefix(url, "http://127.0.0.1:5000/uploads/general/") {
		t.Fatalf("unexpected url %q", url)
	}
	if !strings.HasSuffix(url, "_u1.png") {
		t.Fatalf("expected sender id and lowered extension in name, got %q", url)
	}

	name := url[strings.LastIndex(url, "/")+1:]
	data, err := os.ReadFile(filepath.Join(s.basePath, "general", name))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "fake-bytes" {
		t.Fatalf("stored content mismatch: %q", data)
	}
}

func TestSaveRoomUploadDistinctPathsPerSender(t *testing.T) {
	s := testStore(t)
	u1, err := s.SaveRoomUpload("general", "u1", "a.png", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("upload u1: %v", err)
	}
	u2, err := s.SaveRoomUpload("general", "u2", "a.png", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("upload u2: %v", err)
	}
	if u1 == u2 {
		t.Fatalf("uploads from different senders collided on %q", u1)
	}
}

func TestSaveRoomUploadSameSenderNeverOverwrites(t *testing.T) {
	s := testStore(t)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		url, err := s.SaveRoomUpload("general", "u1", "a.png", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
		if seen[url] {
			t.Fatalf("repeated upload reused path %q", url)
		}
		seen[url] = true
	}
}

func TestSaveRoomUploadRejectsOversize(t *testing.T) {
	s := testStore(t)
	big := strings.Repeat("a", 2048)
	if _, err := s.SaveRoomUpload("general", "u1", "big.bin", strings.NewReader(big)); err == nil {
		t.Fatalf("expected oversize upload to fail")
	}
	entries, err := os.ReadDir(filepath.Join(s.basePath, "general"))
	if err == nil && len(entries) != 0 {
		t.Fatalf("expected no leftover file after failed upload, found %d", len(entries))
	}
}

func TestSaveRoomUploadRejectsTraversal(t *testing.T) {
	s := testStore(t)
	if _, err := s.SaveRoomUpload("../etc", "u1", "a.png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal room to be rejected")
	}
	if _, err := s.SaveRoomUpload("general", "../../u1", "a.png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal sender to be rejected")
	}
}
