package storage

import (
    "bytes"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func TestSaveStoresImage(t *testing.T) {
    dir := t.TempDir()
    s := NewPhotoStore(dir, 1<<20)
    path, err := s.save(bytes.NewReader(append(pngHeader, make([]byte, 600)...)))
    if err != nil {
        t.Fatalf("save: %v", err)
    }
    if !strings.HasPrefix(path, "/uploads/") || !strings.HasSuffix(path, ".png") {
        t.Fatalf("unexpected path %q", path)
    }
    info, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(path, "/uploads/")))
    if err != nil || info.Size() != int64(len(pngHeader)+600) {
        t.Fatalf("stat: %v %v", info, err)
    }
    if err := s.Remove(path); err != nil {
        t.Fatalf("remove: %v", err)
    }
}

func TestSaveRejectsNonImage(t *testing.T) {
    s := NewPhotoStore(t.TempDir(), 0)
    if _, err := s.save(strings.NewReader("just some text")); !errors.Is(err, ErrNotImage) {
        t.Fatalf("expected ErrNotImage, got %v", err)
    }
}

func TestSaveEnforcesLimit(t *testing.T) {
    dir := t.TempDir()
    s := NewPhotoStore(dir, 100)
    if _, err := s.save(bytes.NewReader(append(pngHeader, make([]byte, 200)...))); !errors.Is(err, ErrTooLarge) {
        t.Fatalf("expected ErrTooLarge, got %v", err)
    }
    entries, _ := os.ReadDir(dir)
    if len(entries) != 0 {
        t.Fatalf("partial file left behind: %v", entries)
    }
}

func TestRemoveIgnoresForeignPaths(t *testing.T) {
    s := NewPhotoStore(t.TempDir(), 0)
    for _, p := range []string{"", "/etc/passwd", "/uploads/../x"} {
        if err := s.Remove(p); err != nil {
            t.Fatalf("Remove(%q) = %v", p, err)
        }
    }
}
