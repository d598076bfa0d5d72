// Package storage keeps uploaded guest ID photos on local disk.  Files are
// served back by the HTTP layer under /uploads.
package storage

import (
    "errors"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "os"
    "path/filepath"
    "strings"

    "github.com/google/uuid"
)

var (
    ErrNotImage = errors.New("uploaded file is not an image")
    ErrTooLarge = errors.New("uploaded file is too large")
)

// URLPrefix is the public path files are recorded and served under.
const URLPrefix = "/uploads/"

var imageExt = map[string]string{
    "image/jpeg": ".jpg",
    "image/png":  ".png",
    "image/gif":  ".gif",
    "image/webp": ".webp",
    "image/bmp":  ".bmp",
}

// PhotoStore writes photos into Dir.  MaxBytes <= 0 disables the size cap.
type PhotoStore struct {
    Dir      string
    MaxBytes int64
}

func NewPhotoStore(dir string, maxBytes int64) *PhotoStore {
    return &PhotoStore{Dir: dir, MaxBytes: maxBytes}
}

// Save stores fh under a random name and returns "/uploads/{name}".  The
// declared content type and the sniffed bytes must both be image/*.
func (s *PhotoStore) Save(fh *multipart.FileHeader) (string, error) {
    if !strings.HasPrefix(strings.ToLower(fh.Header.Get("Content-Type")), "image/") {
        return "", ErrNotImage
    }
    if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
        return "", ErrTooLarge
    }
    src, err := fh.Open()
    if err != nil {
        return "", fmt.Errorf("open upload: %w", err)
    }
    defer src.Close()
    return s.save(src)
}

func (s *PhotoStore) save(src io.Reader) (string, error) {
    head := make([]byte, 512)
    n, err := io.ReadFull(src, head)
    if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
        return "", fmt.Errorf("read upload: %w", err)
    }
    head = head[:n]
    sniffed := http.DetectContentType(head)
    ext, ok := imageExt[sniffed]
    if !ok {
        return "", ErrNotImage
    }

    if err := os.MkdirAll(s.Dir, 0o755); err != nil {
        return "", fmt.Errorf("mkdir %s: %w", s.Dir, err)
    }
    name := uuid.NewString() + ext
    path := filepath.Join(s.Dir, name)
    dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
    if err != nil {
        return "", fmt.Errorf("create %s: %w", name, err)
    }

    body := io.MultiReader(strings.NewReader(string(head)), src)
    if s.MaxBytes > 0 {
        body = io.LimitReader(body, s.MaxBytes+1)
    }
    written, err := io.Copy(dst, body)
    if cerr := dst.Close(); err == nil {
        err = cerr
    }
    if err == nil && s.MaxBytes > 0 && written > s.MaxBytes {
        err = ErrTooLarge
    }
    if err != nil {
        _ = os.Remove(path)
        return "", err
    }
    return URLPrefix + name, nil
}

// Remove deletes a file previously returned by Save.  Unknown paths are
// ignored.
func (s *PhotoStore) Remove(publicPath string) error {
    name := strings.TrimPrefix(publicPath, URLPrefix)
    if name == publicPath || name == "" || strings.ContainsAny(name, `/\`) {
        return nil
    }
    err := os.Remove(filepath.Join(s.Dir, name))
    if errors.Is(err, os.ErrNotExist) {
        return nil
    }
    return err
}
