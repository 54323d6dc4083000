// Package upload stores images attached to new posts on local disk.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("only JPEG and PNG images are allowed")
	ErrTooLarge        = errors.New("image exceeds the maximum upload size")
	ErrTooManyFiles    = errors.New("only one image may be attached")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type ImageStore struct {
	dir     string
	maxSize int64
	now     func() time.Time
}

func NewImageStore(dir string, maxSize int64) *ImageStore {
	return &ImageStore{dir: dir, maxSize: maxSize, now: time.Now}
}

func (s *ImageStore) Dir() string {
	return s.dir
}

func (s *ImageStore) MaxSize() int64 {
	return s.maxSize
}

// Save validates the uploaded image and writes it under a generated name,
// which it returns.
func (s *ImageStore) Save(header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSize {
		return "", fmt.Errorf("%w (%d bytes, limit %d)", ErrTooLarge, header.Size, s.maxSize)
	}

	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if !allowedTypes[mediaType] {
		return "", fmt.Errorf("%w: declared %q", ErrUnsupportedType, mediaType)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	sniff := make([]byte, 512)
	n, err := io.ReadFull(src, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if detected := http.DetectContentType(sniff[:n]); !allowedTypes[detected] {
		return "", fmt.Errorf("%w: content is %q", ErrUnsupportedType, detected)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	name := s.filename(header.Filename)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	// The declared size can lie; cap what actually gets written.
	written, err := io.Copy(dst, io.LimitReader(io.MultiReader(bytes.NewReader(sniff[:n]), src), s.maxSize+1))
	closeErr := dst.Close()
	if err == nil && written > s.maxSize {
		err = fmt.Errorf("%w (limit %d)", ErrTooLarge, s.maxSize)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return "", err
	}

	return name, nil
}

// Remove deletes a previously saved image. Missing files are not an error.
func (s *ImageStore) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// filename builds <unix-millis>-<8 hex>-<sanitized original name>.
func (s *ImageStore) filename(original string) string {
	base := unsafeChars.ReplaceAllString(filepath.Base(original), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "image"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), suffix, base)
}
