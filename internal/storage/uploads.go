package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const URLPrefix = "/uploads/"

var ErrUnsupportedType = errors.New("unsupported file type")

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// Uploads writes media to a local directory under generated names.
type Uploads struct {
	dir string
}

func NewUploads(dir string) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &Uploads{dir: dir}, nil
}

func (u *Uploads) Dir() string {
	return u.dir
}

// Save sniffs the content type, stores the file and returns its public URL path.
func (u *Uploads) Save(r io.Reader, originalName string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]

	mtype := http.DetectContentType(head)
	ext, ok := allowedTypes[mtype]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype)
	}

	filename := fmt.Sprintf("%s_%s_%s%s",
		time.Now().Format("20060102T150405"), uuid.NewString()[:8], sanitizeBase(originalName), ext)

	path := filepath.Join(u.dir, filename)
	if err := writeFile(path, head, r); err != nil {
		os.Remove(path)
		return "", err
	}
	return URLPrefix + filename, nil
}

func writeFile(path string, head []byte, r io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	if _, err := out.Write(head); err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func sanitizeBase(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "." || base == "/" {
		return "file"
	}
	base = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			return r
		}
		return '-'
	}, base)
	if base == "" {
		base = "file"
	}
	if len(base) > 40 {
		base = base[:40]
	}
	return base
}
