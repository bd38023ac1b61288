// Package storage keeps uploaded files on the local filesystem, split into
// buckets.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Bucket string

const (
	BucketListings Bucket = "listings"
	BucketAvatars  Bucket = "avatars"
)

func (b Bucket) Valid() bool {
	return b == BucketListings || b == BucketAvatars
}

var ErrInvalidName = errors.New("invalid file name")

// Files is the file persistence the stores depend on.
type Files interface {
	Save(bucket Bucket, name string, r io.Reader) error
	Remove(bucket Bucket, name string) error
	Path(bucket Bucket, name string) (string, error)
}

// Local stores files under Root/<bucket>/<name>.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// Path resolves a stored file, rejecting anything that is not a bare file
// name inside a known bucket.
func (l *Local) Path(bucket Bucket, name string) (string, error) {
	if !bucket.Valid() {
		return "", fmt.Errorf("%w: unknown bucket %q", ErrInvalidName, bucket)
	}
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(l.Root, string(bucket), name), nil
}

func (l *Local) Save(bucket Bucket, name string, r io.Reader) error {
	path, err := l.Path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), path)
}

func (l *Local) Remove(bucket Bucket, name string) error {
	path, err := l.Path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// UniqueName builds "<prefix>_<uuid hex>.<ext>". ext is given without the dot.
func UniqueName(prefix, ext string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s.%s", prefix, id, strings.ToLower(ext))
}
