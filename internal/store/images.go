package store

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"bscar/backend/internal/metrics"
	"bscar/backend/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

// MaxImageSize is the largest accepted upload, listing image or avatar.
const MaxImageSize = 5 << 20

var allowedImageExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// Upload is a file received from a client. Size is the size the client
// declared; the content is still read with a hard limit.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type imageRejection string

const (
	rejectExtension   imageRejection = "extension"
	rejectTooLarge    imageRejection = "too_large"
	rejectEmpty       imageRejection = "empty"
	rejectContentType imageRejection = "content_type"
)

func (r imageRejection) message(filename string) string {
	switch r {
	case rejectExtension:
		return fmt.Sprintf("file %s has an unsupported type (allowed: png, jpg, jpeg, gif, webp)", filename)
	case rejectTooLarge:
		return fmt.Sprintf("file %s is too large (max 5MB)", filename)
	case rejectEmpty:
		return fmt.Sprintf("file %s is empty", filename)
	default:
		return fmt.Sprintf("file %s is not an image", filename)
	}
}

// acceptedImage is an upload that passed intake, held in memory until saved.
type acceptedImage struct {
	original string
	ext      string
	data     []byte
}

// readImage runs the intake checks. A non-empty rejection means the file was
// refused; err is reserved for I/O failures.
func readImage(up Upload) (*acceptedImage, imageRejection, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(up.Filename), "."))
	if !allowedImageExts[ext] {
		return nil, rejectExtension, nil
	}
	if up.Size > MaxImageSize {
		return nil, rejectTooLarge, nil
	}

	rc, err := up.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload %q: %w", up.Filename, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxImageSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload %q: %w", up.Filename, err)
	}
	switch {
	case len(data) > MaxImageSize:
		return nil, rejectTooLarge, nil
	case len(data) == 0:
		return nil, rejectEmpty, nil
	case !strings.HasPrefix(mimetype.Detect(data).String(), "image/"):
		return nil, rejectContentType, nil
	}

	return &acceptedImage{original: filepath.Base(up.Filename), ext: ext, data: data}, "", nil
}

// saveImage writes the image under a fresh name and returns that name.
func (s *Store) saveImage(bucket storage.Bucket, prefix string, img *acceptedImage) (string, error) {
	name := storage.UniqueName(prefix, img.ext)
	if err := s.files.Save(bucket, name, bytes.NewReader(img.data)); err != nil {
		return "", err
	}
	return name, nil
}

// removeFiles deletes stored files, logging failures. Used after commits and
// for rolling back files written by a failed transaction.
func (s *Store) removeFiles(bucket storage.Bucket, names []string) {
	for _, name := range names {
		if err := s.files.Remove(bucket, name); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"bucket": bucket,
				"file":   name,
			}).Warn("failed to remove stored file")
		}
	}
}

func recordRejection(r imageRejection) {
	metrics.UploadRejected(string(r))
}
