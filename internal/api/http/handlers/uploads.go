package handlers

import (
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/myhostelpal/complaint-service/internal/domain"
	apperrors "github.com/myhostelpal/complaint-service/pkg/util/errorutil"
)

const (
	maxImageBytes    = 5 << 20
	maxImagesPerPost = 5
)

// Stored names take their extension from the declared type, never the client filename.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func imageExtension(fh *multipart.FileHeader) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return "", false
	}
	ext, ok := imageExtensions[strings.ToLower(mediaType)]
	return ext, ok
}

// ImageStore keeps uploaded ticket photos on local disk.
type ImageStore struct {
	dir       string
	publicURL string
}

// NewImageStore creates dir if needed.
func NewImageStore(dir, publicURL string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ImageStore{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Save validates and stores files, returning their public references.
func (s *ImageStore) Save(c *fiber.Ctx, files []*multipart.FileHeader) ([]domain.Image, error) {
	if len(files) > maxImagesPerPost {
		return nil, apperrors.NewFieldError("images", "must contain at most 5 items")
	}
	for _, fh := range files {
		if _, ok := imageExtension(fh); !ok {
			return nil, apperrors.NewFieldError("images", "only jpeg, png, gif and webp images are allowed")
		}
		if fh.Size > maxImageBytes {
			return nil, apperrors.NewFieldError("images", "each image must be at most 5MB")
		}
	}

	images := make([]domain.Image, 0, len(files))
	for _, fh := range files {
		ext, _ := imageExtension(fh)
		name := uuid.NewString() + ext
		if err := c.SaveFile(fh, filepath.Join(s.dir, name)); err != nil {
			s.Remove(images)
			return nil, apperrors.NewInternalError(err)
		}
		images = append(images, domain.Image{URL: s.publicURL + "/" + name, StorageID: name})
	}
	return images, nil
}

// Remove deletes stored images, ignoring missing files.
func (s *ImageStore) Remove(images []domain.Image) {
	for _, img := range images {
		_ = os.Remove(filepath.Join(s.dir, filepath.Base(img.StorageID)))
	}
}
