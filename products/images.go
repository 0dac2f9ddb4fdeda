package products

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path"
	"path/filepath"

	"kondapalli/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	maxUploadSize = 10 << 20
	maxDimension  = 6000
	fullSize      = 1200
	thumbSize     = 300
)

var (
	ErrInvalidMIME  = errors.New("invalid image type")
	ErrFileTooLarge = errors.New("file size exceeds limit")
	ErrBadImage     = errors.New("unreadable image")
)

var allowedMIMEs = []string{"image/jpeg", "image/png", "image/gif"}

// ImageStore writes product photos under dir and serves them from urlPrefix.
type ImageStore struct {
	dir       string
	urlPrefix string
}

func NewImageStore(dir, urlPrefix string) *ImageStore {
	return &ImageStore{dir: dir, urlPrefix: urlPrefix}
}

// SavedImage holds the public paths of a stored photo and its thumbnail.
type SavedImage struct {
	URL   string `json:"url"`
	Thumb string `json:"thumb"`
}

// Save decodes an uploaded photo and stores a JPEG no larger than 1200px on
// its long side together with a 300px thumbnail.
func (s *ImageStore) Save(r io.Reader) (*SavedImage, error) {
	buf, err := io.ReadAll(io.LimitReader(r, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(buf) > maxUploadSize {
		return nil, ErrFileTooLarge
	}

	mimeType := http.DetectContentType(buf)
	if !utils.Contains(allowedMIMEs, mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMIME, mimeType)
	}

	// The header is checked before decoding so oversized pixel data is never allocated.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadImage, err)
	}
	if err := validateDimensions(cfg.Width, cfg.Height, maxDimension, maxDimension); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrBadImage, err)
	}

	dir := filepath.Join(s.dir, "products")
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	name := uuid.New().String()
	full := imaging.Fit(img, fullSize, fullSize, imaging.Lanczos)
	if err := imaging.Save(full, filepath.Join(dir, name+".jpg"), imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(dir, name+"_thumb.jpg"), imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	return &SavedImage{
		URL:   path.Join(s.urlPrefix, "products", name+".jpg"),
		Thumb: path.Join(s.urlPrefix, "products", name+"_thumb.jpg"),
	}, nil
}

func validateDimensions(width, height, maxWidth, maxHeight int) error {
	if width > maxWidth || height > maxHeight {
		return fmt.Errorf("%w: dimensions %dx%d exceed allowed maximum %dx%d", ErrBadImage, width, height, maxWidth, maxHeight)
	}
	return nil
}
