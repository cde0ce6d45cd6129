package validation

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "go-ela-inspector/internal/errors"
)

// DefaultFormats lists the decoders registered by this package
var DefaultFormats = []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"}

// UploadLimits bounds what an upload may cost to process. Zero disables a limit.
type UploadLimits struct {
	MaxBytes  int64
	MaxPixels int64
}

// UploadValidator handles upload validation and decoding
type UploadValidator struct {
	limits         UploadLimits
	allowedFormats map[string]bool
}

// NewUploadValidator creates a validator accepting DefaultFormats
func NewUploadValidator(limits UploadLimits) *UploadValidator {
	return NewUploadValidatorWithFormats(limits, DefaultFormats)
}

// NewUploadValidatorWithFormats creates a validator with a custom format list
func NewUploadValidatorWithFormats(limits UploadLimits, formats []string) *UploadValidator {
	allowed := make(map[string]bool, len(formats))
	for _, f := range formats {
		allowed[f] = true
	}
	return &UploadValidator{limits: limits, allowedFormats: allowed}
}

// Inspect checks the payload using only the image header. It never decodes
// pixel data, so oversized images are rejected cheaply.
func (v *UploadValidator) Inspect(data []byte) (image.Config, string, error) {
	if len(data) == 0 {
		return image.Config{}, "", apperrors.NewValidationError("Uploaded file is empty", nil)
	}
	if v.limits.MaxBytes > 0 && int64(len(data)) > v.limits.MaxBytes {
		return image.Config{}, "", apperrors.NewTooLargeError(
			fmt.Sprintf("Uploaded file exceeds %d bytes", v.limits.MaxBytes), nil)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", apperrors.NewValidationError("Unsupported or unrecognized image format", err)
	}
	if !v.allowedFormats[format] {
		return image.Config{}, "", apperrors.NewValidationError(
			fmt.Sprintf("Image format %q is not allowed", format), nil)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, "", apperrors.NewValidationError("Image has no pixels", nil)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); v.limits.MaxPixels > 0 && pixels > v.limits.MaxPixels {
		return image.Config{}, "", apperrors.NewTooLargeError(
			fmt.Sprintf("Image is %dx%d, exceeding the %d pixel limit", cfg.Width, cfg.Height, v.limits.MaxPixels), nil)
	}
	return cfg, format, nil
}

// Decode validates the payload and decodes it fully
func (v *UploadValidator) Decode(data []byte) (image.Image, string, error) {
	if _, _, err := v.Inspect(data); err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewValidationError("Image data is corrupted", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", apperrors.NewValidationError("Image has no pixels", nil)
	}
	return img, format, nil
}
