package validation

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var (
	ErrFileSize     = errors.New("file size exceeds limit of 10MB")
	ErrFileType     = errors.New("invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrFileRequired = errors.New("no file provided")
	ErrPdfType      = errors.New("invalid file type. Only PDF is allowed")
	ErrPdfSize      = errors.New("file size exceeds limit of 20MB")
)

const MaxImageSize = 10 * 1024 * 1024 // 10MB
const MaxPdfSize = 20 * 1024 * 1024   // 20MB

var AllowedImageTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ValidateImage installation photo pre-check before processing.
func ValidateImage(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}

	if file.Size > MaxImageSize {
		return ErrFileSize
	}

	ext := filepath.Ext(strings.ToLower(file.Filename))
	if !AllowedImageTypes[ext] {
		return ErrFileType
	}

	return nil
}

// ValidatePdf quote document pre-check.
func ValidatePdf(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}

	if file.Size > MaxPdfSize {
		return ErrPdfSize
	}

	if filepath.Ext(strings.ToLower(file.Filename)) != ".pdf" {
		return ErrPdfType
	}

	return nil
}
