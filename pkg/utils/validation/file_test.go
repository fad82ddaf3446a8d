package validation

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(header("photo.jpg", 1024)))
	assert.NoError(t, ValidateImage(header("photo.WEBP", 1024)))

	assert.Equal(t, ErrFileRequired, ValidateImage(nil))
	assert.Equal(t, ErrFileSize, ValidateImage(header("photo.jpg", MaxImageSize+1)))
	assert.Equal(t, ErrFileType, ValidateImage(header("photo.gif", 1024)))
}

func TestValidatePdf(t *testing.T) {
	assert.NoError(t, ValidatePdf(header("quote.pdf", MaxImageSize+1)), "PDFs are allowed up to 20MB")
	assert.NoError(t, ValidatePdf(header("QUOTE.PDF", 1024)))

	assert.Equal(t, ErrFileRequired, ValidatePdf(nil))
	assert.Equal(t, ErrPdfSize, ValidatePdf(header("quote.pdf", MaxPdfSize+1)))
	assert.Equal(t, ErrPdfType, ValidatePdf(header("quote.docx", 1024)))
}
