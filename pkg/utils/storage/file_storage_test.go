package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeyFromURL(t *testing.T) {
	key, err := objectKeyFromURL("https://acct.r2.cloudflarestorage.com/daze-installer-uploads/leads/7/quotes/170-abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "leads/7/quotes/170-abc.pdf", key)
}

func TestObjectKeyFromURLInvalid(t *testing.T) {
	_, err := objectKeyFromURL("not-a-url")
	assert.Error(t, err)

	_, err = objectKeyFromURL("https://acct.r2.cloudflarestorage.com/bucket-only")
	assert.Error(t, err)
}

func TestUniqueFilenameKeepsExtension(t *testing.T) {
	name := uniqueFilename("site photo.JPG")
	assert.Regexp(t, `\.JPG$`, name)
	assert.NotEqual(t, uniqueFilename("a.png"), uniqueFilename("a.png"))
}
