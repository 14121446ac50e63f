package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionRoundTrip(t *testing.T) {
	for _, ct := range []string{"image/gif", "image/jpeg", "image/png"} {
		ext := ExtensionForContentType(ct)
		require.NotEmpty(t, ext, ct)
		assert.Equal(t, ct, ContentTypeForKey("abc"+ext))
	}

	assert.Equal(t, "", ExtensionForContentType("image/webp"))
	assert.Equal(t, "image/jpeg", ContentTypeForKey("photo.JPEG"))
	assert.Equal(t, "application/octet-stream", ContentTypeForKey("blob"))
}

func TestReplaceExtension(t *testing.T) {
	assert.Equal(t, "abc.png", ReplaceExtension("abc.gif", ".png"))
	assert.Equal(t, "abc", ReplaceExtension("abc.gif", ""))
	assert.Equal(t, "abc.jpg", ReplaceExtension("abc", ".jpg"))
}

func TestDecodeBase64(t *testing.T) {
	b, err := DecodeBase64("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	_, err = DecodeBase64("***")
	assert.Error(t, err)
}
