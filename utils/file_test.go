package utils

import (
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarKey(t *testing.T) {
	key, err := AvatarKey("user-1", "Me.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "avatars/user-1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	other, err := AvatarKey("user-1", "me.png")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = AvatarKey("user-1", "script.sh")
	require.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestContentTypeOf(t *testing.T) {
	declared := &multipart.FileHeader{Filename: "a.png", Header: textproto.MIMEHeader{"Content-Type": {"image/png"}}}
	assert.Equal(t, "image/png", ContentTypeOf(declared))

	guessed := &multipart.FileHeader{Filename: "a.webp", Header: textproto.MIMEHeader{"Content-Type": {"application/octet-stream"}}}
	assert.Equal(t, "image/webp", ContentTypeOf(guessed))

	unknown := &multipart.FileHeader{Filename: "a.bin", Header: textproto.MIMEHeader{}}
	assert.Equal(t, "application/octet-stream", ContentTypeOf(unknown))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example/avatars/x.png", PublicURL("https://cdn.example/", "/avatars/x.png"))
}
