package utils

import (
	"errors"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedImage is returned for avatar files that are not a known image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// AvatarKey returns a fresh object key avatars/<userID>/<uuid><ext> for filename.
func AvatarKey(userID, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := imageTypes[ext]; !ok {
		return "", ErrUnsupportedImage
	}
	return path.Join("avatars", userID, uuid.NewString()+ext), nil
}

// ContentTypeOf prefers the declared part header and falls back to the extension.
func ContentTypeOf(fileHeader *multipart.FileHeader) string {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct, ok := imageTypes[strings.ToLower(filepath.Ext(fileHeader.Filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// PublicURL joins the CDN base and an object key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
