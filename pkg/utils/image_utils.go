package utils

import (
	"encoding/base64"
	"path/filepath"
	"strings"
)

var extensions = map[string]string{
	"image/gif":  ".gif",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ExtensionForContentType returns the file extension used for object keys.
// Unknown types get no extension.
func ExtensionForContentType(contentType string) string {
	return extensions[strings.ToLower(strings.TrimSpace(contentType))]
}

// ContentTypeForKey is the inverse of ExtensionForContentType.
func ContentTypeForKey(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ext == ".jpeg" {
		return "image/jpeg"
	}
	for ct, e := range extensions {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

// ReplaceExtension swaps the extension of key, keeping its base name.
func ReplaceExtension(key, ext string) string {
	return strings.TrimSuffix(key, filepath.Ext(key)) + ext
}

func DecodeBase64(data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(data)
}
