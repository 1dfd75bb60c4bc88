package constants

import (
	"path/filepath"
	"strings"
)

// captureMIME maps accepted capture extensions to the MIME type recorded for them.
// HEIC/HEIF frames are converted to JPEG during preparation.
var captureMIME = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"heic": "image/heic",
	"heif": "image/heif",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without the dot) is an accepted capture format.
func IsImageExt(ext string) bool {
	_, ok := captureMIME[NormalizeExt(ext)]
	return ok
}

// CaptureMIME returns the MIME type for a capture file name, or "" when it is not accepted.
func CaptureMIME(name string) string {
	return captureMIME[NormalizeExt(filepath.Ext(name))]
}

// MaxCaptureBytes caps a single raw capture before preprocessing.
const MaxCaptureBytes = 25 << 20
