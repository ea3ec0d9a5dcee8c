package util

import (
	"net/http"
	"strings"
)

// SniffImageMIME returns the image MIME type of b. The declared type from
// the upload is used only when the bytes are not recognizable.
func SniffImageMIME(b []byte, declared string) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	if len(b) > 0 {
		if ct := http.DetectContentType(b); strings.HasPrefix(ct, "image/") {
			return ct
		}
	}
	if d := strings.TrimSpace(declared); strings.HasPrefix(d, "image/") {
		if i := strings.IndexByte(d, ';'); i >= 0 {
			d = strings.TrimSpace(d[:i])
		}
		return d
	}
	return "image/jpeg"
}
