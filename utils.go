package gallerd

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidBlobPath validates that a path string is safe to hand to a blob
// backend. It checks that the path:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/") and does not end with "/"
//   - does not contain ".." (path traversal) or "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8 and free of "." segments
//   - does not contain null bytes, control characters, DEL, or whitespace
//
// Returns true if the path is valid, false otherwise.
func IsValidBlobPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' || strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") || strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
