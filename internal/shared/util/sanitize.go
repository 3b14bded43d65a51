package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameLen = 255

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces an uploaded file name to its last path element
// with control characters dropped, for display and history only.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return "", ErrInvalidFileName
	}
	if len(s) > maxFileNameLen {
		s = truncateUTF8(s, maxFileNameLen)
	}
	return s, nil
}

func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
