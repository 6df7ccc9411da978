package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

const maxFileNameLen = 128

// ErrInvalidFileName is returned for names that cannot be stored safely.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens an uploaded file name into a single safe path
// segment. Separators and whitespace become underscores, control characters are
// dropped and long names are truncated with the extension preserved. Dots inside
// a name are kept; only the bare "." and ".." segments are rejected.
func SanitizeFileName(name string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		case unicode.IsSpace(r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.Trim(s, "_")
	if s == "" || s == "." || s == ".." {
		return "", ErrInvalidFileName
	}

	if runes := []rune(s); len(runes) > maxFileNameLen {
		ext := []rune(path.Ext(s))
		if len(ext) >= maxFileNameLen {
			ext = nil
		}
		s = string(runes[:maxFileNameLen-len(ext)]) + string(ext)
	}
	return s, nil
}
