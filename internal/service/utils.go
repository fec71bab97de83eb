package service

import (
	"strings"
	"unicode/utf8"
)

// countWords splits on whitespace runs and discards empty tokens.
func countWords(s string) int {
	return len(strings.Fields(s))
}

// sanitizeUTF8 removes invalid UTF-8 sequences from extracted text before
// it is written to PostgreSQL, which rejects malformed encodings.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}

// mimeTypeForExt maps the supported upload extensions to their MIME types.
func mimeTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
