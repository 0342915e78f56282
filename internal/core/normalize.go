package core

// normalize.go cleans raw CSV bytes before parsing.
//
// Uploaded files frequently carry artifacts from the program that wrote them:
//
//   - A UTF-8 BOM (0xEF 0xBB 0xBF) prepended by Windows tools and Excel
//   - Invalid UTF-8 sequences from Latin-1 or CP-1252 exports
//
// Both are handled here so the CSV reader only ever sees valid UTF-8.

import (
	"bytes"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// zipMagic starts every .xlsx workbook (a ZIP container).
var zipMagic = []byte("PK\x03\x04")

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with U+FFFD. Valid input is
// returned as-is without copying.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + len(data)/8)

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}

	return buf.Bytes()
}

// isBlank reports whether data holds nothing but whitespace.
func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

// looksLikeZip reports whether data starts with a ZIP local file header.
func looksLikeZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}
