package core

// decode.go turns raw file bytes into UTF-8 text.
//
// Files under the data root come from an upstream generator we do not
// control, so decoding is best-effort and never fails:
//
//   - A UTF-8 byte order mark (0xEF 0xBB 0xBF) is stripped.
//   - Valid UTF-8 is returned as-is.
//   - Anything else is decoded as Windows-1252, which maps every byte to a
//     rune and covers the usual Excel/legacy exports.

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns data as UTF-8 along with the encoding it was read as.
func DecodeText(data []byte) ([]byte, string) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if isAllASCII(data) || utf8.Valid(data) {
		return data, EncodingUTF8
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return sanitizeUTF8(data), EncodingUTF8
	}
	return decoded, EncodingWindows1252
}

// isAllASCII is the fast path; most generated CSV data is ASCII.
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data))

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

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
