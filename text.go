// seehuhn.de/go/pdfobj - a library for manipulating PDF object graphs
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdfobj

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// pdfDocDiff lists the code points where PDFDocEncoding differs from
// ISO Latin-1.  Codes mapped to U+FFFD are undefined.
var pdfDocDiff = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙', 0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x7F: utf8.RuneError,
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…', 0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰', 0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ', 0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł', 0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž',
	0x9F: utf8.RuneError,
	0xA0: '€',
	0xAD: utf8.RuneError,
}

var pdfDocDecode [256]rune

var pdfDocEncode = make(map[rune]byte)

func init() {
	for i := range pdfDocDecode {
		c := byte(i)
		r, ok := pdfDocDiff[c]
		if !ok {
			r = rune(c)
		}
		pdfDocDecode[i] = r
		if r != utf8.RuneError {
			pdfDocEncode[r] = c
		}
	}
}

var (
	utf16Decoder = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	utf16Encoder = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
)

// decodeTextString converts a PDF text string to UTF-8.
// Invalid input is replaced by U+FFFD.
func decodeTextString(s string) string {
	switch {
	case strings.HasPrefix(s, "\xFE\xFF"):
		res, err := utf16Decoder.NewDecoder().String(s)
		if err != nil {
			return strings.Repeat(string(utf8.RuneError), (len(s)-1)/2)
		}
		return res
	case strings.HasPrefix(s, "\xEF\xBB\xBF"):
		return strings.ToValidUTF8(s[3:], string(utf8.RuneError))
	}

	ascii := true
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 0x7F || (c >= 0x18 && c < 0x20) {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	b := &strings.Builder{}
	for i := 0; i < len(s); i++ {
		b.WriteRune(pdfDocDecode[s[i]])
	}
	return b.String()
}

// encodeTextString converts a UTF-8 string to a PDF text string.
// PDFDocEncoding is used if possible, UTF-16 otherwise.
func encodeTextString(s string) string {
	if buf, ok := PDFDocEncode(s); ok {
		return string(buf)
	}
	res, _ := utf16Encoder.NewEncoder().String(s)
	return res
}

// PDFDocEncode converts s to PDFDocEncoding.  The second return value
// is false if s contains characters which cannot be represented.
func PDFDocEncode(s string) ([]byte, bool) {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		c, ok := pdfDocEncode[r]
		if !ok {
			return nil, false
		}
		buf = append(buf, c)
	}
	return buf, true
}
