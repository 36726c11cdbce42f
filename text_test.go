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

import "testing"

func TestTextString(t *testing.T) {
	cases := []struct {
		utf8, pdf string
	}{
		{"", ""},
		{"hello", "hello"},
		{"Grüße", "Gr\xfc\xdfe"},
		{"• €", "\x80 \xa0"},
		{"fi ﬁ", "fi \x93"},
		{"日本", "\xfe\xff\x65\xe5\x67\x2c"},
		{"a😀", "\xfe\xff\x00\x61\xd8\x3d\xde\x00"},
	}
	for _, c := range cases {
		if got := encodeTextString(c.utf8); got != c.pdf {
			t.Errorf("encode %q: got %q, want %q", c.utf8, got, c.pdf)
		}
		if got := decodeTextString(c.pdf); got != c.utf8 {
			t.Errorf("decode %q: got %q, want %q", c.pdf, got, c.utf8)
		}
	}
}

func TestTextStringInvalid(t *testing.T) {
	cases := []struct {
		pdf, utf8 string
	}{
		{"a\x7fb", "a�b"},
		{"\xad", "�"},
		{"\xef\xbb\xbfok\xff", "ok�"},
		{"\xef\xbb\xbf日本", "日本"},
	}
	for _, c := range cases {
		if got := decodeTextString(c.pdf); got != c.utf8 {
			t.Errorf("decode %q: got %q, want %q", c.pdf, got, c.utf8)
		}
	}

	// an unpaired surrogate cannot be decoded
	got := decodeTextString("\xfe\xff\xd8\x3d")
	for _, r := range got {
		if r != '�' {
			t.Errorf("unpaired surrogate decoded as %q", got)
			break
		}
	}
}

func TestPDFDocEncode(t *testing.T) {
	buf, ok := PDFDocEncode("Œuvre")
	if !ok || string(buf) != "\x96uvre" {
		t.Errorf("got %q %t", buf, ok)
	}
	if _, ok := PDFDocEncode("\u00ad"); ok {
		t.Error("undefined code point encoded")
	}
	if _, ok := PDFDocEncode("日"); ok {
		t.Error("CJK character encoded")
	}
}
