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

package ascii85

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type withDummyClose struct {
	io.Writer
}

func (w withDummyClose) Close() error {
	return nil
}

func encode(t testing.TB, in []byte) string {
	t.Helper()
	buf := &bytes.Buffer{}
	w := NewWriter(withDummyClose{buf})
	if _, err := w.Write(in); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestEncode(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"", "~>"},
		{"\x00\x00\x00\x00", "z~>"},
		{"\x00\x00\x00", "!!!!~>"},
		{"Man ", "9jqo^~>"},
		{"sure.", "F*2M7/c~>"},
	}
	for _, test := range cases {
		got := encode(t, []byte(test.in))
		if got != test.out {
			t.Errorf("%q: got %q, want %q", test.in, got, test.out)
		}
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		in   string
		out  string
		fail bool
	}{
		{in: "9jqo^~>", out: "Man "},
		{in: "9jq o^\n~>", out: "Man "},
		{in: "F*2M7/c~>", out: "sure."},
		{in: "zz~>", out: "\x00\x00\x00\x00\x00\x00\x00\x00"},
		{in: "~>", out: ""},
		{in: "9jqo^", fail: true},
		{in: "s8W-\"~>", fail: true},
		{in: "9jqo^v~>", fail: true},
		{in: "9~>", fail: true},
	}
	for _, test := range cases {
		out, err := io.ReadAll(NewReader(strings.NewReader(test.in)))
		if test.fail {
			if err == nil {
				t.Errorf("%q: expected error", test.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if d := cmp.Diff(test.out, string(out)); d != "" {
			t.Errorf("%q: (-want +got):\n%s", test.in, d)
		}
	}
}

func TestLineWidth(t *testing.T) {
	enc := encode(t, bytes.Repeat([]byte("abcdefg"), 100))
	for _, line := range strings.Split(enc, "\n") {
		if len(line) > lineWidth {
			t.Errorf("line too long: %d", len(line))
		}
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0, 0, 0, 0, 1})
	f.Add([]byte("hello world"))
	f.Fuzz(func(t *testing.T, in []byte) {
		enc := encode(t, in)
		out, err := io.ReadAll(NewReader(strings.NewReader(enc)))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(in, out) {
			t.Error("round trip failed")
		}
	})
}
