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

package lzw

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func encode(t testing.TB, in []byte, earlyChange bool) []byte {
	t.Helper()
	buf := nopCloser{&bytes.Buffer{}}
	w, err := NewWriter(buf, earlyChange)
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Write(in)
	if err != nil {
		t.Fatal(err)
	}
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLZWSimple(t *testing.T) {
	// This is example 1 from section 7.4.4.2 of PDF 32000-1:2008
	in := []byte{45, 45, 45, 45, 45, 65, 45, 45, 45, 66}
	expected := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}

	out := encode(t, in, true)
	if d := cmp.Diff(expected, out); d != "" {
		t.Errorf("encode: (-want +got):\n%s", d)
	}

	dec, err := io.ReadAll(NewReader(bytes.NewReader(expected), true))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, dec); d != "" {
		t.Errorf("decode: (-want +got):\n%s", d)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	// low-entropy data fills the code table several times
	var in []byte
	for len(in) < 200000 {
		n := rng.Intn(20)
		c := byte('a' + rng.Intn(6))
		for range n {
			in = append(in, c)
		}
		in = append(in, byte(rng.Intn(256)))
	}

	for _, early := range []bool{false, true} {
		enc := encode(t, in, early)
		out, err := io.ReadAll(NewReader(bytes.NewReader(enc), early))
		if err != nil {
			t.Fatalf("earlyChange=%t: %v", early, err)
		}
		if !bytes.Equal(in, out) {
			t.Errorf("earlyChange=%t: round trip failed", early)
		}
	}
}

func TestMissingEOD(t *testing.T) {
	enc := encode(t, []byte("hello, hello, hello"), true)
	// drop the EOD code
	enc = enc[:len(enc)-2]
	out, _ := io.ReadAll(NewReader(bytes.NewReader(enc), true))
	if !bytes.HasPrefix([]byte("hello, hello, hello"), out) || len(out) < 10 {
		t.Errorf("unexpected output %q", out)
	}
}

func TestInvalidCode(t *testing.T) {
	// clear code, then code 300 which is not yet defined
	in := []byte{0x80, 0x4B, 0x00}
	_, err := io.ReadAll(NewReader(bytes.NewReader(in), true))
	if err != errInvalidCode {
		t.Errorf("got %v, want %v", err, errInvalidCode)
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte{}, true)
	f.Add([]byte("ababababababab"), false)
	f.Add([]byte{45, 45, 45, 45, 45, 65, 45, 45, 45, 66}, true)
	f.Fuzz(func(t *testing.T, in []byte, early bool) {
		enc := encode(t, in, early)
		out, err := io.ReadAll(NewReader(bytes.NewReader(enc), early))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(in, out) {
			t.Errorf("round trip failed")
		}
	})
}
