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

package runlength

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// withDummyClose turns an io.Writer into an io.WriteCloser.
type withDummyClose struct {
	io.Writer
}

func (w withDummyClose) Close() error {
	return nil
}

func encode(t testing.TB, data []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	enc := NewWriter(withDummyClose{buf})
	_, err := enc.Write(data)
	if err != nil {
		t.Fatal(err)
	}
	err = enc.Close()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	testCases := [][]byte{
		{},
		{0},
		{0, 0},
		{0, 0, 0},
		{1, 2, 3, 4, 5},
		{1, 1, 1, 1, 1},
		{0, 1, 2, 3, 0, 0, 0, 0, 4, 5, 6},
		bytes.Repeat([]byte{7}, 128),
		bytes.Repeat([]byte{8}, 127),
		bytes.Repeat([]byte{9}, 2),
		bytes.Repeat([]byte{1, 2, 3}, 500),
		append(bytes.Repeat([]byte{4}, 300), bytes.Repeat([]byte{5, 6}, 300)...),
	}

	for i, data := range testCases {
		enc := encode(t, data)
		out, err := io.ReadAll(NewReader(bytes.NewReader(enc)))
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if diff := cmp.Diff(data, out); diff != "" {
			t.Errorf("case %d: round trip failed (-want +got):\n%s", i, diff)
		}
	}
}

func TestEncode(t *testing.T) {
	got := encode(t, []byte{1, 2, 3, 3, 3, 3})
	want := []byte{1, 1, 2, 253, 3, 128}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, err := io.ReadAll(NewReader(bytes.NewReader([]byte{5, 1, 2})))
	if err != io.ErrUnexpectedEOF {
		t.Errorf("got %v, want %v", err, io.ErrUnexpectedEOF)
	}

	// a missing EOD marker is tolerated
	out, err := io.ReadAll(NewReader(bytes.NewReader([]byte{254, 'x'})))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "xxx" {
		t.Errorf("got %q", out)
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{1, 1, 1, 2, 3})
	f.Fuzz(func(t *testing.T, data []byte) {
		enc := encode(t, data)
		out, err := io.ReadAll(NewReader(bytes.NewReader(enc)))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(data, out) {
			t.Error("round trip failed")
		}
	})
}
