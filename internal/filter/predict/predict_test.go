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

package predict

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

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	smooth := make([]byte, 3*17*9)
	for i := range smooth {
		smooth[i] = byte(i/3 + rng.Intn(4))
	}

	for _, predictor := range []int{1, 2, 10, 11, 12, 13, 14, 15} {
		for _, bpc := range []int{1, 8, 16} {
			p := &Params{
				Predictor:        predictor,
				Colors:           3,
				BitsPerComponent: bpc,
				Columns:          17,
			}
			if p.Validate() != nil {
				continue
			}
			for _, n := range []int{0, 1, 50, len(smooth)} {
				in := smooth[:n]

				buf := nopCloser{&bytes.Buffer{}}
				w, err := NewWriter(buf, p)
				if err != nil {
					t.Fatal(err)
				}
				// write in small pieces to exercise row buffering
				for i := 0; i < len(in); i += 7 {
					_, err = w.Write(in[i:min(i+7, len(in))])
					if err != nil {
						t.Fatal(err)
					}
				}
				err = w.Close()
				if err != nil {
					t.Fatal(err)
				}

				r, err := NewReader(bytes.NewReader(buf.Bytes()), p)
				if err != nil {
					t.Fatal(err)
				}
				out, err := io.ReadAll(r)
				if err != nil {
					t.Fatal(err)
				}
				if d := cmp.Diff(in, out, cmp.Comparer(bytes.Equal)); d != "" {
					t.Errorf("predictor %d, bpc %d, n=%d: (-want +got):\n%s",
						predictor, bpc, n, d)
				}
			}
		}
	}
}

func TestPNGUp(t *testing.T) {
	p := &Params{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 3}
	in := []byte{
		2, 1, 2, 3,
		2, 1, 1, 1,
		0, 9, 9, 9,
	}
	r, err := NewReader(bytes.NewReader(in), p)
	if err != nil {
		t.Fatal(err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 2, 3, 4, 9, 9, 9}
	if d := cmp.Diff(want, out); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestInvalidTag(t *testing.T) {
	p := &Params{Predictor: 10, Colors: 1, BitsPerComponent: 8, Columns: 2}
	r, err := NewReader(bytes.NewReader([]byte{7, 1, 2}), p)
	if err != nil {
		t.Fatal(err)
	}
	_, err = io.ReadAll(r)
	if err == nil {
		t.Error("invalid tag not detected")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		p  Params
		ok bool
	}{
		{Params{Predictor: 1}, true},
		{Params{Predictor: 2, Colors: 1, BitsPerComponent: 8, Columns: 1}, true},
		{Params{Predictor: 2, Colors: 1, BitsPerComponent: 4, Columns: 1}, false},
		{Params{Predictor: 12, Colors: 4, BitsPerComponent: 4, Columns: 10}, true},
		{Params{Predictor: 12, Colors: 0, BitsPerComponent: 8, Columns: 10}, false},
		{Params{Predictor: 12, Colors: 1, BitsPerComponent: 3, Columns: 10}, false},
		{Params{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 0}, false},
		{Params{Predictor: 3, Colors: 1, BitsPerComponent: 8, Columns: 1}, false},
	}
	for i, c := range cases {
		err := c.p.Validate()
		if (err == nil) != c.ok {
			t.Errorf("%d: %v: got error %v", i, c.p, err)
		}
	}
}
