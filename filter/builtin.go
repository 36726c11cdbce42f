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

package filter

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"seehuhn.de/go/pdfobj/internal/filter/ascii85"
	"seehuhn.de/go/pdfobj/internal/filter/asciihex"
	pdfflate "seehuhn.de/go/pdfobj/internal/filter/flate"
	"seehuhn.de/go/pdfobj/internal/filter/lzw"
	"seehuhn.de/go/pdfobj/internal/filter/predict"
	"seehuhn.de/go/pdfobj/internal/filter/runlength"
)

func predictParams(p Params) *predict.Params {
	return &predict.Params{
		Predictor:        p.Get("Predictor", 1),
		Colors:           p.Get("Colors", 1),
		BitsPerComponent: p.Get("BitsPerComponent", 8),
		Columns:          p.Get("Columns", 1),
	}
}

// readCloser combines the reader at the end of a filter chain with
// the Close method of the decompressor.
type readCloser struct {
	io.Reader
	io.Closer
}

type flateFilter struct{}

func (flateFilter) Check(p Params) error {
	return predictParams(p).Validate()
}

func (flateFilter) Decode(r io.Reader, p Params) (io.ReadCloser, error) {
	zr, err := pdfflate.NewReader(r)
	if err != nil {
		return nil, err
	}
	pr, err := predict.NewReader(zr, predictParams(p))
	if err != nil {
		zr.Close()
		return nil, err
	}
	return readCloser{pr, zr}, nil
}

func (flateFilter) Encode(w io.WriteCloser, p Params) (io.WriteCloser, error) {
	zw, err := pdfflate.NewWriter(w, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	return predict.NewWriter(zw, predictParams(p))
}

type lzwFilter struct{}

func earlyChange(p Params) (bool, error) {
	switch p.Get("EarlyChange", 1) {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid EarlyChange value %d", p["EarlyChange"])
	}
}

func (lzwFilter) Check(p Params) error {
	if _, err := earlyChange(p); err != nil {
		return err
	}
	return predictParams(p).Validate()
}

func (lzwFilter) Decode(r io.Reader, p Params) (io.ReadCloser, error) {
	early, err := earlyChange(p)
	if err != nil {
		return nil, err
	}
	pr, err := predict.NewReader(lzw.NewReader(r, early), predictParams(p))
	if err != nil {
		return nil, err
	}
	return io.NopCloser(pr), nil
}

func (lzwFilter) Encode(w io.WriteCloser, p Params) (io.WriteCloser, error) {
	early, err := earlyChange(p)
	if err != nil {
		return nil, err
	}
	lw, err := lzw.NewWriter(w, early)
	if err != nil {
		return nil, err
	}
	return predict.NewWriter(lw, predictParams(p))
}

type asciiHexFilter struct{}

func (asciiHexFilter) Check(Params) error { return nil }

func (asciiHexFilter) Decode(r io.Reader, _ Params) (io.ReadCloser, error) {
	return io.NopCloser(asciihex.NewReader(r)), nil
}

func (asciiHexFilter) Encode(w io.WriteCloser, _ Params) (io.WriteCloser, error) {
	return asciihex.NewWriter(w, 64), nil
}

type ascii85Filter struct{}

func (ascii85Filter) Check(Params) error { return nil }

func (ascii85Filter) Decode(r io.Reader, _ Params) (io.ReadCloser, error) {
	return io.NopCloser(ascii85.NewReader(r)), nil
}

func (ascii85Filter) Encode(w io.WriteCloser, _ Params) (io.WriteCloser, error) {
	return ascii85.NewWriter(w), nil
}

type runLengthFilter struct{}

func (runLengthFilter) Check(Params) error { return nil }

func (runLengthFilter) Decode(r io.Reader, _ Params) (io.ReadCloser, error) {
	return io.NopCloser(runlength.NewReader(r)), nil
}

func (runLengthFilter) Encode(w io.WriteCloser, _ Params) (io.WriteCloser, error) {
	return runlength.NewWriter(w), nil
}
