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

// Package predict implements the PNG and TIFF predictors which can be
// combined with the LZWDecode and FlateDecode filters.
package predict

import (
	"errors"
	"fmt"
	"io"
)

const maxColumns = 1 << 20

// Params describes the layout of the predicted data.
type Params struct {
	// Predictor selects the prediction algorithm:
	// 1 means no prediction, 2 is TIFF predictor 2, 10 to 15 are
	// the PNG predictors.
	Predictor int

	// Colors is the number of color components per sample.
	Colors int

	// BitsPerComponent is the number of bits per color component.
	BitsPerComponent int

	// Columns is the number of samples per row.
	Columns int
}

// Validate checks whether the parameters are supported.
func (p *Params) Validate() error {
	switch p.Predictor {
	case 1:
		return nil
	case 2, 10, 11, 12, 13, 14, 15:
		// pass
	default:
		return fmt.Errorf("unsupported predictor %d", p.Predictor)
	}

	if p.Colors < 1 || p.Colors > 256 {
		return fmt.Errorf("invalid number of colors %d", p.Colors)
	}
	switch p.BitsPerComponent {
	case 1, 2, 4:
		if p.Predictor == 2 {
			return fmt.Errorf("TIFF predictor with %d bits per component is not supported",
				p.BitsPerComponent)
		}
	case 8, 16:
		// pass
	default:
		return fmt.Errorf("invalid BitsPerComponent %d", p.BitsPerComponent)
	}
	if p.Columns < 1 || p.Columns > maxColumns {
		return errors.New("invalid number of columns")
	}
	return nil
}

func (p *Params) bytesPerPixel() int {
	return (p.Colors*p.BitsPerComponent + 7) / 8
}

func (p *Params) bytesPerRow() int {
	return (p.Colors*p.BitsPerComponent*p.Columns + 7) / 8
}

// NewReader returns a reader which reverses the prediction on the data
// read from r.
func NewReader(r io.Reader, p *Params) (io.Reader, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Predictor == 1 {
		return r, nil
	}

	rowLen := p.bytesPerRow()
	res := &reader{
		r:    r,
		p:    p,
		bpp:  p.bytesPerPixel(),
		prev: make([]byte, rowLen),
	}
	if p.Predictor >= 10 {
		res.cur = make([]byte, rowLen+1) // includes the tag byte
	} else {
		res.cur = make([]byte, rowLen)
	}
	return res, nil
}

type reader struct {
	r   io.Reader
	p   *Params
	bpp int

	prev []byte // the previous decoded row
	cur  []byte
	out  []byte // decoded data not yet returned
	err  error
}

func (r *reader) Read(buf []byte) (int, error) {
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.nextRow()
	}
	n := copy(buf, r.out)
	r.out = r.out[n:]
	return n, nil
}

func (r *reader) nextRow() {
	n, err := io.ReadFull(r.r, r.cur)
	switch err {
	case nil:
		// pass
	case io.ErrUnexpectedEOF:
		// a truncated last row is decoded as far as possible
		r.err = io.EOF
	default:
		r.err = err
		return
	}

	if r.p.Predictor == 2 {
		row := r.cur[:n]
		tiffDecode(row, r.p.Colors, r.p.BitsPerComponent)
		r.out = row
		return
	}

	if n < 1 {
		return
	}
	tag := r.cur[0]
	row := r.cur[1:n]
	if err := pngDecode(tag, row, r.prev, r.bpp); err != nil {
		r.err = err
		return
	}
	copy(r.prev, row)
	r.out = row
}

func pngDecode(tag byte, row, prev []byte, bpp int) error {
	switch tag {
	case 0: // None
	case 1: // Sub
		for i := bpp; i < len(row); i++ {
			row[i] += row[i-bpp]
		}
	case 2: // Up
		for i := range row {
			row[i] += prev[i]
		}
	case 3: // Average
		for i := range row {
			var left int
			if i >= bpp {
				left = int(row[i-bpp])
			}
			row[i] += byte((left + int(prev[i])) / 2)
		}
	case 4: // Paeth
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			row[i] += paeth(left, prev[i], upLeft)
		}
	default:
		return fmt.Errorf("invalid PNG predictor tag %d", tag)
	}
	return nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func tiffDecode(row []byte, colors, bpc int) {
	if bpc == 8 {
		for i := colors; i < len(row); i++ {
			row[i] += row[i-colors]
		}
		return
	}
	step := 2 * colors
	for i := step; i+1 < len(row); i += 2 {
		v := uint16(row[i])<<8 | uint16(row[i+1])
		v += uint16(row[i-step])<<8 | uint16(row[i-step+1])
		row[i] = byte(v >> 8)
		row[i+1] = byte(v)
	}
}

func tiffEncode(dst, row []byte, colors, bpc int) {
	if bpc == 8 {
		copy(dst, row[:min(colors, len(row))])
		for i := colors; i < len(row); i++ {
			dst[i] = row[i] - row[i-colors]
		}
		return
	}
	step := 2 * colors
	copy(dst, row[:min(step, len(row))])
	for i := step; i+1 < len(row); i += 2 {
		v := uint16(row[i])<<8 | uint16(row[i+1])
		v -= uint16(row[i-step])<<8 | uint16(row[i-step+1])
		dst[i] = byte(v >> 8)
		dst[i+1] = byte(v)
	}
}

// NewWriter returns a writer which applies the predictor to the data
// before writing it to w.  Predictor 15 uses the PNG Up filter for all
// rows.  Closing the writer also closes w.
func NewWriter(w io.WriteCloser, p *Params) (io.WriteCloser, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Predictor == 1 {
		return w, nil
	}

	rowLen := p.bytesPerRow()
	return &writer{
		w:    w,
		p:    p,
		bpp:  p.bytesPerPixel(),
		row:  make([]byte, 0, rowLen),
		prev: make([]byte, rowLen),
		out:  make([]byte, rowLen+1),
	}, nil
}

type writer struct {
	w   io.WriteCloser
	p   *Params
	bpp int

	row  []byte // partial row
	prev []byte
	out  []byte
}

func (w *writer) Write(buf []byte) (int, error) {
	n := 0
	for len(buf) > 0 {
		k := min(cap(w.row)-len(w.row), len(buf))
		w.row = append(w.row, buf[:k]...)
		buf = buf[k:]
		n += k
		if len(w.row) == cap(w.row) {
			if err := w.flushRow(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (w *writer) flushRow() error {
	row := w.row
	var out []byte
	if w.p.Predictor == 2 {
		out = w.out[:len(row)]
		tiffEncode(out, row, w.p.Colors, w.p.BitsPerComponent)
	} else {
		tag := byte(w.p.Predictor - 10)
		if w.p.Predictor == 15 {
			tag = 2
		}
		out = w.out[:len(row)+1]
		out[0] = tag
		pngEncode(tag, out[1:], row, w.prev, w.bpp)
		copy(w.prev, row)
	}
	w.row = w.row[:0]
	_, err := w.w.Write(out)
	return err
}

func pngEncode(tag byte, dst, row, prev []byte, bpp int) {
	for i := range row {
		var left, upLeft byte
		if i >= bpp {
			left = row[i-bpp]
			upLeft = prev[i-bpp]
		}
		var pred byte
		switch tag {
		case 1:
			pred = left
		case 2:
			pred = prev[i]
		case 3:
			pred = byte((int(left) + int(prev[i])) / 2)
		case 4:
			pred = paeth(left, prev[i], upLeft)
		}
		dst[i] = row[i] - pred
	}
}

// Close writes any partial row and closes the underlying writer.
func (w *writer) Close() error {
	if len(w.row) > 0 {
		if err := w.flushRow(); err != nil {
			return err
		}
	}
	return w.w.Close()
}
