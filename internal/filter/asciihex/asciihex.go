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

// Package asciihex implements the ASCIIHexDecode filter.
package asciihex

import (
	"bufio"
	"fmt"
	"io"
)

// NewReader returns a reader which decodes hexadecimal data read from r.
// The data must be terminated by '>'.  White space is ignored.
func NewReader(r io.Reader) io.Reader {
	return &reader{r: bufio.NewReader(r)}
}

type reader struct {
	r *bufio.Reader

	high    byte
	hasHigh bool
	err     error
}

func (r *reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && r.err == nil {
		c, err := r.r.ReadByte()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			r.err = err
			break
		}

		var b byte
		switch {
		case c >= '0' && c <= '9':
			b = c - '0'
		case c >= 'A' && c <= 'F':
			b = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			b = c - 'a' + 10
		case c == 0 || c == 9 || c == 10 || c == 12 || c == 13 || c == 32:
			continue
		case c == '>':
			// an odd number of digits is completed with 0
			if r.hasHigh {
				p[n] = r.high << 4
				n++
				r.hasHigh = false
			}
			r.err = io.EOF
			continue
		default:
			r.err = fmt.Errorf("asciihex: invalid character %q", c)
			continue
		}

		if r.hasHigh {
			p[n] = r.high<<4 | b
			n++
			r.hasHigh = false
		} else {
			r.high = b
			r.hasHigh = true
		}
	}

	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

const hexDigits = "0123456789abcdef"

// NewWriter returns a writer which hex-encodes data and writes it to w.
// Lines are broken so that they are at most width characters long.
// Closing the writer writes the '>' marker and closes w.
func NewWriter(w io.WriteCloser, width int) io.WriteCloser {
	return &writer{
		w:     w,
		width: max(width, 2),
	}
}

type writer struct {
	w     io.WriteCloser
	width int
	col   int
	buf   []byte
}

func (w *writer) Write(p []byte) (int, error) {
	w.buf = w.buf[:0]
	for _, c := range p {
		if w.col+2 > w.width {
			w.buf = append(w.buf, '\n')
			w.col = 0
		}
		w.buf = append(w.buf, hexDigits[c>>4], hexDigits[c&15])
		w.col += 2
	}
	_, err := w.w.Write(w.buf)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *writer) Close() error {
	marker := []byte{'>'}
	if w.col+1 > w.width {
		marker = []byte{'\n', '>'}
	}
	if _, err := w.w.Write(marker); err != nil {
		return err
	}
	return w.w.Close()
}
