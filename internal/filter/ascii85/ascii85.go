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

// Package ascii85 implements the ASCII85Decode filter.
package ascii85

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var errOverflow = errors.New("ascii85: group value out of range")

// NewReader returns a reader which decodes ASCII base-85 data read from r.
// The data must be terminated by "~>".  White space is ignored.
func NewReader(r io.Reader) io.Reader {
	return &reader{r: bufio.NewReader(r)}
}

type reader struct {
	r *bufio.Reader

	group [5]byte
	k     int // number of digits in group

	out [4]byte
	pos int
	n   int

	err error
}

func (r *reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.pos < r.n {
			k := copy(p[n:], r.out[r.pos:r.n])
			r.pos += k
			n += k
			continue
		}
		if r.err != nil {
			break
		}
		r.decodeGroup()
	}

	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

// decodeGroup reads input until a group of output bytes is available.
func (r *reader) decodeGroup() {
	r.pos, r.n = 0, 0
	for {
		c, err := r.r.ReadByte()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			r.err = err
			return
		}

		switch {
		case c >= '!' && c <= 'u':
			r.group[r.k] = c - '!'
			r.k++
			if r.k == 5 {
				r.emit(5)
				return
			}
		case c == 'z' && r.k == 0:
			r.out = [4]byte{}
			r.n = 4
			return
		case c == '~':
			c2, err := r.r.ReadByte()
			if err != nil || c2 != '>' {
				r.err = errors.New("ascii85: invalid end-of-data marker")
				return
			}
			if r.k == 1 {
				r.err = errors.New("ascii85: incomplete final group")
				return
			}
			if r.k > 0 {
				k := r.k
				for i := k; i < 5; i++ {
					r.group[i] = 'u' - '!'
				}
				r.emit(k)
			}
			if r.err == nil {
				r.err = io.EOF
			}
			return
		case c == 0 || c == 9 || c == 10 || c == 12 || c == 13 || c == 32:
			// white space
		default:
			r.err = fmt.Errorf("ascii85: invalid character %q", c)
			return
		}
	}
}

// emit converts the current group of k digits into k-1 bytes.
func (r *reader) emit(k int) {
	var v uint64
	for _, d := range r.group {
		v = v*85 + uint64(d)
	}
	r.k = 0
	if v > 0xFFFFFFFF {
		r.err = errOverflow
		return
	}
	r.out = [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	r.n = k - 1
}

// NewWriter returns a writer which encodes data in ASCII base-85 form
// and writes it to w.  Closing the writer writes the "~>" marker and
// closes w.
func NewWriter(w io.WriteCloser) io.WriteCloser {
	return &writer{w: w}
}

type writer struct {
	w    io.WriteCloser
	in   [4]byte
	k    int
	col  int
	line []byte
}

const lineWidth = 79

func (w *writer) Write(p []byte) (int, error) {
	w.line = w.line[:0]
	for _, c := range p {
		w.in[w.k] = c
		w.k++
		if w.k == 4 {
			w.encodeGroup(4)
		}
	}
	if _, err := w.w.Write(w.line); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *writer) encodeGroup(k int) {
	w.k = 0
	v := uint32(w.in[0])<<24 | uint32(w.in[1])<<16 | uint32(w.in[2])<<8 | uint32(w.in[3])
	if v == 0 && k == 4 {
		w.put('z')
		return
	}
	var digits [5]byte
	for i := 4; i >= 0; i-- {
		digits[i] = byte(v%85) + '!'
		v /= 85
	}
	for _, d := range digits[:k+1] {
		w.put(d)
	}
}

func (w *writer) put(c byte) {
	if w.col >= lineWidth {
		w.line = append(w.line, '\n')
		w.col = 0
	}
	w.line = append(w.line, c)
	w.col++
}

func (w *writer) Close() error {
	w.line = w.line[:0]
	if w.k > 0 {
		k := w.k
		for i := k; i < 4; i++ {
			w.in[i] = 0
		}
		w.encodeGroup(k)
	}
	if w.col+2 > lineWidth {
		w.line = append(w.line, '\n')
	}
	w.line = append(w.line, '~', '>')
	if _, err := w.w.Write(w.line); err != nil {
		return err
	}
	return w.w.Close()
}
