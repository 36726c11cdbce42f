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

// Package runlength implements the RunLengthDecode filter.
//
// Encoded data consists of runs.  A length byte n in the range 0 to 127
// is followed by n+1 literal bytes, a length byte n in the range 129 to
// 255 is followed by a single byte which is repeated 257-n times.  The
// length byte 128 marks the end of data.
package runlength

import (
	"bufio"
	"io"
)

// NewReader returns a reader which decodes run-length encoded data read
// from r.  A missing end-of-data marker is not treated as an error.
func NewReader(r io.Reader) io.Reader {
	return &reader{r: bufio.NewReader(r)}
}

type reader struct {
	r *bufio.Reader

	// remaining bytes of the current run
	count   int
	literal bool
	fill    byte

	err error
}

func (r *reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && r.err == nil {
		if r.count == 0 {
			r.startRun()
			continue
		}

		k := min(r.count, len(p)-n)
		if r.literal {
			m, err := io.ReadFull(r.r, p[n:n+k])
			n += m
			r.count -= m
			if err != nil {
				r.err = io.ErrUnexpectedEOF
			}
			continue
		}
		for i := range k {
			p[n+i] = r.fill
		}
		n += k
		r.count -= k
	}

	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

func (r *reader) startRun() {
	length, err := r.r.ReadByte()
	if err != nil {
		r.err = err
		return
	}
	switch {
	case length == 128:
		r.err = io.EOF
	case length < 128:
		r.count = int(length) + 1
		r.literal = true
	default:
		c, err := r.r.ReadByte()
		if err != nil {
			r.err = io.ErrUnexpectedEOF
			return
		}
		r.count = 257 - int(length)
		r.literal = false
		r.fill = c
	}
}

// NewWriter returns a writer which run-length encodes data and writes it
// to w.  Closing the writer writes the end-of-data marker and closes w.
func NewWriter(w io.WriteCloser) io.WriteCloser {
	return &writer{w: w}
}

type writer struct {
	w       io.WriteCloser
	pending []byte
	out     []byte
}

const maxRun = 128

func (w *writer) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	if len(w.pending) >= 2*maxRun {
		// keep a tail, so that runs crossing the boundary are not split
		k := len(w.pending) - maxRun
		w.encode(w.pending[:k])
		w.pending = append(w.pending[:0], w.pending[k:]...)
		if err := w.flush(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// encode appends the encoded form of src to w.out.
func (w *writer) encode(src []byte) {
	i := 0
	for i < len(src) {
		j := i + 1
		for j < len(src) && j-i < maxRun && src[j] == src[i] {
			j++
		}
		if j-i >= 2 {
			w.out = append(w.out, byte(257-(j-i)), src[i])
			i = j
			continue
		}

		j = i + 1
		for j < len(src) && j-i < maxRun {
			if j+1 < len(src) && src[j] == src[j+1] {
				break
			}
			j++
		}
		w.out = append(w.out, byte(j-i-1))
		w.out = append(w.out, src[i:j]...)
		i = j
	}
}

func (w *writer) flush() error {
	_, err := w.w.Write(w.out)
	w.out = w.out[:0]
	return err
}

func (w *writer) Close() error {
	w.encode(w.pending)
	w.pending = w.pending[:0]
	w.out = append(w.out, 128)
	if err := w.flush(); err != nil {
		return err
	}
	return w.w.Close()
}
