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

// Package lzw implements the LZW compression used by the LZWDecode
// filter in PDF files.
//
// Codes are between 9 and 12 bits wide and are packed with the most
// significant bit first.  If earlyChange is set, the code width is
// increased one code early, as is the default in PDF.
package lzw

import (
	"bufio"
	"errors"
	"io"
)

const (
	clearCode = 256
	eodCode   = 257
	firstCode = 258
	maxWidth  = 12
	tableSize = 1 << maxWidth
)

var errInvalidCode = errors.New("lzw: invalid code")

// NewReader returns a reader which decompresses the data read from r.
func NewReader(r io.Reader, earlyChange bool) io.Reader {
	res := &reader{
		br: bufio.NewReader(r),
	}
	if earlyChange {
		res.early = 1
	}
	res.reset()
	return res
}

type reader struct {
	br    *bufio.Reader
	bits  uint32
	nBits uint

	early int
	width uint
	next  int
	table [tableSize][]byte
	prev  []byte

	out []byte
	err error
}

func (r *reader) reset() {
	r.width = 9
	r.next = firstCode
	r.prev = nil
}

func (r *reader) readCode() (int, error) {
	for r.nBits < r.width {
		c, err := r.br.ReadByte()
		if err != nil {
			return 0, err
		}
		r.bits = r.bits<<8 | uint32(c)
		r.nBits += 8
	}
	r.nBits -= r.width
	code := int(r.bits>>r.nBits) & (1<<r.width - 1)
	r.bits &= 1<<r.nBits - 1
	return code, nil
}

func (r *reader) Read(buf []byte) (int, error) {
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.decode()
	}
	n := copy(buf, r.out)
	r.out = r.out[n:]
	return n, nil
}

// decode reads one code and sets r.out to the decoded bytes.
func (r *reader) decode() {
	code, err := r.readCode()
	if err != nil {
		// Some writers omit the EOD marker.
		if err == io.EOF {
			r.err = io.EOF
		} else {
			r.err = err
		}
		return
	}

	var entry []byte
	switch {
	case code == clearCode:
		r.reset()
		return
	case code == eodCode:
		r.err = io.EOF
		return
	case code < clearCode:
		entry = []byte{byte(code)}
	case code < r.next:
		entry = r.table[code]
	case code == r.next && r.prev != nil:
		entry = make([]byte, len(r.prev)+1)
		copy(entry, r.prev)
		entry[len(r.prev)] = r.prev[0]
	default:
		r.err = errInvalidCode
		return
	}

	if r.prev != nil && r.next < tableSize {
		ext := make([]byte, len(r.prev)+1)
		copy(ext, r.prev)
		ext[len(r.prev)] = entry[0]
		r.table[r.next] = ext
		r.next++
	}
	r.prev = entry
	if r.next+r.early >= 1<<r.width && r.width < maxWidth {
		r.width++
	}

	r.out = entry
}

// NewWriter returns a writer which compresses data and writes it to w.
// Closing the writer writes the EOD marker and closes w.
func NewWriter(w io.WriteCloser, earlyChange bool) (io.WriteCloser, error) {
	res := &writer{
		w:    w,
		code: -1,
		dict: make(map[uint32]int),
	}
	if earlyChange {
		res.early = 1
	}
	res.width = 9
	res.next = firstCode
	if err := res.emit(clearCode); err != nil {
		return nil, err
	}
	return res, nil
}

type writer struct {
	w     io.WriteCloser
	bits  uint32
	nBits uint
	buf   []byte

	early int
	width uint
	next  int

	// dict maps (prefix code, byte) pairs to codes
	dict map[uint32]int

	// code is the code for the input consumed so far, or -1
	code int
}

func (w *writer) emit(code int) error {
	w.bits = w.bits<<w.width | uint32(code)
	w.nBits += w.width
	for w.nBits >= 8 {
		w.nBits -= 8
		w.buf = append(w.buf, byte(w.bits>>w.nBits))
	}
	w.bits &= 1<<w.nBits - 1
	if len(w.buf) >= 512 {
		return w.flush()
	}
	return nil
}

func (w *writer) flush() error {
	_, err := w.w.Write(w.buf)
	w.buf = w.buf[:0]
	return err
}

func (w *writer) Write(p []byte) (int, error) {
	for i, c := range p {
		if w.code < 0 {
			w.code = int(c)
			continue
		}
		key := uint32(w.code)<<8 | uint32(c)
		if code, ok := w.dict[key]; ok {
			w.code = code
			continue
		}

		if err := w.emit(w.code); err != nil {
			return i, err
		}
		w.dict[key] = w.next
		w.next++
		// The reader adds its table entry one code later, so the width
		// is based on the previous table size.
		if w.next-1+w.early >= 1<<w.width && w.width < maxWidth {
			w.width++
		}
		if w.next >= tableSize-w.early {
			if err := w.emit(clearCode); err != nil {
				return i, err
			}
			clear(w.dict)
			w.width = 9
			w.next = firstCode
		}
		w.code = int(c)
	}
	return len(p), nil
}

// Close flushes all pending data, writes the EOD marker and closes the
// underlying writer.
func (w *writer) Close() error {
	if w.code >= 0 {
		if err := w.emit(w.code); err != nil {
			return err
		}
		// The reader adds an entry when it reads this code, which may
		// change the width of the EOD code.
		if w.next+w.early >= 1<<w.width && w.width < maxWidth {
			w.width++
		}
	}
	if err := w.emit(eodCode); err != nil {
		return err
	}
	if w.nBits > 0 {
		w.buf = append(w.buf, byte(w.bits<<(8-w.nBits)))
		w.nBits = 0
	}
	if err := w.flush(); err != nil {
		return err
	}
	return w.w.Close()
}
