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

// Package flate implements the FlateDecode filter.
package flate

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// NewReader returns a reader which decompresses zlib data read from r.
// Some PDF writers omit the zlib header; such data is read as a raw
// deflate stream.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err == nil && isZlibHeader(head) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(head []byte) bool {
	cmf, flg := head[0], head[1]
	return cmf&0x0F == 8 && cmf>>4 <= 7 && (uint(cmf)<<8|uint(flg))%31 == 0
}

// NewWriter returns a writer which compresses data in zlib format and
// writes it to w.  Closing the writer also closes w.
func NewWriter(w io.WriteCloser, level int) (io.WriteCloser, error) {
	zw, err := zlib.NewWriterLevel(w, level)
	if err != nil {
		return nil, err
	}
	return &writer{zw: zw, w: w}, nil
}

type writer struct {
	zw *zlib.Writer
	w  io.WriteCloser
}

func (w *writer) Write(p []byte) (int, error) {
	return w.zw.Write(p)
}

func (w *writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return err
	}
	return w.w.Close()
}
