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

package pdfobj

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync/atomic"

	"seehuhn.de/go/pdfobj/filter"
)

type stream struct {
	dict *dict
	src  *fileSource // nil for streams created in memory

	payload  atomic.Pointer[payload]
	provider atomic.Pointer[providerEntry]

	// doc and ref are set when the stream is stored in a Document.
	doc *Document
	ref Reference
}

func (*stream) kind() Kind { return KindStream }

// fileSource describes where the raw data of a stream is found.
type fileSource struct {
	r      io.ReaderAt
	offset int64
	length int64
}

// payload holds stream data.  The data is never modified after the
// payload has been installed.
type payload struct {
	data []byte

	// replaced is set if the data was installed by ReplaceStreamData
	// or a persistent provider.
	replaced bool
}

// content is the stream data used for one access, together with the
// descriptors of its encoding.
type content struct {
	p             *payload
	filter, parms Handle

	// transient is set for data from a non-persistent provider.
	transient bool
}

func newStream(op string, dict Handle) (*stream, error) {
	v, err := dict.get(op)
	if err != nil {
		return nil, err
	}
	d, ok := v.(*dict)
	if !ok {
		return nil, typeError(op, dict.Reference(), v.kind(), KindDictionary)
	}
	return &stream{dict: d}, nil
}

// NewFileStream creates a stream whose data is read from r on first
// access.  This is intended for use by a [Loader].  If the stream is
// stored in a Document with a Decrypter, the data is decrypted after
// reading.  The stream shares the dictionary of dict.
func NewFileStream(dict Handle, r io.ReaderAt, offset, length int64) (Handle, error) {
	s, err := newStream("NewFileStream", dict)
	if err != nil {
		return Handle{}, err
	}
	if offset < 0 || length < 0 {
		return Handle{}, fmt.Errorf("invalid stream location %d+%d", offset, length)
	}
	s.src = &fileSource{r: r, offset: offset, length: length}
	return direct(s), nil
}

func (h Handle) asStream(op string) (*stream, error) {
	v, err := h.get(op)
	if err != nil {
		return nil, err
	}
	s, ok := v.(*stream)
	if !ok {
		return nil, typeError(op, h.Reference(), v.kind(), KindStream)
	}
	return s, nil
}

// Dict returns the dictionary of a stream.  Changes made through the
// returned handle modify the stream.
func (h Handle) Dict() (Handle, error) {
	s, err := h.asStream("Dict")
	if err != nil {
		return Handle{}, err
	}
	return direct(s.dict), nil
}

// StreamFilters returns the filter chain declared in the dictionary
// of a stream.
func (h Handle) StreamFilters() ([]FilterInfo, error) {
	s, err := h.asStream("StreamFilters")
	if err != nil {
		return nil, err
	}
	chain, err := filterChain(s.dict.get("Filter"), s.dict.get("DecodeParms"))
	if err != nil {
		return nil, &FilterError{Ref: s.ref, Stage: -1, Err: err}
	}
	return chain, nil
}

// StreamData returns the decoded data of a stream.
// If any of the filters cannot be applied, a [*FilterError] is returned.
func (h Handle) StreamData() ([]byte, error) {
	s, err := h.asStream("StreamData")
	if err != nil {
		return nil, err
	}
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	data, err := s.decode(c)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

// RawStreamData returns the data of a stream without applying any
// filters.  Encryption is removed.
func (h Handle) RawStreamData() ([]byte, error) {
	s, err := h.asStream("RawStreamData")
	if err != nil {
		return nil, err
	}
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(c.p.data), nil
}

// PipeStreamData writes the data of a stream to w.
//
// If decode is false, the raw data is written and the return value is
// false.  If decode is true and all filters can be applied, the decoded
// data is written and the return value is true.  If decode is true but
// the filters cannot be applied, the raw data is written and the return
// value is false.  Thus, the return value indicates whether the /Filter
// and /DecodeParms entries of the dictionary still describe the data
// written.
//
// If decoded data is written, normalize converts all line endings to
// LF and compress compresses the result using FlateDecode.
//
// If w is nil, nothing is written and no data is read.  The return value
// then indicates whether the declared filters are known and their
// parameters are valid.
func (h Handle) PipeStreamData(w io.Writer, decode, normalize, compress bool) (bool, error) {
	s, err := h.asStream("PipeStreamData")
	if err != nil {
		return false, err
	}

	if w == nil {
		if !decode {
			return false, nil
		}
		chain, err := filterChain(s.dict.get("Filter"), s.dict.get("DecodeParms"))
		if err != nil {
			return false, nil
		}
		return checkChain(s.registry(), chain), nil
	}

	c, err := s.current()
	if err != nil {
		return false, err
	}

	if decode {
		data, err := s.decode(c)
		if err == nil {
			if normalize {
				data = normalizeEOL(data)
			}
			if compress {
				data, err = s.compress(data)
				if err != nil {
					return false, err
				}
			}
			if _, err := w.Write(data); err != nil {
				return false, err
			}
			return true, nil
		} else if !errors.Is(err, ErrFilter) {
			return false, err
		}
	}

	_, err = w.Write(c.p.data)
	return false, err
}

// ReplaceStreamData replaces the data of a stream.  The /Filter and
// /DecodeParms entries of the stream dictionary are set to filters and
// decodeParms, and /Length is set to the length of data.  If filters or
// decodeParms is null, uninitialized or an empty array, the
// corresponding entry is removed.  Any registered StreamDataProvider is
// discarded.
func (h Handle) ReplaceStreamData(data []byte, filters, decodeParms Handle) error {
	s, err := h.asStream("ReplaceStreamData")
	if err != nil {
		return err
	}
	s.provider.Store(nil)
	s.install(slices.Clone(data), filters, decodeParms)
	return nil
}

// ReplaceStreamDataProvider registers a provider which computes the data
// of a stream when it is next accessed.  The provider receives the current
// stream data as input.  Use nil to remove a provider.
func (h Handle) ReplaceStreamDataProvider(p StreamDataProvider) error {
	s, err := h.asStream("ReplaceStreamDataProvider")
	if err != nil {
		return err
	}
	if p == nil {
		s.provider.Store(nil)
		return nil
	}

	// Replacement data becomes the input of the provider.
	if cur := s.payload.Load(); cur != nil && cur.replaced {
		s.payload.Store(&payload{data: cur.data})
	}
	s.provider.Store(&providerEntry{p: p})
	return nil
}

// current returns the data for the current access, calling the provider
// if needed.
func (s *stream) current() (*content, error) {
	if p := s.payload.Load(); p != nil && p.replaced {
		return s.described(p), nil
	}
	if e := s.provider.Load(); e != nil {
		return s.provide(e)
	}
	p, err := s.raw()
	if err != nil {
		return nil, err
	}
	return s.described(p), nil
}

// described returns p together with the descriptors from the stream
// dictionary.
func (s *stream) described(p *payload) *content {
	return &content{
		p:      p,
		filter: s.dict.get("Filter"),
		parms:  s.dict.get("DecodeParms"),
	}
}

// raw returns the stored stream data, reading it from the file on
// first use.
func (s *stream) raw() (*payload, error) {
	if p := s.payload.Load(); p != nil {
		return p, nil
	}
	if s.src == nil {
		return &payload{}, nil
	}

	data := make([]byte, s.src.length)
	n, err := s.src.r.ReadAt(data, s.src.offset)
	if err == io.EOF && int64(n) == s.src.length {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading stream data: %w", s.ref, err)
	}

	if s.doc != nil && s.doc.decrypt != nil && s.ref != 0 {
		r, err := s.doc.decrypt.DecryptStream(s.ref, bytes.NewReader(data))
		if err == nil {
			data, err = io.ReadAll(r)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: decrypting stream data: %w", s.ref, err)
		}
	}

	p := &payload{data: data}
	if !s.payload.CompareAndSwap(nil, p) {
		p = s.payload.Load()
	}
	return p, nil
}

func (s *stream) provide(e *providerEntry) (*content, error) {
	raw, err := s.raw()
	if err != nil {
		return nil, err
	}

	in := &StreamDataInput{
		Filter:      s.dict.get("Filter"),
		DecodeParms: s.dict.get("DecodeParms"),
	}
	decoded, err := s.decode(s.described(raw))
	switch {
	case err == nil:
		in.Data = decoded
		in.Filtered = true
	case errors.Is(err, ErrFilter):
		in.Data = raw.data
	default:
		return nil, err
	}

	out, err := e.p.ProvideStreamData(in)
	if err != nil {
		return nil, &ProviderError{Ref: s.ref, Err: err}
	}
	if err := checkOutput(out); err != nil {
		return nil, &ProviderError{
			Ref: s.ref,
			Err: fmt.Errorf("%w: %w", ErrProviderContract, err),
		}
	}

	data := slices.Clone(out.Data)
	if out.Persist {
		p := s.install(data, out.Filter, out.DecodeParms)
		s.provider.CompareAndSwap(e, nil)
		return s.described(p), nil
	}
	return &content{
		p:         &payload{data: data},
		filter:    orNull(out.Filter),
		parms:     orNull(out.DecodeParms),
		transient: true,
	}, nil
}

// install makes data the new stream data and updates the dictionary.
func (s *stream) install(data []byte, filters, decodeParms Handle) *payload {
	if data == nil {
		data = []byte{}
	}
	setDescriptor(s.dict, "Filter", filters)
	setDescriptor(s.dict, "DecodeParms", decodeParms)
	s.dict.entries["Length"] = NewInteger(int64(len(data)))

	p := &payload{data: data, replaced: true}
	s.payload.Store(p)
	return p
}

func setDescriptor(d *dict, key string, val Handle) {
	if val.obj == nil || val.IsNull() {
		delete(d.entries, key)
		return
	}
	if n, err := val.ArrayLen(); err == nil && n == 0 {
		delete(d.entries, key)
		return
	}
	if keys, err := val.Keys(); key == "DecodeParms" && err == nil && len(keys) == 0 {
		delete(d.entries, key)
		return
	}
	d.entries[key] = val
}

// decode applies the filters to the data of c.
func (s *stream) decode(c *content) ([]byte, error) {
	chain, err := filterChain(c.filter, c.parms)
	if err != nil {
		return nil, &FilterError{Ref: s.ref, Stage: -1, Err: err}
	}
	if len(chain) == 0 {
		return c.p.data, nil
	}

	var cache *lruCache
	if s.doc != nil && !c.transient {
		cache = s.doc.decoded
	}
	fp := fingerprint(chain)
	if cache != nil {
		if data, ok := cache.Get(s.ref, s, c.p, fp); ok {
			return data, nil
		}
	}

	data, err := decodeChain(s.registry(), s.ref, c.p.data, chain)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Put(s.ref, s, c.p, fp, data)
	}
	return data, nil
}

// compress encodes data using FlateDecode.
func (s *stream) compress(data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w, err := s.registry().Encode("FlateDecode", bufferCloser{buf}, nil)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *stream) registry() *filter.Registry {
	if s.doc != nil {
		return s.doc.filters
	}
	return defaultFilters
}

type bufferCloser struct {
	*bytes.Buffer
}

func (bufferCloser) Close() error { return nil }

// normalizeEOL converts CR and CR LF line endings to LF.
func normalizeEOL(data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
}
