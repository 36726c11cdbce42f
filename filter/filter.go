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

// Package filter implements the stream filters of PDF files.
//
// A [Registry] maps filter names, as used in the /Filter entry of a
// stream dictionary, to implementations.  The registry returned by
// [Default] knows FlateDecode, LZWDecode, ASCIIHexDecode, ASCII85Decode
// and RunLengthDecode, together with their abbreviated names.
package filter

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

// Params holds the integer-valued entries of a /DecodeParms dictionary.
// Boolean entries are represented as 0 and 1.
type Params map[string]int

// Get returns the value for key, or def if the key is not present.
func (p Params) Get(key string, def int) int {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Filter is the decoding half of a stream filter.
type Filter interface {
	// Check reports whether data with the given parameters can be decoded,
	// without looking at the data.
	Check(p Params) error

	// Decode returns a reader for the decoded data.
	Decode(r io.Reader, p Params) (io.ReadCloser, error)
}

// Encoder is implemented by filters which can also encode data.
type Encoder interface {
	// Encode returns a writer which encodes data and writes it to w.
	// Closing the returned writer must close w.
	Encode(w io.WriteCloser, p Params) (io.WriteCloser, error)
}

var (
	// ErrUnknown is returned for filters which are not registered.
	ErrUnknown = errors.New("unknown filter")

	// ErrNoEncoder is returned by [Registry.Encode] if a filter
	// only supports decoding.
	ErrNoEncoder = errors.New("filter cannot encode")
)

// Registry maps filter names to implementations.
// A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{filters: make(map[string]Filter)}
}

// Default returns a new registry which contains the built-in filters.
func Default() *Registry {
	r := NewRegistry()
	r.Register(flateFilter{}, "FlateDecode", "Fl")
	r.Register(lzwFilter{}, "LZWDecode", "LZW")
	r.Register(asciiHexFilter{}, "ASCIIHexDecode", "AHx")
	r.Register(ascii85Filter{}, "ASCII85Decode", "A85")
	r.Register(runLengthFilter{}, "RunLengthDecode", "RL")
	return r
}

// Register adds a filter under the given names.
// Existing registrations for these names are replaced.
func (r *Registry) Register(f Filter, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.filters[name] = f
	}
}

// Lookup returns the filter registered under name.
func (r *Registry) Lookup(name string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// Names returns the registered filter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.filters))
}

func (r *Registry) get(name string) (Filter, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, name)
	}
	return f, nil
}

// Check reports whether data encoded with the named filter and the given
// parameters can be decoded.
func (r *Registry) Check(name string, p Params) error {
	f, err := r.get(name)
	if err != nil {
		return err
	}
	return f.Check(p)
}

// Decode applies the named filter to the data read from in.
func (r *Registry) Decode(name string, in io.Reader, p Params) (io.ReadCloser, error) {
	f, err := r.get(name)
	if err != nil {
		return nil, err
	}
	if err := f.Check(p); err != nil {
		return nil, err
	}
	return f.Decode(in, p)
}

// Encode returns a writer which encodes data with the named filter and
// writes the result to w.
func (r *Registry) Encode(name string, w io.WriteCloser, p Params) (io.WriteCloser, error) {
	f, err := r.get(name)
	if err != nil {
		return nil, err
	}
	enc, ok := f.(Encoder)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoEncoder)
	}
	if err := f.Check(p); err != nil {
		return nil, err
	}
	return enc.Encode(w, p)
}
