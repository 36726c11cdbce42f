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
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"

	"seehuhn.de/go/pdfobj/filter"
)

// A Loader reads objects from the underlying storage of a Document,
// typically by parsing a PDF file.
//
// Load is normally called once per object and Document.  It is called
// again after the object is released using [Handle.Release], and it may
// be called more than once if several goroutines resolve the same object
// concurrently.  In this case the first result is kept.  For objects which
// do not exist, Load must return an error which wraps [ErrNotFound].
// Load may return an indirect handle, in which case the object is an
// alias for the object referred to.  Streams should be created using
// [NewFileStream].
//
// Load is called without any locks held, so it may use handles of the
// same Document.  It must not resolve ref itself.
type Loader interface {
	Load(doc *Document, ref Reference) (Handle, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(doc *Document, ref Reference) (Handle, error)

// Load implements the [Loader] interface.
func (f LoaderFunc) Load(doc *Document, ref Reference) (Handle, error) {
	return f(doc, ref)
}

// A Decrypter removes the encryption from stream data read from a file.
// The [seehuhn.de/go/pdfobj/crypt] package provides an implementation
// for the standard security handler.
type Decrypter interface {
	DecryptStream(ref Reference, r io.Reader) (io.Reader, error)
}

// Options can be used to configure a new Document.
type Options struct {
	// Loader, if set, is used to load objects which are not yet present in
	// the Document.
	Loader Loader

	// Decrypter, if set, is applied to the data of streams created using
	// [NewFileStream].
	Decrypter Decrypter

	// Filters is used to decode stream data.
	// If this is nil, [filter.Default] is used.
	Filters *filter.Registry

	// Size is the number of object numbers in use by the Loader, i.e. the
	// /Size entry of the file trailer.  [Document.Add] only allocates
	// object numbers greater than or equal to Size.
	Size uint32

	// DecodedCacheSize is the number of streams for which decoded data
	// is kept in memory.  If this is zero, decoded data is not cached.
	DecodedCacheSize int
}

var defaultOptions = &Options{}

var defaultFilters = filter.Default()

// Document holds the indirect objects of a PDF file.
//
// A Document can be used concurrently from several goroutines, but
// concurrent modification of the same object is not synchronized.
type Document struct {
	loader  Loader
	decrypt Decrypter
	filters *filter.Registry

	mu    sync.RWMutex
	slots map[Reference]*slot
	next  uint32

	decoded *lruCache
}

// slot holds the value of one indirect object.
type slot struct {
	val value // nil, if the object has not been loaded

	// pinned is set for objects which were stored using Add or Set.
	// These cannot be released.
	pinned bool
}

// NewDocument creates a new, empty Document.
func NewDocument(opt *Options) *Document {
	if opt == nil {
		opt = defaultOptions
	}
	d := &Document{
		loader:  opt.Loader,
		decrypt: opt.Decrypter,
		filters: opt.Filters,
		slots:   make(map[Reference]*slot),
		next:    max(opt.Size, 1),
		decoded: newCache(opt.DecodedCacheSize),
	}
	if d.filters == nil {
		d.filters = defaultFilters
	}
	return d
}

// Get returns an indirect handle for the object ref.
// The object is loaded when the handle is first used.
// If the object number is 0, an uninitialized handle is returned.
func (d *Document) Get(ref Reference) Handle {
	if ref.Number() == 0 {
		return Handle{}
	}
	return Handle{obj: &object{doc: d, ref: ref}}
}

// Resolve returns an indirect handle for the object ref, and makes sure
// that the object can be loaded.
func (d *Document) Resolve(ref Reference) (Handle, error) {
	if ref.Number() == 0 {
		return Handle{}, &Error{Op: "Resolve", Ref: ref, Err: ErrNotFound}
	}
	h := d.Get(ref)
	if _, err := h.get("Resolve"); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// Add stores the value of h as a new indirect object and returns an
// indirect handle for the new object.  If h is indirect, the new object
// shares the value of the object h refers to.
func (d *Document) Add(h Handle) (Handle, error) {
	v, err := h.get("Add")
	if err != nil {
		return Handle{}, err
	}

	d.mu.Lock()
	ref := NewReference(d.next, 0)
	for d.slots[ref] != nil {
		d.next++
		ref = NewReference(d.next, 0)
	}
	d.next++
	d.store(ref, v)
	d.mu.Unlock()

	return d.Get(ref), nil
}

// Set replaces the object ref with the value of h.
// All handles which refer to ref see the new value.
func (d *Document) Set(ref Reference, h Handle) error {
	if ref.Number() == 0 {
		return &Error{Op: "Set", Ref: ref, Err: ErrNotFound}
	}
	v, err := h.get("Set")
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.store(ref, v)
	d.mu.Unlock()
	return nil
}

// store must be called with d.mu held for writing.
func (d *Document) store(ref Reference, v value) {
	s := d.slots[ref]
	if s == nil {
		s = &slot{}
		d.slots[ref] = s
	}
	s.val = v
	s.pinned = true
	d.bind(ref, v)
}

// bind attaches streams to their object, so that the stream data can be
// decrypted and cached.
func (d *Document) bind(ref Reference, v value) {
	if s, ok := v.(*stream); ok && s.doc == nil {
		s.doc = d
		s.ref = ref
	}
}

// Len returns the number of objects which are currently loaded.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, s := range d.slots {
		if s.val != nil {
			n++
		}
	}
	return n
}

// References returns the references of all currently loaded objects,
// in increasing order.
func (d *Document) References() []Reference {
	d.mu.RLock()
	res := make([]Reference, 0, len(d.slots))
	for ref, s := range d.slots {
		if s.val != nil {
			res = append(res, ref)
		}
	}
	d.mu.RUnlock()

	slices.SortFunc(res, func(a, b Reference) int {
		if c := cmp.Compare(a.Number(), b.Number()); c != 0 {
			return c
		}
		return cmp.Compare(a.Generation(), b.Generation())
	})
	return res
}

// lookup returns the slot for ref, or nil if ref has never been used.
func (d *Document) lookup(ref Reference) *slot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slots[ref]
}

// slotFor returns the slot for ref, creating an empty slot if needed.
func (d *Document) slotFor(ref Reference) *slot {
	d.mu.RLock()
	s := d.slots[ref]
	d.mu.RUnlock()
	if s != nil {
		return s
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	s = d.slots[ref]
	if s == nil {
		s = &slot{}
		d.slots[ref] = s
	}
	return s
}

// load returns the value stored in s, calling the Loader if needed.
// The map seen holds the references visited while following a chain
// of aliases.
func (d *Document) load(ref Reference, s *slot, seen map[Reference]bool) (value, error) {
	d.mu.RLock()
	v := s.val
	d.mu.RUnlock()
	if v != nil {
		return v, nil
	}

	if d.loader == nil {
		return nil, ErrNotFound
	}
	if seen[ref] {
		return nil, fmt.Errorf("%w: %s is an alias for itself", ErrCycle, ref)
	}

	h, err := d.loader.Load(d, ref)
	if err != nil {
		return nil, err
	}

	o := h.obj
	switch {
	case o == nil:
		return nil, ErrNotFound
	case o.doc == nil:
		v = o.val
	case o.doc == d:
		if seen == nil {
			seen = make(map[Reference]bool)
		}
		seen[ref] = true
		v, err = d.load(o.ref, d.slotFor(o.ref), seen)
	default:
		v, err = o.resolve()
	}
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if s.val == nil {
		s.val = v
		d.bind(ref, v)
	}
	return s.val, nil
}

func (d *Document) release(s *slot) {
	if d.loader == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !s.pinned {
		s.val = nil
	}
}

// NewStream creates a new indirect stream object with the given
// dictionary and data.  The /Length entry of the dictionary is set
// to the length of data.
func (d *Document) NewStream(dict Handle, data []byte) (Handle, error) {
	s, err := newStream("NewStream", dict)
	if err != nil {
		return Handle{}, err
	}
	buf := slices.Clone(data)
	if buf == nil {
		buf = []byte{}
	}
	s.payload.Store(&payload{data: buf})
	s.dict.entries["Length"] = NewInteger(int64(len(buf)))
	return d.Add(direct(s))
}
