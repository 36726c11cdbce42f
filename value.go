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
	"strconv"
	"strings"
)

// Kind identifies which of the nine native PDF object types a value has.
type Kind int

// These are the object kinds.  Exactly one of them applies to every
// initialized handle.
const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindReal
	KindName
	KindString
	KindArray
	KindDictionary
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindName:
		return "name"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindDictionary:
		return "dictionary"
	case KindStream:
		return "stream"
	default:
		return "kind#" + strconv.Itoa(int(k))
	}
}

// IsScalar reports whether values of kind k have no children.
func (k Kind) IsScalar() bool {
	return k != KindArray && k != KindDictionary && k != KindStream
}

// value is the content of one node in the object graph.  The set of
// implementations is closed: null, boolean, integer, real, name, str,
// *array, *dict and *stream.
type value interface {
	kind() Kind
}

type null struct{}

func (null) kind() Kind { return KindNull }

type boolean bool

func (boolean) kind() Kind { return KindBool }

type integer int64

func (integer) kind() Kind { return KindInteger }

// real keeps the decimal text of a number, so that values survive a
// read/write cycle without rounding.
type real string

func (real) kind() Kind { return KindReal }

type name string

func (name) kind() Kind { return KindName }

// str holds the bytes of a PDF string.  Go strings are immutable, which
// lets handles share the value freely.
type str string

func (str) kind() Kind { return KindString }

type array struct {
	items []Handle
}

func (*array) kind() Kind { return KindArray }

type dict struct {
	entries map[string]Handle
}

func (*dict) kind() Kind { return KindDictionary }

func newDict() *dict {
	return &dict{entries: make(map[string]Handle)}
}

func (d *dict) get(key string) Handle {
	if v, ok := d.entries[key]; ok {
		return v
	}
	return NewNull()
}

// NewNull returns a direct null object.
func NewNull() Handle {
	return direct(null{})
}

// NewBool returns a direct boolean object.
func NewBool(v bool) Handle {
	return direct(boolean(v))
}

// NewInteger returns a direct integer object.
func NewInteger(v int64) Handle {
	return direct(integer(v))
}

// NewReal returns a direct real number, given in decimal notation.
// The text is stored as is; it is only parsed when a numeric value
// is requested.
func NewReal(text string) Handle {
	return direct(real(text))
}

// NewRealFromFloat returns a direct real number with the given number
// of decimal places.  Trailing zeros are removed.
func NewRealFromFloat(v float64, places int) Handle {
	s := strconv.FormatFloat(v, 'f', places, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return direct(real(s))
}

// NewName returns a direct name object.  The name is given without the
// leading slash.
func NewName(n string) Handle {
	return direct(name(n))
}

// NewString returns a direct string object holding the given bytes.
func NewString(s string) Handle {
	return direct(str(s))
}

// NewTextString returns a string object which represents s as a PDF
// "text string", i.e. using PDFDocEncoding where possible and UTF-16BE
// otherwise.
func NewTextString(s string) Handle {
	return direct(str(encodeTextString(s)))
}

// NewArray returns a direct array with the given elements.
// Uninitialized elements are stored as null.
func NewArray(items ...Handle) Handle {
	a := &array{items: make([]Handle, len(items))}
	for i, item := range items {
		a.items[i] = orNull(item)
	}
	return direct(a)
}

// NewDictionary returns a direct dictionary with the given entries.
// Uninitialized values are stored as null.
func NewDictionary(entries map[string]Handle) Handle {
	d := newDict()
	for key, val := range entries {
		d.entries[key] = orNull(val)
	}
	return direct(d)
}

func orNull(h Handle) Handle {
	if h.obj == nil {
		return NewNull()
	}
	return h
}

// Reference identifies an indirect object by object number and generation.
// The lower 32 bits hold the object number, the next 16 bits the generation
// number.  The zero Reference is used for direct objects.
type Reference uint64

// NewReference returns the Reference for the given object number and
// generation.
func NewReference(number uint32, generation uint16) Reference {
	return Reference(uint64(number) | uint64(generation)<<32)
}

// Number returns the object number.
func (x Reference) Number() uint32 {
	return uint32(x)
}

// Generation returns the generation number.
func (x Reference) Generation() uint16 {
	return uint16(x >> 32)
}

func (x Reference) String() string {
	res := []string{
		"obj_",
		strconv.FormatInt(int64(x.Number()), 10),
	}
	gen := x.Generation()
	if gen > 0 {
		res = append(res, "@", strconv.FormatUint(uint64(gen), 10))
	}
	return strings.Join(res, "")
}
