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
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"

	"golang.org/x/exp/maps"
)

// Handle refers to a PDF object.
//
// A direct handle owns its value.  An indirect handle refers to an object
// of a [Document] by object number and generation; the object is only
// loaded when it is first used.  Copies of a handle share the underlying
// object, so changes to arrays and dictionaries are visible through all
// copies.
//
// The zero Handle is uninitialized.  All type predicates return false on an
// uninitialized handle, and all other methods return [ErrUninitialized].
type Handle struct {
	obj *object
}

// object is shared between all copies of a Handle.  The fields doc, ref
// and val never change after creation.
type object struct {
	doc *Document
	ref Reference
	val value // for direct objects

	// slot caches the Document's entry for ref.
	slot atomic.Pointer[slot]
}

func direct(v value) Handle {
	return Handle{obj: &object{val: v}}
}

func (o *object) resolve() (value, error) {
	if o.doc == nil {
		return o.val, nil
	}
	s := o.slot.Load()
	if s == nil {
		s = o.doc.slotFor(o.ref)
		o.slot.Store(s)
	}
	return o.doc.load(o.ref, s, nil)
}

// get returns the value of h.  Errors are reported with op as the
// operation name.
func (h Handle) get(op string) (value, error) {
	if h.obj == nil {
		return nil, &Error{Op: op, Err: ErrUninitialized}
	}
	v, err := h.obj.resolve()
	if err != nil {
		e := &Error{Op: op, Ref: h.obj.ref, Err: ErrNotFound}
		if err != ErrNotFound {
			e.Cause = err
		}
		return nil, e
	}
	return v, nil
}

// IsInitialized reports whether h refers to an object.
func (h Handle) IsInitialized() bool {
	return h.obj != nil
}

// Kind returns the type of the object h refers to.
// If h is indirect, the object is loaded from the Document.
func (h Handle) Kind() (Kind, error) {
	v, err := h.get("Kind")
	if err != nil {
		return 0, err
	}
	return v.kind(), nil
}

// kind is like Kind, but treats unresolvable references as null.
func (h Handle) kind() (Kind, bool) {
	if h.obj == nil {
		return 0, false
	}
	v, err := h.obj.resolve()
	if err != nil {
		return KindNull, true
	}
	return v.kind(), true
}

func (h Handle) is(k Kind) bool {
	got, ok := h.kind()
	return ok && got == k
}

// IsNull reports whether h is null.  References to objects which cannot
// be loaded are treated as null.
func (h Handle) IsNull() bool { return h.is(KindNull) }

// IsBool reports whether h is a boolean.
func (h Handle) IsBool() bool { return h.is(KindBool) }

// IsInteger reports whether h is an integer.
func (h Handle) IsInteger() bool { return h.is(KindInteger) }

// IsReal reports whether h is a real number.
func (h Handle) IsReal() bool { return h.is(KindReal) }

// IsName reports whether h is a name.
func (h Handle) IsName() bool { return h.is(KindName) }

// IsString reports whether h is a string.
func (h Handle) IsString() bool { return h.is(KindString) }

// IsArray reports whether h is an array.
func (h Handle) IsArray() bool { return h.is(KindArray) }

// IsDictionary reports whether h is a dictionary.
// This is false for streams.
func (h Handle) IsDictionary() bool { return h.is(KindDictionary) }

// IsStream reports whether h is a stream.
func (h Handle) IsStream() bool { return h.is(KindStream) }

// IsIndirect reports whether h refers to an object in a Document.
// This does not load the object.
func (h Handle) IsIndirect() bool {
	return h.obj != nil && h.obj.doc != nil
}

// IsScalar reports whether h is neither an array, a dictionary nor a stream.
func (h Handle) IsScalar() bool {
	k, ok := h.kind()
	return ok && k.IsScalar()
}

// IsNumber reports whether h is an integer or a real number.
func (h Handle) IsNumber() bool {
	k, ok := h.kind()
	return ok && (k == KindInteger || k == KindReal)
}

// BoolValue returns the value of a boolean object.
func (h Handle) BoolValue() (bool, error) {
	v, err := h.get("BoolValue")
	if err != nil {
		return false, err
	}
	b, ok := v.(boolean)
	if !ok {
		return false, typeError("BoolValue", h.Reference(), v.kind(), KindBool)
	}
	return bool(b), nil
}

// IntValue returns the value of an integer object.
func (h Handle) IntValue() (int64, error) {
	v, err := h.get("IntValue")
	if err != nil {
		return 0, err
	}
	x, ok := v.(integer)
	if !ok {
		return 0, typeError("IntValue", h.Reference(), v.kind(), KindInteger)
	}
	return int64(x), nil
}

// RealValue returns the decimal text of a real number.
func (h Handle) RealValue() (string, error) {
	v, err := h.get("RealValue")
	if err != nil {
		return "", err
	}
	x, ok := v.(real)
	if !ok {
		return "", typeError("RealValue", h.Reference(), v.kind(), KindReal)
	}
	return string(x), nil
}

// NumericValue returns the value of an integer or real object as a float64.
func (h Handle) NumericValue() (float64, error) {
	v, err := h.get("NumericValue")
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case integer:
		return float64(x), nil
	case real:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, &Error{
				Op:    "NumericValue",
				Ref:   h.Reference(),
				Err:   ErrMalformedReal,
				Cause: err,
			}
		}
		return f, nil
	default:
		return 0, typeError("NumericValue", h.Reference(), v.kind(), KindInteger, KindReal)
	}
}

// Name returns the value of a name object, without the leading slash.
func (h Handle) Name() (string, error) {
	v, err := h.get("Name")
	if err != nil {
		return "", err
	}
	x, ok := v.(name)
	if !ok {
		return "", typeError("Name", h.Reference(), v.kind(), KindName)
	}
	return string(x), nil
}

// StringValue returns the bytes of a string object.
func (h Handle) StringValue() (string, error) {
	v, err := h.get("StringValue")
	if err != nil {
		return "", err
	}
	x, ok := v.(str)
	if !ok {
		return "", typeError("StringValue", h.Reference(), v.kind(), KindString)
	}
	return string(x), nil
}

// UTF8Value interprets a string object as a PDF text string and returns
// its value as UTF-8.  Bytes which cannot be decoded are replaced by
// U+FFFD.
func (h Handle) UTF8Value() (string, error) {
	v, err := h.get("UTF8Value")
	if err != nil {
		return "", err
	}
	x, ok := v.(str)
	if !ok {
		return "", typeError("UTF8Value", h.Reference(), v.kind(), KindString)
	}
	return decodeTextString(string(x)), nil
}

func (h Handle) asArray(op string) (*array, error) {
	v, err := h.get(op)
	if err != nil {
		return nil, err
	}
	a, ok := v.(*array)
	if !ok {
		return nil, typeError(op, h.Reference(), v.kind(), KindArray)
	}
	return a, nil
}

// ArrayLen returns the number of elements of an array.
func (h Handle) ArrayLen() (int, error) {
	a, err := h.asArray("ArrayLen")
	if err != nil {
		return 0, err
	}
	return len(a.items), nil
}

// ArrayItem returns element i of an array.
func (h Handle) ArrayItem(i int) (Handle, error) {
	a, err := h.asArray("ArrayItem")
	if err != nil {
		return Handle{}, err
	}
	if i < 0 || i >= len(a.items) {
		return Handle{}, indexError("ArrayItem", h.Reference(), i, len(a.items))
	}
	return a.items[i], nil
}

// SetArrayItem replaces element i of an array.
func (h Handle) SetArrayItem(i int, v Handle) error {
	a, err := h.asArray("SetArrayItem")
	if err != nil {
		return err
	}
	if v.obj == nil {
		return &Error{Op: "SetArrayItem", Ref: h.Reference(), Index: i, Err: ErrUninitialized}
	}
	if i < 0 || i >= len(a.items) {
		return indexError("SetArrayItem", h.Reference(), i, len(a.items))
	}
	a.items[i] = v
	return nil
}

// AppendArrayItem adds an element at the end of an array.
func (h Handle) AppendArrayItem(v Handle) error {
	a, err := h.asArray("AppendArrayItem")
	if err != nil {
		return err
	}
	if v.obj == nil {
		return &Error{Op: "AppendArrayItem", Ref: h.Reference(), Err: ErrUninitialized}
	}
	a.items = append(a.items, v)
	return nil
}

// IsOrHasName reports whether h is the name n, or an array which contains
// the name n.
func (h Handle) IsOrHasName(n string) bool {
	if h.obj == nil {
		return false
	}
	v, err := h.obj.resolve()
	if err != nil {
		return false
	}
	switch x := v.(type) {
	case name:
		return string(x) == n
	case *array:
		for _, item := range x.items {
			if got, err := item.Name(); err == nil && got == n {
				return true
			}
		}
	}
	return false
}

func indexError(op string, ref Reference, i, n int) error {
	return &Error{Op: op, Ref: ref, Index: i, Len: n, Err: ErrIndexOutOfRange}
}

// asDict returns the dictionary h refers to.  Stream dictionaries are
// only accessible via [Handle.Dict].
func (h Handle) asDict(op string, key string) (*dict, error) {
	v, err := h.get(op)
	if err != nil {
		return nil, err
	}
	x, ok := v.(*dict)
	if !ok {
		err := typeError(op, h.Reference(), v.kind(), KindDictionary).(*Error)
		err.Key = key
		return nil, err
	}
	return x, nil
}

// HasKey reports whether a dictionary contains the given key.
func (h Handle) HasKey(key string) (bool, error) {
	d, err := h.asDict("HasKey", key)
	if err != nil {
		return false, err
	}
	_, ok := d.entries[key]
	return ok, nil
}

// Key returns the value stored under key in a dictionary.
// If the key is not present, a null object is returned.
func (h Handle) Key(key string) (Handle, error) {
	d, err := h.asDict("Key", key)
	if err != nil {
		return Handle{}, err
	}
	return d.get(key), nil
}

// Keys returns the keys of a dictionary in sorted order.
func (h Handle) Keys() ([]string, error) {
	d, err := h.asDict("Keys", "")
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(d.entries)), nil
}

// ReplaceKey sets the value for key in a dictionary.
func (h Handle) ReplaceKey(key string, v Handle) error {
	d, err := h.asDict("ReplaceKey", key)
	if err != nil {
		return err
	}
	if v.obj == nil {
		return &Error{Op: "ReplaceKey", Ref: h.Reference(), Key: key, Err: ErrUninitialized}
	}
	d.entries[key] = v
	return nil
}

// RemoveKey removes key from a dictionary.
// Removing a key which is not present is not an error.
func (h Handle) RemoveKey(key string) error {
	d, err := h.asDict("RemoveKey", key)
	if err != nil {
		return err
	}
	delete(d.entries, key)
	return nil
}

// ReplaceOrRemoveKey sets the value for key in a dictionary,
// or removes the key if v is null.
func (h Handle) ReplaceOrRemoveKey(key string, v Handle) error {
	d, err := h.asDict("ReplaceOrRemoveKey", key)
	if err != nil {
		return err
	}
	if v.obj == nil {
		return &Error{Op: "ReplaceOrRemoveKey", Ref: h.Reference(), Key: key, Err: ErrUninitialized}
	}
	if v.IsNull() {
		delete(d.entries, key)
	} else {
		d.entries[key] = v
	}
	return nil
}

// Reference returns the object number and generation of an indirect
// handle.  For direct handles, the zero Reference is returned.
func (h Handle) Reference() Reference {
	if h.obj == nil {
		return 0
	}
	return h.obj.ref
}

// ObjectID returns the object number of an indirect handle, or 0.
func (h Handle) ObjectID() uint32 {
	return h.Reference().Number()
}

// Generation returns the generation number of an indirect handle, or 0.
func (h Handle) Generation() uint16 {
	return h.Reference().Generation()
}

// SameObject reports whether a and b refer to the same indirect object.
// Direct handles have no identity, so this is always false if either
// handle is direct.
func SameObject(a, b Handle) bool {
	if !a.IsIndirect() || !b.IsIndirect() {
		return false
	}
	return a.obj.doc == b.obj.doc && a.obj.ref == b.obj.ref
}

// Release discards the loaded value of an indirect object, so that the
// next access loads the object again.  This affects all handles which
// refer to the object.  Changes made to the object are lost, unless the
// object was stored using [Document.Add] or [Document.Set].
// Release has no effect on direct handles, or if the Document has no
// Loader.
func (h Handle) Release() {
	if !h.IsIndirect() {
		return
	}
	s := h.obj.slot.Load()
	if s == nil {
		s = h.obj.doc.lookup(h.obj.ref)
	}
	if s != nil {
		h.obj.doc.release(s)
	}
}

// String returns a short description of h, for use in debugging.
// This loads indirect objects.
func (h Handle) String() string {
	if h.obj == nil {
		return "<uninitialized>"
	}
	v, err := h.obj.resolve()
	if err != nil {
		return h.obj.ref.String() + " <unresolvable>"
	}

	var desc string
	switch x := v.(type) {
	case null:
		desc = "null"
	case boolean:
		desc = strconv.FormatBool(bool(x))
	case integer:
		desc = strconv.FormatInt(int64(x), 10)
	case real:
		desc = string(x)
	case name:
		desc = "/" + string(x)
	case str:
		desc = fmt.Sprintf("%q", string(x))
	case *array:
		desc = fmt.Sprintf("<Array, %d items>", len(x.items))
	case *dict:
		desc = fmt.Sprintf("<Dict, %d entries>", len(x.entries))
	case *stream:
		desc = fmt.Sprintf("<Stream, %d entries>", len(x.dict.entries))
	}
	if h.obj.doc != nil {
		return h.obj.ref.String() + " " + desc
	}
	return desc
}
