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
	"slices"

	"golang.org/x/exp/maps"
)

// copyFrame is one level of the MakeDirect traversal.
type copyFrame struct {
	ref  Reference // zero, if the container was reached through a direct handle
	src  value     // *array or *dict
	dst  value     // the copy of src
	keys []string  // dictionary keys, in the order they are visited
	pos  int
}

// MakeDirect replaces h with a direct copy of the object it refers to.
// All indirect objects reachable from h are copied as well, so that the
// result does not depend on any Document.  The objects in the Document are
// not changed, and other handles which refer to the same object still
// refer to the original.
//
// If an object contains itself, [ErrCycle] is returned.  Objects which
// are reachable through more than one path are copied once per path.
// Streams cannot be made direct; if a stream is found, [ErrStreamNotDirect]
// is returned.  In case of an error, h is not changed.
func (h *Handle) MakeDirect() error {
	const op = "MakeDirect"

	v, err := h.get(op)
	if err != nil {
		return err
	}
	ref := h.Reference()
	if v.kind() == KindStream {
		return &Error{Op: op, Ref: ref, Err: ErrStreamNotDirect}
	}
	if v.kind().IsScalar() {
		*h = direct(v)
		return nil
	}

	// onPath holds the containers on the path from the root to the
	// current frame, both as object references and as values.
	onPath := make(map[Reference]bool)
	onPathVal := make(map[value]bool)

	push := func(stack []*copyFrame, ref Reference, src value) []*copyFrame {
		f := &copyFrame{ref: ref, src: src}
		switch x := src.(type) {
		case *array:
			f.dst = &array{items: make([]Handle, len(x.items))}
		case *dict:
			f.dst = newDict()
			f.keys = slices.Sorted(maps.Keys(x.entries))
		}
		if ref != 0 {
			onPath[ref] = true
		}
		onPathVal[src] = true
		return append(stack, f)
	}

	stack := push(nil, ref, v)
	root := stack[0].dst
	for len(stack) > 0 {
		f := stack[len(stack)-1]

		var child Handle
		switch src := f.src.(type) {
		case *array:
			if f.pos >= len(src.items) {
				child = Handle{}
			} else {
				child = src.items[f.pos]
			}
		case *dict:
			if f.pos < len(f.keys) {
				child = src.entries[f.keys[f.pos]]
			}
		}
		if child.obj == nil {
			// all children done
			stack = stack[:len(stack)-1]
			delete(onPath, f.ref)
			delete(onPathVal, f.src)
			continue
		}
		pos := f.pos
		f.pos++

		childRef := child.Reference()
		if childRef != 0 && onPath[childRef] {
			return &Error{Op: op, Ref: childRef, Err: ErrCycle}
		}
		cv, err := child.obj.resolve()
		if err != nil {
			cv = null{}
		}
		if onPathVal[cv] {
			return &Error{Op: op, Ref: childRef, Err: ErrCycle}
		}

		var copied value
		switch cv.kind() {
		case KindStream:
			return &Error{Op: op, Ref: childRef, Err: ErrStreamNotDirect}
		case KindArray, KindDictionary:
			stack = push(stack, childRef, cv)
			copied = stack[len(stack)-1].dst
		default:
			copied = cv
		}

		switch dst := f.dst.(type) {
		case *array:
			dst.items[pos] = direct(copied)
		case *dict:
			dst.entries[f.keys[pos]] = direct(copied)
		}
	}

	*h = direct(root)
	return nil
}
