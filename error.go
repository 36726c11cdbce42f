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
	"errors"
	"strconv"
	"strings"
)

// These errors classify the failures of handle operations.  Use
// [errors.Is] to test for them; the returned errors carry additional
// context.
var (
	// ErrUninitialized is returned when a zero Handle is used.
	ErrUninitialized = errors.New("uninitialized object handle")

	// ErrTypeMismatch is returned when an operation is applied to an object
	// of the wrong kind.
	ErrTypeMismatch = errors.New("wrong object type")

	// ErrIndexOutOfRange is returned for array indices outside the array.
	ErrIndexOutOfRange = errors.New("array index out of range")

	// ErrNotFound is returned when an indirect reference cannot be resolved.
	ErrNotFound = errors.New("unresolvable object reference")

	// ErrCycle is returned by MakeDirect if an object contains itself.
	ErrCycle = errors.New("loop in object graph")

	// ErrStreamNotDirect is returned by MakeDirect if a stream is found.
	ErrStreamNotDirect = errors.New("stream objects cannot be made direct")

	// ErrMalformedReal indicates that the text of a real object is not
	// a valid number.
	ErrMalformedReal = errors.New("malformed real number")

	// ErrFilter is returned if stream data cannot be decoded.
	ErrFilter = errors.New("cannot decode stream data")

	// ErrProviderContract is returned if a StreamDataProvider returns
	// inconsistent results.
	ErrProviderContract = errors.New("stream data provider contract violation")
)

// Error describes a failed operation on an object handle.
type Error struct {
	// Op is the name of the failed operation, e.g. "IntValue".
	Op string

	// Ref identifies the object the operation was applied to.
	// This is zero for direct objects.
	Ref Reference

	// Want and Got are set for type mismatches.
	Want, Got []Kind

	// Index and Len are set for array index errors.
	Index, Len int

	// Key is set for dictionary operations.
	Key string

	// Err is one of the sentinel errors of this package.
	Err error

	// Cause, if set, is the underlying error, e.g. an error returned by
	// a Loader.
	Cause error
}

func (err *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(err.Op)
	if err.Ref != 0 {
		b.WriteString(" ")
		b.WriteString(err.Ref.String())
	}
	if err.Key != "" {
		b.WriteString(" /")
		b.WriteString(err.Key)
	}
	b.WriteString(": ")
	b.WriteString(err.Err.Error())

	switch {
	case len(err.Want) > 0:
		b.WriteString(" (want ")
		for i, k := range err.Want {
			if i > 0 {
				b.WriteString(" or ")
			}
			b.WriteString(k.String())
		}
		if len(err.Got) > 0 {
			b.WriteString(", got ")
			b.WriteString(err.Got[0].String())
		}
		b.WriteString(")")
	case errors.Is(err.Err, ErrIndexOutOfRange):
		b.WriteString(" (index ")
		b.WriteString(strconv.Itoa(err.Index))
		b.WriteString(", length ")
		b.WriteString(strconv.Itoa(err.Len))
		b.WriteString(")")
	}

	if err.Cause != nil {
		b.WriteString(": ")
		b.WriteString(err.Cause.Error())
	}
	return b.String()
}

// Unwrap allows errors.Is and errors.As to see both the sentinel error
// and the cause.
func (err *Error) Unwrap() []error {
	if err.Cause == nil {
		return []error{err.Err}
	}
	return []error{err.Err, err.Cause}
}

// FilterError indicates that a stage of a stream's filter chain could
// not be applied.
type FilterError struct {
	Ref Reference

	// Stage is the position of the failing filter in the chain.
	// It is -1 if the /Filter or /DecodeParms entries are malformed.
	Stage int

	// Filter is the name of the failing filter, if known.
	Filter string

	Err error
}

func (err *FilterError) Error() string {
	b := &strings.Builder{}
	b.WriteString("stream")
	if err.Ref != 0 {
		b.WriteString(" ")
		b.WriteString(err.Ref.String())
	}
	if err.Stage >= 0 {
		b.WriteString(", filter ")
		b.WriteString(strconv.Itoa(err.Stage))
		if err.Filter != "" {
			b.WriteString(" (")
			b.WriteString(err.Filter)
			b.WriteString(")")
		}
	}
	b.WriteString(": ")
	b.WriteString(ErrFilter.Error())
	if err.Err != nil {
		b.WriteString(": ")
		b.WriteString(err.Err.Error())
	}
	return b.String()
}

func (err *FilterError) Unwrap() []error {
	if err.Err == nil {
		return []error{ErrFilter}
	}
	return []error{ErrFilter, err.Err}
}

// ProviderError indicates that a StreamDataProvider failed or returned
// inconsistent data.
type ProviderError struct {
	Ref Reference
	Err error
}

func (err *ProviderError) Error() string {
	prefix := "stream data provider"
	if err.Ref != 0 {
		prefix += " for " + err.Ref.String()
	}
	return prefix + ": " + err.Err.Error()
}

func (err *ProviderError) Unwrap() error {
	return err.Err
}

func typeError(op string, ref Reference, got Kind, want ...Kind) error {
	return &Error{
		Op:   op,
		Ref:  ref,
		Want: want,
		Got:  []Kind{got},
		Err:  ErrTypeMismatch,
	}
}
