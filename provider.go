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
	"fmt"
)

// A StreamDataProvider computes the data of a stream on demand.
//
// The provider is called whenever the stream data is accessed, until it
// returns data with Persist set.  Providers should not keep state between
// calls, and must not access the stream they are registered for.
type StreamDataProvider interface {
	ProvideStreamData(in *StreamDataInput) (*StreamDataOutput, error)
}

// StreamDataProviderFunc adapts a function to the StreamDataProvider
// interface.
type StreamDataProviderFunc func(in *StreamDataInput) (*StreamDataOutput, error)

// ProvideStreamData implements the [StreamDataProvider] interface.
func (f StreamDataProviderFunc) ProvideStreamData(in *StreamDataInput) (*StreamDataOutput, error) {
	return f(in)
}

// StreamDataInput is the data passed to a StreamDataProvider.
type StreamDataInput struct {
	// Data is the current stream data.  If Filtered is true, the filters
	// of the stream have been applied.  Otherwise, Data is the raw data.
	// The provider must not modify Data.
	Data []byte

	// Filter and DecodeParms are the current /Filter and /DecodeParms
	// entries of the stream dictionary.
	Filter, DecodeParms Handle

	Filtered bool
}

// StreamDataOutput is the result of a StreamDataProvider.
type StreamDataOutput struct {
	// Data is the new stream data, encoded as described by Filter and
	// DecodeParms.
	Data []byte

	// Filter is null or uninitialized if Data is not encoded, or a name
	// or an array of names.
	Filter Handle

	// DecodeParms is null or uninitialized if no parameters are needed,
	// or a dictionary, or an array of dictionaries and nulls with one
	// element per filter.
	DecodeParms Handle

	// Persist indicates that Data should replace the stream data.  In this
	// case the stream dictionary is updated and the provider is no longer
	// used.  Otherwise, Data is only used for the current access.
	Persist bool
}

type providerEntry struct {
	p StreamDataProvider
}

// checkOutput verifies that a provider returned consistent descriptors.
func checkOutput(out *StreamDataOutput) error {
	if out == nil {
		return errors.New("no output")
	}

	nFilters := 0
	filterIsArray := false
	if out.Filter.obj != nil && !out.Filter.IsNull() {
		k, err := out.Filter.Kind()
		if err != nil {
			return err
		}
		switch k {
		case KindName:
			nFilters = 1
		case KindArray:
			filterIsArray = true
			nFilters, _ = out.Filter.ArrayLen()
			for i := range nFilters {
				item, _ := out.Filter.ArrayItem(i)
				if !item.IsName() {
					return fmt.Errorf("/Filter element %d is not a name", i)
				}
			}
		default:
			return fmt.Errorf("/Filter has type %s", k)
		}
	}

	if out.DecodeParms.obj == nil || out.DecodeParms.IsNull() {
		return nil
	}
	k, err := out.DecodeParms.Kind()
	if err != nil {
		return err
	}
	switch k {
	case KindDictionary:
		if nFilters != 1 {
			return fmt.Errorf("single /DecodeParms dictionary for %d filters", nFilters)
		}
	case KindArray:
		if !filterIsArray {
			return errors.New("/DecodeParms is an array, but /Filter is not")
		}
		n, _ := out.DecodeParms.ArrayLen()
		if n != nFilters {
			return fmt.Errorf("%d /DecodeParms entries for %d filters", n, nFilters)
		}
		for i := range n {
			item, _ := out.DecodeParms.ArrayItem(i)
			if !item.IsNull() && !item.IsDictionary() {
				return fmt.Errorf("/DecodeParms element %d is not a dictionary", i)
			}
		}
	default:
		return fmt.Errorf("/DecodeParms has type %s", k)
	}
	return nil
}
