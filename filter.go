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
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/pdfobj/filter"
)

// FilterInfo describes one stage of the filter chain of a stream.
type FilterInfo struct {
	// Name is the name of the filter, e.g. "FlateDecode".
	Name string

	// Params holds the integer and boolean entries of the
	// corresponding /DecodeParms dictionary.
	Params filter.Params
}

// filterChain converts the /Filter and /DecodeParms entries of a stream
// dictionary into a list of filters.
func filterChain(f, parms Handle) ([]FilterInfo, error) {
	if f.obj == nil || f.IsNull() {
		return nil, nil
	}
	fv, err := f.get("Filter")
	if err != nil {
		return nil, err
	}

	var names []string
	switch x := fv.(type) {
	case name:
		names = []string{string(x)}
	case *array:
		for i, item := range x.items {
			n, err := item.Name()
			if err != nil {
				return nil, fmt.Errorf("/Filter element %d: %w", i, err)
			}
			names = append(names, n)
		}
	default:
		return nil, fmt.Errorf("malformed /Filter: %w", typeError("Filter", f.Reference(), fv.kind(), KindName, KindArray))
	}

	var parmList []Handle
	if parms.obj != nil && !parms.IsNull() {
		pv, err := parms.get("DecodeParms")
		if err != nil {
			return nil, err
		}
		switch x := pv.(type) {
		case *dict:
			parmList = []Handle{parms}
		case *array:
			parmList = x.items
		default:
			return nil, fmt.Errorf("malformed /DecodeParms: %w", typeError("DecodeParms", parms.Reference(), pv.kind(), KindDictionary, KindArray))
		}
		if len(parmList) > len(names) {
			return nil, errors.New("more /DecodeParms entries than filters")
		}
	}

	res := make([]FilterInfo, len(names))
	for i, n := range names {
		res[i].Name = n
		if i >= len(parmList) {
			continue
		}
		p, err := decodeParams(parmList[i])
		if err != nil {
			return nil, fmt.Errorf("/DecodeParms element %d: %w", i, err)
		}
		res[i].Params = p
	}
	return res, nil
}

// decodeParams extracts the integer and boolean entries of a /DecodeParms
// dictionary.  Other entries are ignored, since none of the built-in
// filters use them.
func decodeParams(h Handle) (filter.Params, error) {
	if h.IsNull() {
		return nil, nil
	}
	d, err := h.asDict("DecodeParms", "")
	if err != nil {
		return nil, err
	}
	var res filter.Params
	for key, val := range d.entries {
		v, err := val.get("DecodeParms")
		if err != nil {
			continue
		}
		var x int
		switch v := v.(type) {
		case integer:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("/%s value %d out of range", key, v)
			}
			x = int(v)
		case boolean:
			if v {
				x = 1
			}
		default:
			continue
		}
		if res == nil {
			res = make(filter.Params)
		}
		res[key] = x
	}
	return res, nil
}

// fingerprint returns a canonical description of a filter chain.  Two
// chains with the same fingerprint decode data in the same way.
func fingerprint(chain []FilterInfo) string {
	b := &strings.Builder{}
	for i, info := range chain {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(info.Name)
		b.WriteByte('(')
		for j, key := range slices.Sorted(maps.Keys(info.Params)) {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(strconv.Itoa(info.Params[key]))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// checkChain reports whether all filters in the chain are known and
// their parameters are valid.  No data is decoded.
func checkChain(reg *filter.Registry, chain []FilterInfo) bool {
	for _, info := range chain {
		if reg.Check(info.Name, info.Params) != nil {
			return false
		}
	}
	return true
}

// decodeChain applies all filters in chain to data.
func decodeChain(reg *filter.Registry, ref Reference, data []byte, chain []FilterInfo) ([]byte, error) {
	var r io.Reader = bytes.NewReader(data)
	var closers []io.Closer
	defer func() {
		for _, c := range slices.Backward(closers) {
			c.Close()
		}
	}()

	for i, info := range chain {
		rc, err := reg.Decode(info.Name, r, info.Params)
		if err != nil {
			return nil, chainError(ref, chain, i, err)
		}
		closers = append(closers, rc)
		r = &stageReader{r: rc, stage: i}
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, chainError(ref, chain, len(chain)-1, err)
	}
	return out, nil
}

// chainError attributes err to the filter which caused it.  Errors not
// marked by a stageReader belong to the given stage.
func chainError(ref Reference, chain []FilterInfo, stage int, err error) error {
	var se *stageError
	if errors.As(err, &se) {
		stage, err = se.stage, se.err
	}
	return &FilterError{Ref: ref, Stage: stage, Filter: chain[stage].Name, Err: err}
}

// stageReader marks read errors with the position of the filter in
// the chain.
type stageReader struct {
	r     io.Reader
	stage int
}

type stageError struct {
	stage int
	err   error
}

func (e *stageError) Error() string {
	return e.err.Error()
}

func (e *stageError) Unwrap() error {
	return e.err
}

func (s *stageReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		var se *stageError
		if !errors.As(err, &se) {
			err = &stageError{stage: s.stage, err: err}
		}
	}
	return n, err
}
