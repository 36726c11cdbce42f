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


package pdfobj_test

import (
	"bytes"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfobj"
	"seehuhn.de/go/pdfobj/filter"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func encode(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w, err := filter.Default().Encode(name, nopCloser{buf}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	r, err := filter.Default().Decode(name, bytes.NewReader(data), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func newStream(t *testing.T, doc *pdfobj.Document, filters pdfobj.Handle, data []byte) pdfobj.Handle {
	t.Helper()
	dict := pdfobj.NewDictionary(nil)
	if filters.IsInitialized() {
		dict.ReplaceKey("Filter", filters)
	}
	h, err := doc.NewStream(dict, data)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestStreamData(t *testing.T) {
	plain := []byte("BT /F1 12 Tf 72 712 Td (Hello World) Tj ET\n")
	raw := encode(t, "FlateDecode", plain)

	doc := pdfobj.NewDocument(nil)
	h := newStream(t, doc, pdfobj.NewName("FlateDecode"), raw)

	data, err := h.StreamData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, plain) {
		t.Errorf("got %q", data)
	}
	got, err := h.RawStreamData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("wrong raw data")
	}

	filters, err := h.StreamFilters()
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]pdfobj.FilterInfo{{Name: "FlateDecode"}}, filters); d != "" {
		t.Errorf("unexpected filters (-want +got):\n%s", d)
	}

	dict, _ := h.Dict()
	length, _ := dict.Key("Length")
	if n, _ := length.IntValue(); n != int64(len(raw)) {
		t.Errorf("/Length = %d", n)
	}

	// the stream dictionary is only reachable via Dict
	if _, err := h.Key("Filter"); !errors.Is(err, pdfobj.ErrTypeMismatch) {
		t.Errorf("Key on stream: got %v", err)
	}

	// returned data can be modified by the caller
	data[0] = 'X'
	again, _ := h.StreamData()
	if again[0] != 'B' {
		t.Error("StreamData returned shared data")
	}
}

func TestStreamDataFilterError(t *testing.T) {
	doc := pdfobj.NewDocument(nil)
	h := newStream(t, doc, pdfobj.NewArray(pdfobj.NewName("AHx"), pdfobj.NewName("Fl")), []byte("41 42>"))

	_, err := h.StreamData()
	var fe *pdfobj.FilterError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v", err)
	}
	if fe.Stage != 1 || fe.Filter != "Fl" || fe.Ref != h.Reference() {
		t.Errorf("wrong error details: %v", fe)
	}
	if !errors.Is(err, pdfobj.ErrFilter) {
		t.Error("error does not wrap ErrFilter")
	}

	h = newStream(t, doc, pdfobj.NewInteger(1), []byte("x"))
	_, err = h.StreamData()
	if !errors.As(err, &fe) || fe.Stage != -1 {
		t.Errorf("malformed /Filter: got %v", err)
	}
}

func TestPipeStreamData(t *testing.T) {
	plain := []byte("line 1\r\nline 2\rline 3\n")
	flate := encode(t, "FlateDecode", plain)

	type pipeCase struct {
		name                        string
		filters                     pdfobj.Handle
		raw                         []byte
		decode, normalize, compress bool

		want     []byte
		filtered bool
	}
	cases := []pipeCase{
		{"raw", pdfobj.NewName("FlateDecode"), flate, false, false, false, flate, false},
		{"raw, normalize ignored", pdfobj.NewName("FlateDecode"), flate, false, true, true, flate, false},
		{"decode", pdfobj.NewName("FlateDecode"), flate, true, false, false, plain, true},
		{"normalize", pdfobj.NewName("FlateDecode"), flate, true, true, false, []byte("line 1\nline 2\nline 3\n"), true},
		{"no filter", pdfobj.Handle{}, plain, true, false, false, plain, true},
		{"unknown filter", pdfobj.NewName("JBIG2Decode"), []byte("xyz"), true, false, false, []byte("xyz"), false},
		{"corrupt data", pdfobj.NewName("FlateDecode"), []byte("not flate"), true, false, false, []byte("not flate"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := pdfobj.NewDocument(nil)
			h := newStream(t, doc, c.filters, c.raw)

			buf := &bytes.Buffer{}
			filtered, err := h.PipeStreamData(buf, c.decode, c.normalize, c.compress)
			if err != nil {
				t.Fatal(err)
			}
			if filtered != c.filtered {
				t.Errorf("filtered = %t", filtered)
			}
			if !bytes.Equal(buf.Bytes(), c.want) {
				t.Errorf("got %q, want %q", buf.Bytes(), c.want)
			}
		})
	}

	t.Run("compress", func(t *testing.T) {
		h := newStream(t, pdfobj.NewDocument(nil), pdfobj.NewName("AHx"), []byte("6869>"))
		buf := &bytes.Buffer{}
		filtered, err := h.PipeStreamData(buf, true, false, true)
		if err != nil {
			t.Fatal(err)
		}
		if !filtered {
			t.Error("not filtered")
		}
		if got := decode(t, "FlateDecode", buf.Bytes()); string(got) != "hi" {
			t.Errorf("got %q", got)
		}
	})
}

type failingReaderAt struct{}

func (failingReaderAt) ReadAt([]byte, int64) (int, error) {
	return 0, errors.New("read error")
}

func TestPipeStreamDataProbe(t *testing.T) {
	cases := []struct {
		filters pdfobj.Handle
		parms   pdfobj.Handle
		decode  bool
		want    bool
	}{
		{pdfobj.NewName("FlateDecode"), pdfobj.Handle{}, true, true},
		{pdfobj.NewName("FlateDecode"), pdfobj.Handle{}, false, false},
		{pdfobj.Handle{}, pdfobj.Handle{}, true, true},
		{pdfobj.NewName("DCTDecode"), pdfobj.Handle{}, true, false},
		{pdfobj.NewArray(pdfobj.NewName("A85"), pdfobj.NewName("LZW")), pdfobj.Handle{}, true, true},
		{pdfobj.NewName("LZW"), pdfobj.NewDictionary(map[string]pdfobj.Handle{"EarlyChange": pdfobj.NewInteger(7)}), true, false},
		{pdfobj.NewName("Fl"), pdfobj.NewDictionary(map[string]pdfobj.Handle{"Predictor": pdfobj.NewInteger(3)}), true, false},
		{pdfobj.NewString("Fl"), pdfobj.Handle{}, true, false},
	}
	for i, c := range cases {
		dict := pdfobj.NewDictionary(map[string]pdfobj.Handle{
			"Filter":      c.filters,
			"DecodeParms": c.parms,
		})
		// The data cannot be read, so any attempt to read it fails.
		h, err := pdfobj.NewFileStream(dict, failingReaderAt{}, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		got, err := h.PipeStreamData(nil, c.decode, false, false)
		if err != nil {
			t.Errorf("%d: %v", i, err)
		}
		if got != c.want {
			t.Errorf("%d: got %t, want %t", i, got, c.want)
		}
	}
}

func TestFileStream(t *testing.T) {
	file := []byte("xxxxstream data here")
	dict := pdfobj.NewDictionary(map[string]pdfobj.Handle{"Length": pdfobj.NewInteger(11)})
	h, err := pdfobj.NewFileStream(dict, bytes.NewReader(file), 4, 11)
	if err != nil {
		t.Fatal(err)
	}
	data, err := h.StreamData()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "stream data" {
		t.Errorf("got %q", data)
	}

	h, _ = pdfobj.NewFileStream(dict, bytes.NewReader(file), 15, 10)
	if _, err := h.StreamData(); err == nil {
		t.Error("short read not detected")
	}
	h, _ = pdfobj.NewFileStream(dict, failingReaderAt{}, 0, 3)
	if _, err := h.RawStreamData(); err == nil {
		t.Error("read error not reported")
	}
	if _, err := pdfobj.NewFileStream(dict, failingReaderAt{}, -1, 3); err == nil {
		t.Error("negative offset accepted")
	}
	if _, err := pdfobj.NewFileStream(pdfobj.NewArray(), failingReaderAt{}, 0, 3); !errors.Is(err, pdfobj.ErrTypeMismatch) {
		t.Errorf("array as stream dictionary: got %v", err)
	}
}

func TestReplaceStreamData(t *testing.T) {
	doc := pdfobj.NewDocument(nil)
	h := newStream(t, doc, pdfobj.NewName("FlateDecode"), encode(t, "FlateDecode", []byte("old")))
	dict, _ := h.Dict()
	dict.ReplaceKey("DecodeParms", pdfobj.NewDictionary(map[string]pdfobj.Handle{"Predictor": pdfobj.NewInteger(1)}))

	enc := encode(t, "ASCIIHexDecode", []byte("new data"))
	if err := h.ReplaceStreamData(enc, pdfobj.NewName("AHx"), pdfobj.NewNull()); err != nil {
		t.Fatal(err)
	}

	if f, _ := dict.Key("Filter"); !f.IsOrHasName("AHx") {
		t.Errorf("/Filter = %s", f)
	}
	if ok, _ := dict.HasKey("DecodeParms"); ok {
		t.Error("/DecodeParms not removed")
	}
	length, _ := dict.Key("Length")
	if n, _ := length.IntValue(); n != int64(len(enc)) {
		t.Errorf("/Length = %d, want %d", n, len(enc))
	}
	data, err := h.StreamData()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new data" {
		t.Errorf("got %q", data)
	}

	if err := h.ReplaceStreamData([]byte("plain"), pdfobj.NewArray(), pdfobj.Handle{}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := dict.HasKey("Filter"); ok {
		t.Error("empty filter array not removed")
	}
	if data, _ := h.StreamData(); string(data) != "plain" {
		t.Errorf("got %q", data)
	}

	// empty decode parameters are removed as well
	if err := h.ReplaceStreamData([]byte("plain"), pdfobj.Handle{}, pdfobj.NewDictionary(nil)); err != nil {
		t.Fatal(err)
	}
	if ok, _ := dict.HasKey("DecodeParms"); ok {
		t.Error("empty /DecodeParms dictionary not removed")
	}
	if data, _ := h.StreamData(); string(data) != "plain" {
		t.Errorf("got %q", data)
	}

	if err := pdfobj.NewInteger(1).ReplaceStreamData(nil, pdfobj.Handle{}, pdfobj.Handle{}); !errors.Is(err, pdfobj.ErrTypeMismatch) {
		t.Errorf("ReplaceStreamData on integer: got %v", err)
	}
}

// countingFilter passes data through and counts the calls to Decode.
type countingFilter struct {
	calls *atomic.Int32
}

func (countingFilter) Check(filter.Params) error { return nil }

func (f countingFilter) Decode(r io.Reader, _ filter.Params) (io.ReadCloser, error) {
	f.calls.Add(1)
	return io.NopCloser(r), nil
}

func TestDecodedCache(t *testing.T) {
	for _, size := range []int{0, 4} {
		var calls atomic.Int32
		reg := filter.Default()
		reg.Register(countingFilter{&calls}, "Count")
		doc := pdfobj.NewDocument(&pdfobj.Options{Filters: reg, DecodedCacheSize: size})
		h := newStream(t, doc, pdfobj.NewName("Count"), []byte("abc"))

		h.StreamData()
		h.StreamData()
		want := int32(2)
		if size > 0 {
			want = 1
		}
		if calls.Load() != want {
			t.Errorf("size %d: %d decode calls, want %d", size, calls.Load(), want)
		}
		if size == 0 {
			continue
		}

		// changed parameters invalidate the cached data
		dict, _ := h.Dict()
		dict.ReplaceKey("DecodeParms", pdfobj.NewDictionary(map[string]pdfobj.Handle{"X": pdfobj.NewInteger(1)}))
		h.StreamData()
		if calls.Load() != 2 {
			t.Errorf("%d decode calls after changing /DecodeParms", calls.Load())
		}

		// so does new data
		h.ReplaceStreamData([]byte("xyz"), pdfobj.NewName("Count"), pdfobj.Handle{})
		data, _ := h.StreamData()
		if calls.Load() != 3 || string(data) != "xyz" {
			t.Errorf("%d decode calls after ReplaceStreamData, data %q", calls.Load(), data)
		}
	}
}
