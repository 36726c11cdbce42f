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

// Package pdfobj implements the object model of PDF files.
//
// A [Handle] refers to one PDF object.  Direct objects are constructed
// using functions like [NewInteger] or [NewDictionary], indirect objects
// live in a [Document] and are identified by a [Reference]:
//
//	doc := pdfobj.NewDocument(nil)
//	page, err := doc.Add(pdfobj.NewDictionary(map[string]pdfobj.Handle{
//	    "Type": pdfobj.NewName("Page"),
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = page.ReplaceKey("Rotate", pdfobj.NewInteger(90))
//
// Objects of a Document are loaded on demand using a [Loader], which
// typically parses a PDF file.  Indirect handles are resolved on first
// use, so that handles for all objects of a file can be created cheaply.
//
// The data of stream objects is decoded using the filters in the
// [seehuhn.de/go/pdfobj/filter] package.  A [StreamDataProvider] can be
// used to compute stream data when it is needed.
//
// Dictionary keys and names are given without the leading slash.
package pdfobj
