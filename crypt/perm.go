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


package crypt

// Perm describes which operations are permitted when a document is opened
// with the user password.  The user can always view the document.
//
// The permissions are reported as recorded in the Encrypt dictionary.
// Enforcing them is up to the caller.
type Perm int

const (
	// PermCopy allows to extract text and graphics.
	PermCopy Perm = 1 << iota

	// PermPrintDegraded allows printing at possibly degraded quality.
	PermPrintDegraded

	// PermPrint allows faithful printing.  This implies PermPrintDegraded.
	PermPrint

	// PermForms allows to fill in form fields, including signature fields.
	PermForms

	// PermAnnotate allows to add or modify annotations.  This implies
	// PermForms.
	PermAnnotate

	// PermAssemble allows to insert, rotate, or delete pages and to create
	// bookmarks or thumbnail images.
	PermAssemble

	// PermModify allows to modify the document.  This implies PermAssemble.
	PermModify

	permEnd

	// PermAll grants every permission.
	PermAll = permEnd - 1
)

// P bit positions, counted from 1 as in the PDF file format.
const (
	bitPrint     = 1 << (3 - 1)
	bitModify    = 1 << (4 - 1)
	bitCopy      = 1 << (5 - 1)
	bitAnnotate  = 1 << (6 - 1)
	bitForms     = 1 << (9 - 1)
	bitAssemble  = 1 << (11 - 1)
	bitPrintHigh = 1 << (12 - 1)
)

// fitsR2 reports whether the permissions can be expressed by revision 2
// of the standard security handler.
func (perm Perm) fitsR2() bool {
	switch {
	case perm&PermPrint == 0 && perm&PermPrintDegraded != 0:
		return false
	case perm&PermAnnotate == 0 && perm&PermForms != 0:
		return false
	case perm&PermModify == 0 && perm&PermAssemble != 0:
		return false
	}
	return true
}

// permFromP decodes the P entry of an Encrypt dictionary.
func permFromP(r int, p uint32) Perm {
	perm := PermAll

	switch {
	case r == 2 && p&bitPrint == 0:
		perm &^= PermPrint | PermPrintDegraded
	case r >= 3 && p&bitPrintHigh == 0:
		if p&bitPrint == 0 {
			perm &^= PermPrint | PermPrintDegraded
		} else {
			perm &^= PermPrint
		}
	}

	if p&bitModify == 0 {
		perm &^= PermModify
		if p&bitAssemble == 0 {
			perm &^= PermAssemble
		}
	}
	if p&bitCopy == 0 {
		perm &^= PermCopy
	}
	if p&bitAnnotate == 0 {
		perm &^= PermAnnotate
		if p&bitForms == 0 {
			perm &^= PermForms
		}
	}
	return perm
}

// pFromPerm encodes perm as the P entry of an Encrypt dictionary.
// Bits 1 and 2 must be zero, all unassigned bits are set.
func pFromPerm(perm Perm) uint32 {
	var deny uint32 = 3
	if perm&PermCopy == 0 {
		deny |= bitCopy
	}
	if perm&PermPrint == 0 {
		deny |= bitPrintHigh
		if perm&PermPrintDegraded == 0 {
			deny |= bitPrint
		}
	}
	if perm&PermAnnotate == 0 {
		deny |= bitAnnotate
		if perm&PermForms == 0 {
			deny |= bitForms
		}
	}
	if perm&PermAssemble == 0 {
		deny |= bitAssemble
	}
	if perm&PermModify == 0 {
		deny |= bitModify
	}
	return ^deny
}
