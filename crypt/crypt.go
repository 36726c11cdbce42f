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

// Package crypt implements the PDF standard security handler.
//
// A [Handler] decrypts the strings and streams of an encrypted PDF file.
// It implements [pdfobj.Decrypter], so that it can be installed in
// [pdfobj.Options] to decrypt file-backed stream data on first access.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rc4"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/pdfobj"
)

var (
	// ErrInvalidPassword indicates a password which cannot be represented
	// in the encoding required by the security handler.
	ErrInvalidPassword = errors.New("crypt: invalid password")

	// ErrCorrupted indicates encrypted data with invalid length or padding.
	ErrCorrupted = errors.New("crypt: corrupted ciphertext")

	// ErrUnsupported indicates an Encrypt dictionary this package cannot
	// handle.
	ErrUnsupported = errors.New("crypt: unsupported encryption")
)

// AuthenticationError is returned when a password does not match the
// Encrypt dictionary.
type AuthenticationError struct {
	ID []byte
}

func (err *AuthenticationError) Error() string {
	return fmt.Sprintf("crypt: authentication failed for document %x", err.ID)
}

// Cipher selects the encryption method used by [New].
type Cipher int

// These are the supported encryption methods.
const (
	RC4_40 Cipher = iota + 1
	RC4_128
	AES_128
	AES_256
)

func (c Cipher) String() string {
	switch c {
	case RC4_40:
		return "RC4-40"
	case RC4_128:
		return "RC4-128"
	case AES_128:
		return "AES-128"
	case AES_256:
		return "AES-256"
	default:
		return fmt.Sprintf("Cipher(%d)", int(c))
	}
}

// cryptFilter describes how one class of data is encrypted.
// A nil *cryptFilter stands for the Identity filter.
type cryptFilter struct {
	aes  bool
	bits int
}

// Handler encrypts and decrypts data using the standard security handler.
type Handler struct {
	v    int
	sec  *standard
	stm  *cryptFilter
	str  *cryptFilter
	perm Perm
}

var _ pdfobj.Decrypter = (*Handler)(nil)

// Open reads an Encrypt dictionary and authenticates the password,
// first as the owner password and then as the user password.
// The id argument is the first element of the file's ID array.
func Open(encrypt pdfobj.Handle, id []byte, password string) (*Handler, error) {
	if !encrypt.IsDictionary() {
		return nil, fmt.Errorf("%w: Encrypt is not a dictionary", ErrUnsupported)
	}
	if f, _ := nameEntry(encrypt, "Filter"); f != "Standard" {
		return nil, fmt.Errorf("%w: Filter %q", ErrUnsupported, f)
	}

	v, _ := intEntry(encrypt, "V")
	h := &Handler{v: int(v)}
	var keyBytes int
	switch v {
	case 1, 2, 3:
		bits := int64(40)
		if l, ok := intEntry(encrypt, "Length"); ok && v > 1 {
			bits = l
		}
		if bits < 40 || bits > 128 || bits%8 != 0 {
			return nil, fmt.Errorf("%w: Length %d", ErrUnsupported, bits)
		}
		cf := &cryptFilter{bits: int(bits)}
		h.stm, h.str = cf, cf
		keyBytes = int(bits / 8)
	case 4, 5:
		cfDict, _ := encrypt.Key("CF")
		var err error
		h.stm, err = lookupCryptFilter(encrypt, "StmF", cfDict)
		if err != nil {
			return nil, err
		}
		h.str, err = lookupCryptFilter(encrypt, "StrF", cfDict)
		if err != nil {
			return nil, err
		}
		keyBytes = 16
		if v == 5 {
			keyBytes = 32
		}
	default:
		return nil, fmt.Errorf("%w: V %d", ErrUnsupported, v)
	}

	sec, err := readStandard(encrypt, id, keyBytes, v)
	if err != nil {
		return nil, err
	}
	if err := sec.authenticate(password); err != nil {
		return nil, err
	}
	h.sec = sec
	h.perm = permFromP(sec.r, sec.p)
	return h, nil
}

func readStandard(encrypt pdfobj.Handle, id []byte, keyBytes int, v int64) (*standard, error) {
	r, _ := intEntry(encrypt, "R")
	if r < 2 || r == 5 || r > 6 {
		return nil, fmt.Errorf("%w: R %d", ErrUnsupported, r)
	}
	n := 32
	if r == 6 {
		n = 48
	}

	sec := &standard{
		r:               int(r),
		id:              id,
		keyBytes:        keyBytes,
		encryptMetadata: true,
	}
	var ok bool
	if sec.o, ok = stringEntry(encrypt, "O", n); !ok {
		return nil, errors.New("crypt: invalid Encrypt.O")
	}
	if sec.u, ok = stringEntry(encrypt, "U", n); !ok {
		return nil, errors.New("crypt: invalid Encrypt.U")
	}
	p, ok := intEntry(encrypt, "P")
	if !ok {
		return nil, errors.New("crypt: invalid Encrypt.P")
	}
	sec.p = uint32(p)
	if v >= 4 {
		if emd, err := encrypt.Key("EncryptMetadata"); err == nil && emd.IsBool() {
			sec.encryptMetadata, _ = emd.BoolValue()
		}
	}

	if r == 6 {
		if sec.oe, ok = stringEntry(encrypt, "OE", 32); !ok {
			return nil, errors.New("crypt: invalid Encrypt.OE")
		}
		if sec.ue, ok = stringEntry(encrypt, "UE", 32); !ok {
			return nil, errors.New("crypt: invalid Encrypt.UE")
		}
		if sec.perms, ok = stringEntry(encrypt, "Perms", 16); !ok {
			return nil, errors.New("crypt: invalid Encrypt.Perms")
		}
	}
	return sec, nil
}

func lookupCryptFilter(encrypt pdfobj.Handle, key string, cfDict pdfobj.Handle) (*cryptFilter, error) {
	name, ok := nameEntry(encrypt, key)
	if !ok || name == "Identity" {
		return nil, nil
	}
	entry, err := cfDict.Key(name)
	if err != nil || !entry.IsDictionary() {
		return nil, fmt.Errorf("%w: crypt filter %q for %s", ErrUnsupported, name, key)
	}
	cfm, _ := nameEntry(entry, "CFM")
	switch cfm {
	case "V2":
		return &cryptFilter{bits: 128}, nil
	case "AESV2":
		return &cryptFilter{aes: true, bits: 128}, nil
	case "AESV3":
		return &cryptFilter{aes: true, bits: 256}, nil
	default:
		return nil, fmt.Errorf("%w: crypt filter method %q", ErrUnsupported, cfm)
	}
}

// New creates a pre-authenticated handler for writing an encrypted file.
// If ownerPwd is empty, the user password is used for both.
func New(id []byte, userPwd, ownerPwd string, perm Perm, c Cipher) (*Handler, error) {
	if ownerPwd == "" {
		ownerPwd = userPwd
	}

	sec := &standard{
		id:              id,
		p:               pFromPerm(perm),
		encryptMetadata: true,
		owner:           true,
	}
	h := &Handler{sec: sec}
	switch c {
	case RC4_40:
		h.v, sec.r = 1, 2
		if !perm.fitsR2() {
			h.v, sec.r = 2, 3
		}
		sec.keyBytes = 5
		h.stm = &cryptFilter{bits: 40}
	case RC4_128:
		h.v, sec.r, sec.keyBytes = 2, 3, 16
		h.stm = &cryptFilter{bits: 128}
	case AES_128:
		h.v, sec.r, sec.keyBytes = 4, 4, 16
		h.stm = &cryptFilter{aes: true, bits: 128}
	case AES_256:
		h.v, sec.r, sec.keyBytes = 5, 6, 32
		h.stm = &cryptFilter{aes: true, bits: 256}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, c)
	}
	h.str = h.stm

	if sec.r == 6 {
		user, err := prepPassword(userPwd)
		if err != nil {
			return nil, err
		}
		owner, err := prepPassword(ownerPwd)
		if err != nil {
			return nil, err
		}
		sec.key = make([]byte, 32)
		if _, err := rand.Read(sec.key); err != nil {
			return nil, err
		}
		if sec.u, sec.ue, err = sec.sealKey(user, nil); err != nil {
			return nil, err
		}
		if sec.o, sec.oe, err = sec.sealKey(owner, sec.u); err != nil {
			return nil, err
		}
		sec.perms = sec.computePerms()
	} else {
		user, err := padPassword(userPwd)
		if err != nil {
			return nil, err
		}
		owner, err := padPassword(ownerPwd)
		if err != nil {
			return nil, err
		}
		sec.o = sec.computeO(user, owner)
		sec.key = sec.fileKey(user)
		sec.u = sec.computeU(sec.key)
	}

	h.perm = permFromP(sec.r, sec.p)
	return h, nil
}

// EncryptDict returns a new Encrypt dictionary describing h.
func (h *Handler) EncryptDict() pdfobj.Handle {
	sec := h.sec
	d := map[string]pdfobj.Handle{
		"Filter": pdfobj.NewName("Standard"),
		"V":      pdfobj.NewInteger(int64(h.v)),
		"R":      pdfobj.NewInteger(int64(sec.r)),
		"O":      pdfobj.NewString(string(sec.o)),
		"U":      pdfobj.NewString(string(sec.u)),
		"P":      pdfobj.NewInteger(int64(int32(sec.p))),
	}
	if h.v == 2 || h.v == 3 {
		d["Length"] = pdfobj.NewInteger(int64(8 * sec.keyBytes))
	}
	if h.v >= 4 {
		d["Length"] = pdfobj.NewInteger(int64(8 * sec.keyBytes))
		d["StmF"] = filterName(h.stm)
		d["StrF"] = filterName(h.str)
		if cf := h.stm; cf != nil {
			cfm := "V2"
			switch {
			case cf.aes && cf.bits == 256:
				cfm = "AESV3"
			case cf.aes:
				cfm = "AESV2"
			}
			d["CF"] = pdfobj.NewDictionary(map[string]pdfobj.Handle{
				"StdCF": pdfobj.NewDictionary(map[string]pdfobj.Handle{
					"CFM":       pdfobj.NewName(cfm),
					"AuthEvent": pdfobj.NewName("DocOpen"),
					"Length":    pdfobj.NewInteger(int64(cf.bits / 8)),
				}),
			})
		}
		if !sec.encryptMetadata {
			d["EncryptMetadata"] = pdfobj.NewBool(false)
		}
	}
	if sec.r == 6 {
		d["OE"] = pdfobj.NewString(string(sec.oe))
		d["UE"] = pdfobj.NewString(string(sec.ue))
		d["Perms"] = pdfobj.NewString(string(sec.perms))
	}
	return pdfobj.NewDictionary(d)
}

func filterName(cf *cryptFilter) pdfobj.Handle {
	if cf == nil {
		return pdfobj.NewName("Identity")
	}
	return pdfobj.NewName("StdCF")
}

// Permissions returns the operations allowed with user access.
func (h *Handler) Permissions() Perm {
	return h.perm
}

// OwnerAuthenticated reports whether the owner password was supplied.
func (h *Handler) OwnerAuthenticated() bool {
	return h.sec.owner
}

// EncryptBytes encrypts a string belonging to the object ref.
func (h *Handler) EncryptBytes(ref pdfobj.Reference, buf []byte) ([]byte, error) {
	return h.encrypt(h.str, ref, buf)
}

// DecryptBytes decrypts a string belonging to the object ref.
func (h *Handler) DecryptBytes(ref pdfobj.Reference, buf []byte) ([]byte, error) {
	return h.decrypt(h.str, ref, buf)
}

// DecryptStream returns a reader for the decrypted contents of the stream
// ref.
func (h *Handler) DecryptStream(ref pdfobj.Reference, r io.Reader) (io.Reader, error) {
	if h.stm == nil {
		return r, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	plain, err := h.decrypt(h.stm, ref, data)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(plain), nil
}

// EncryptStream returns a writer which encrypts the data for the stream
// ref and writes it to w.  The encrypted data is written when the returned
// writer is closed, and closing it also closes w.
func (h *Handler) EncryptStream(ref pdfobj.Reference, w io.WriteCloser) (io.WriteCloser, error) {
	if h.stm == nil {
		return w, nil
	}
	return &encryptWriter{h: h, ref: ref, w: w}, nil
}

func (h *Handler) encrypt(cf *cryptFilter, ref pdfobj.Reference, plain []byte) ([]byte, error) {
	if cf == nil {
		return bytes.Clone(plain), nil
	}
	key := h.sec.objectKey(ref, cf.aes)

	if !cf.aes {
		out := make([]byte, len(plain))
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(out, plain)
		return out, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	pad := aes.BlockSize - len(plain)%aes.BlockSize
	out := make([]byte, aes.BlockSize+len(plain)+pad)
	iv := out[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	body := out[aes.BlockSize:]
	copy(body, plain)
	for i := len(plain); i < len(body); i++ {
		body[i] = byte(pad)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(body, body)
	return out, nil
}

func (h *Handler) decrypt(cf *cryptFilter, ref pdfobj.Reference, data []byte) ([]byte, error) {
	if cf == nil {
		return bytes.Clone(data), nil
	}
	key := h.sec.objectKey(ref, cf.aes)

	if !cf.aes {
		out := make([]byte, len(data))
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(out, data)
		return out, nil
	}

	if len(data) < 2*aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return nil, ErrCorrupted
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := bytes.Clone(data[aes.BlockSize:])
	cipher.NewCBCDecrypter(block, data[:aes.BlockSize]).CryptBlocks(out, out)
	pad := int(out[len(out)-1])
	if pad < 1 || pad > aes.BlockSize {
		return nil, ErrCorrupted
	}
	return out[:len(out)-pad], nil
}

type encryptWriter struct {
	h   *Handler
	ref pdfobj.Reference
	w   io.WriteCloser
	buf bytes.Buffer
}

func (w *encryptWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *encryptWriter) Close() error {
	out, err := w.h.encrypt(w.h.stm, w.ref, w.buf.Bytes())
	if err != nil {
		return err
	}
	if _, err := w.w.Write(out); err != nil {
		return err
	}
	return w.w.Close()
}

func intEntry(d pdfobj.Handle, key string) (int64, bool) {
	v, err := d.Key(key)
	if err != nil {
		return 0, false
	}
	x, err := v.IntValue()
	return x, err == nil
}

func nameEntry(d pdfobj.Handle, key string) (string, bool) {
	v, err := d.Key(key)
	if err != nil {
		return "", false
	}
	n, err := v.Name()
	return n, err == nil
}

// stringEntry returns the value of a string entry which must have
// exactly n bytes.
func stringEntry(d pdfobj.Handle, key string, n int) ([]byte, bool) {
	v, err := d.Key(key)
	if err != nil {
		return nil, false
	}
	s, err := v.StringValue()
	if err != nil || len(s) != n {
		return nil, false
	}
	return []byte(s), true
}
