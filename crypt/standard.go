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

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"

	"github.com/xdg-go/stringprep"

	"seehuhn.de/go/pdfobj"
)

// standard holds the state of the PDF standard security handler.
type standard struct {
	r        int // revision: 2, 3, 4 or 6
	id       []byte
	o, u     []byte
	oe, ue   []byte
	perms    []byte
	p        uint32
	keyBytes int

	// encryptMetadata is false if the XMP metadata stream is left in
	// plain text.
	encryptMetadata bool

	key   []byte // file encryption key, nil until authenticated
	owner bool
}

// authenticate tries passwd first as the owner and then as the user
// password.
func (s *standard) authenticate(passwd string) error {
	if s.r == 6 {
		pw, err := prepPassword(passwd)
		if err != nil {
			return err
		}
		if s.authOwner6(pw) || s.authUser6(pw) {
			return nil
		}
		return &AuthenticationError{ID: s.id}
	}

	pw, err := padPassword(passwd)
	if err != nil {
		return err
	}
	if s.authOwner(pw) || s.authUser(pw) {
		return nil
	}
	return &AuthenticationError{ID: s.id}
}

// objectKey derives the key used for strings and streams of the object
// ref.  Revision 6 uses the file key directly.
func (s *standard) objectKey(ref pdfobj.Reference, useAES bool) []byte {
	if s.r == 6 {
		return s.key
	}

	h := md5.New()
	h.Write(s.key)
	num, gen := ref.Number(), ref.Generation()
	h.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16), byte(gen), byte(gen >> 8)})
	if useAES {
		h.Write([]byte("sAlT"))
	}
	return h.Sum(nil)[:min(s.keyBytes+5, 16)]
}

// fileKey computes the file encryption key from a padded user password,
// for revisions 2 to 4.
func (s *standard) fileKey(padded []byte) []byte {
	h := md5.New()
	h.Write(padded)
	h.Write(s.o)
	h.Write(binary.LittleEndian.AppendUint32(nil, s.p))
	h.Write(s.id)
	if s.r >= 4 && !s.encryptMetadata {
		h.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	}
	key := h.Sum(nil)
	if s.r >= 3 {
		for range 50 {
			h.Reset()
			h.Write(key[:s.keyBytes])
			key = h.Sum(key[:0])
		}
	}
	return key[:s.keyBytes]
}

// ownerRC4Key derives the RC4 key used to encrypt the O entry.
func (s *standard) ownerRC4Key(padded []byte) []byte {
	sum := md5.Sum(padded)
	key := sum[:]
	if s.r >= 3 {
		for range 50 {
			sum = md5.Sum(key[:s.keyBytes])
			key = sum[:]
		}
	}
	return key[:s.keyBytes]
}

// rc4Rounds applies RC4 with the keys key^i for the given i values.
func rc4Rounds(buf, key []byte, rounds ...byte) {
	tmp := make([]byte, len(key))
	for _, i := range rounds {
		for j := range tmp {
			tmp[j] = key[j] ^ i
		}
		c, _ := rc4.NewCipher(tmp)
		c.XORKeyStream(buf, buf)
	}
}

var up19, down19 []byte

func init() {
	for i := byte(1); i <= 19; i++ {
		up19 = append(up19, i)
	}
	for i := 19; i >= 0; i-- {
		down19 = append(down19, byte(i))
	}
}

func (s *standard) computeO(paddedUser, paddedOwner []byte) []byte {
	key := s.ownerRC4Key(paddedOwner)
	o := bytes.Clone(paddedUser)
	c, _ := rc4.NewCipher(key)
	c.XORKeyStream(o, o)
	if s.r >= 3 {
		rc4Rounds(o, key, up19...)
	}
	return o
}

func (s *standard) computeU(key []byte) []byte {
	if s.r == 2 {
		u := make([]byte, 32)
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(u, passwordPad)
		return u
	}

	h := md5.New()
	h.Write(passwordPad)
	h.Write(s.id)
	u := h.Sum(nil)
	c, _ := rc4.NewCipher(key)
	c.XORKeyStream(u, u)
	rc4Rounds(u, key, up19...)
	// the second half is arbitrary padding
	return append(u, make([]byte, 16)...)
}

func (s *standard) authUser(padded []byte) bool {
	key := s.fileKey(padded)
	u := s.computeU(key)
	n := 32
	if s.r >= 3 {
		n = 16
	}
	if !bytes.Equal(u[:n], s.u[:n]) {
		return false
	}
	s.key = key
	return true
}

func (s *standard) authOwner(padded []byte) bool {
	key := s.ownerRC4Key(padded)
	user := bytes.Clone(s.o)
	if s.r == 2 {
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(user, user)
	} else {
		rc4Rounds(user, key, down19...)
	}
	if !s.authUser(user) {
		return false
	}
	s.owner = true
	return true
}

// hash6 is the iterated hash used by revision 6.  The udata argument is
// the 48-byte U entry when computing owner values and nil otherwise.
func hash6(passwd, salt, udata []byte) []byte {
	h := sha256.New()
	h.Write(passwd)
	h.Write(salt)
	h.Write(udata)
	k := h.Sum(nil)

	k1 := make([]byte, 0, 64*(len(passwd)+64+len(udata)))
	for round := 0; round < 64 || int(k1[len(k1)-1]) > round-32; round++ {
		k1 = k1[:0]
		for range 64 {
			k1 = append(k1, passwd...)
			k1 = append(k1, k...)
			k1 = append(k1, udata...)
		}

		block, _ := aes.NewCipher(k[:16])
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(k1, k1)

		// 256 = 1 (mod 3), so the big-endian remainder is the byte sum mod 3
		sum := 0
		for _, b := range k1[:16] {
			sum += int(b)
		}
		var next hash.Hash
		switch sum % 3 {
		case 0:
			next = sha256.New()
		case 1:
			next = sha512.New384()
		default:
			next = sha512.New()
		}
		next.Write(k1)
		k = next.Sum(k[:0])
	}
	return k[:32]
}

// sealKey computes a validation entry (U or O) together with the
// encrypted copy of the file key (UE or OE).
func (s *standard) sealKey(passwd, udata []byte) (entry, sealed []byte, err error) {
	salts := make([]byte, 16)
	if _, err := rand.Read(salts); err != nil {
		return nil, nil, err
	}

	entry = append(hash6(passwd, salts[:8], udata), salts...)

	block, _ := aes.NewCipher(hash6(passwd, salts[8:], udata))
	sealed = make([]byte, 32)
	cipher.NewCBCEncrypter(block, zeroIV).CryptBlocks(sealed, s.key)
	return entry, sealed, nil
}

// unsealKey validates passwd against entry and recovers the file key.
func (s *standard) unsealKey(passwd, entry, sealed, udata []byte) bool {
	if !bytes.Equal(hash6(passwd, entry[32:40], udata), entry[:32]) {
		return false
	}
	block, _ := aes.NewCipher(hash6(passwd, entry[40:48], udata))
	key := make([]byte, 32)
	cipher.NewCBCDecrypter(block, zeroIV).CryptBlocks(key, sealed)
	if !s.checkPerms(key) {
		return false
	}
	s.key = key
	return true
}

func (s *standard) authUser6(passwd []byte) bool {
	return s.unsealKey(passwd, s.u, s.ue, nil)
}

func (s *standard) authOwner6(passwd []byte) bool {
	if !s.unsealKey(passwd, s.o, s.oe, s.u) {
		return false
	}
	s.owner = true
	return true
}

func (s *standard) metadataFlag() byte {
	if s.encryptMetadata {
		return 'T'
	}
	return 'F'
}

func (s *standard) computePerms() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf, s.p)
	copy(buf[4:], []byte{0xFF, 0xFF, 0xFF, 0xFF, s.metadataFlag(), 'a', 'd', 'b'})
	block, _ := aes.NewCipher(s.key)
	block.Encrypt(buf, buf)
	return buf
}

func (s *standard) checkPerms(key []byte) bool {
	buf := make([]byte, 16)
	block, _ := aes.NewCipher(key)
	block.Decrypt(buf, s.perms)
	return string(buf[9:12]) == "adb" &&
		binary.LittleEndian.Uint32(buf) == s.p &&
		buf[8] == s.metadataFlag()
}

// prepPassword normalizes a revision 6 password using SASLprep.
func prepPassword(passwd string) ([]byte, error) {
	prepped, err := stringprep.SASLprep.Prepare(passwd)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	buf := []byte(prepped)
	if len(buf) > 127 {
		buf = buf[:127]
	}
	return buf, nil
}

// padPassword converts a password for revisions 2 to 4 into the padded
// 32-byte form.
func padPassword(passwd string) ([]byte, error) {
	buf, ok := pdfobj.PDFDocEncode(passwd)
	if !ok {
		return nil, ErrInvalidPassword
	}
	padded := make([]byte, 32)
	n := copy(padded, buf)
	copy(padded[n:], passwordPad)
	return padded, nil
}

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

var zeroIV = make([]byte, 16)
