// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package serializer provides the typed byte-buffer encoding used for every
// domain value in godcoin: blocks, transactions, accounts, and scripts all
// round-trip through a Writer/Reader pair rather than encoding/gob or JSON.
//
// All multi-byte integers are big-endian. Every Take* method fails with
// ErrUnexpectedEOF when the remaining buffer is too short; there is no
// silent truncation.
package serializer

import (
	"encoding/binary"
	"errors"
)

// ErrUnexpectedEOF is returned by every Take* method when fewer bytes remain
// in the buffer than the value being decoded requires.
var ErrUnexpectedEOF = errors.New("serializer: unexpected eof")

// Writer accumulates a byte-exact encoding of domain values. The zero value
// is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity preallocated.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated buffer. The caller must not modify it.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// PutBytes appends raw bytes with no length prefix.
func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutU8 appends a single byte.
func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

// PutU16 appends a big-endian uint16.
func (w *Writer) PutU16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutU32 appends a big-endian uint32.
func (w *Writer) PutU32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutU64 appends a big-endian uint64.
func (w *Writer) PutU64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutI64 appends a big-endian int64.
func (w *Writer) PutI64(v int64) {
	w.PutU64(uint64(v))
}

// PutVarBytes appends a u32-length-prefixed byte string.
func (w *Writer) PutVarBytes(b []byte) {
	w.PutU32(uint32(len(b)))
	w.PutBytes(b)
}

// Reader is a forward-only cursor over a byte slice. It never copies the
// underlying slice and never panics; every accessor reports ErrUnexpectedEOF
// instead of indexing past the end.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// TakeBytes returns the next n raw bytes.
func (r *Reader) TakeBytes(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// TakeU8 decodes the next byte.
func (r *Reader) TakeU8() (uint8, error) {
	b, err := r.TakeBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// TakeU16 decodes the next big-endian uint16.
func (r *Reader) TakeU16() (uint16, error) {
	b, err := r.TakeBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// TakeU32 decodes the next big-endian uint32.
func (r *Reader) TakeU32() (uint32, error) {
	b, err := r.TakeBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// TakeU64 decodes the next big-endian uint64.
func (r *Reader) TakeU64() (uint64, error) {
	b, err := r.TakeBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// TakeI64 decodes the next big-endian int64.
func (r *Reader) TakeI64() (int64, error) {
	v, err := r.TakeU64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// TakeVarBytes decodes a u32-length-prefixed byte string.
func (r *Reader) TakeVarBytes() ([]byte, error) {
	n, err := r.TakeU32()
	if err != nil {
		return nil, err
	}
	return r.TakeBytes(int(n))
}
