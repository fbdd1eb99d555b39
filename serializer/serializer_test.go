// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package serializer

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(0)
	w.PutU8(0xAB)
	w.PutU16(0x1234)
	w.PutU32(0xDEADBEEF)
	w.PutU64(0x0102030405060708)
	w.PutI64(-1)
	w.PutVarBytes([]byte("hello"))
	w.PutBytes([]byte{1, 2, 3})

	r := NewReader(w.Bytes())

	u8, err := r.TakeU8()
	if err != nil || u8 != 0xAB {
		t.Fatalf("TakeU8 = %v, %v, want 0xAB, nil", u8, err)
	}
	u16, err := r.TakeU16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("TakeU16 = %v, %v, want 0x1234, nil", u16, err)
	}
	u32, err := r.TakeU32()
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("TakeU32 = %v, %v, want 0xDEADBEEF, nil", u32, err)
	}
	u64, err := r.TakeU64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("TakeU64 = %v, %v, want 0x0102030405060708, nil", u64, err)
	}
	i64, err := r.TakeI64()
	if err != nil || i64 != -1 {
		t.Fatalf("TakeI64 = %v, %v, want -1, nil", i64, err)
	}
	vb, err := r.TakeVarBytes()
	if err != nil || !bytes.Equal(vb, []byte("hello")) {
		t.Fatalf("TakeVarBytes = %q, %v, want %q, nil", vb, err, "hello")
	}
	raw, err := r.TakeBytes(3)
	if err != nil || !bytes.Equal(raw, []byte{1, 2, 3}) {
		t.Fatalf("TakeBytes = %v, %v, want [1 2 3], nil", raw, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.TakeU32(); err != ErrUnexpectedEOF {
		t.Fatalf("TakeU32 on short buffer = %v, want ErrUnexpectedEOF", err)
	}
	if _, err := r.TakeBytes(10); err != ErrUnexpectedEOF {
		t.Fatalf("TakeBytes(10) on short buffer = %v, want ErrUnexpectedEOF", err)
	}
}

func TestTakeVarBytesRejectsTruncatedPayload(t *testing.T) {
	w := NewWriter(0)
	w.PutU32(100)
	w.PutBytes([]byte("short"))

	r := NewReader(w.Bytes())
	if _, err := r.TakeVarBytes(); err != ErrUnexpectedEOF {
		t.Fatalf("TakeVarBytes on truncated payload = %v, want ErrUnexpectedEOF", err)
	}
}
