// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/serializer"
)

// DefaultFnID is the function id the engine resolves for an ordinary spend
// when no other entry point is named.
const DefaultFnID uint8 = 0x00

// fnHeaderEntrySize is the encoded size of one (fn_id, offset) header entry:
// one byte for the id, four for the big-endian u32 offset.
const fnHeaderEntrySize = 5

// Script is the opaque, bounded byte string a script-hash address commits
// to: a one-byte function-count header, a table of (fn_id, offset) entries,
// then the function bodies themselves.
type Script struct {
	bytecode []byte
}

// New wraps raw bytecode as a Script. It does not validate the header table;
// use Validate for that.
func New(bytecode []byte) Script {
	return Script{bytecode: bytecode}
}

// Bytes returns the raw encoded script.
func (s Script) Bytes() []byte {
	return s.bytecode
}

// Len returns the encoded byte length.
func (s Script) Len() int {
	return len(s.bytecode)
}

// Validate reports whether the script is within the size bound spec.md §4.3
// requires.
func (s Script) Validate() error {
	if len(s.bytecode) > chaincfg.MaxScriptByteSize {
		return newEvalErr(0, ErrScriptTooLarge)
	}
	return nil
}

// GetFnPtr resolves fnID via the header table to a byte offset into the
// script. It returns found=false (not an error) when no function with that
// id exists, so callers can surface ErrUnknownOp with the right call-site
// context.
func (s Script) GetFnPtr(fnID uint8) (offset uint32, found bool, err error) {
	r := serializer.NewReader(s.bytecode)
	fnCount, err := r.TakeU8()
	if err != nil {
		return 0, false, newEvalErr(0, ErrUnexpectedEOF)
	}
	for i := 0; i < int(fnCount); i++ {
		headerID, err := r.TakeU8()
		if err != nil {
			return 0, false, newEvalErr(1+i*fnHeaderEntrySize, ErrUnexpectedEOF)
		}
		off, err := r.TakeU32()
		if err != nil {
			return 0, false, newEvalErr(1+i*fnHeaderEntrySize+1, ErrUnexpectedEOF)
		}
		if headerID == fnID {
			return off, true, nil
		}
	}
	return 0, false, nil
}
