// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"errors"

	"github.com/godcoin-go/godcoin/chaincfg"
)

// ErrScriptByteSizeExceeded is returned by Builder.Build when the assembled
// script would exceed chaincfg.MaxScriptByteSize.
var ErrScriptByteSizeExceeded = errors.New("script: byte size exceeded")

// FnBuilder accumulates the bytecode for a single function entry point.
type FnBuilder struct {
	id   uint8
	code []byte
}

// NewFn starts building the function keyed by id (use DefaultFnID for the
// script's primary entry point).
func NewFn(id uint8) *FnBuilder {
	return &FnBuilder{id: id}
}

// PushFalse appends a PushFalse instruction.
func (b *FnBuilder) PushFalse() *FnBuilder {
	b.code = append(b.code, byte(OpPushFalse))
	return b
}

// PushTrue appends a PushTrue instruction.
func (b *FnBuilder) PushTrue() *FnBuilder {
	b.code = append(b.code, byte(OpPushTrue))
	return b
}

// PushPubKey appends a PushPubKey instruction carrying the key's 32 bytes.
func (b *FnBuilder) PushPubKey(keyBytes []byte) *FnBuilder {
	b.code = append(b.code, byte(OpPushPubKey))
	b.code = append(b.code, keyBytes...)
	return b
}

// PushAsset appends a PushAsset instruction carrying the asset's 9-byte
// encoding (i64 amount, u8 symbol).
func (b *FnBuilder) PushAsset(encoded []byte) *FnBuilder {
	b.code = append(b.code, byte(OpPushAsset))
	b.code = append(b.code, encoded...)
	return b
}

// PushAccountID appends a PushAccountID instruction carrying the id's 8
// bytes.
func (b *FnBuilder) PushAccountID(encoded []byte) *FnBuilder {
	b.code = append(b.code, byte(OpPushAccountID))
	b.code = append(b.code, encoded...)
	return b
}

// Op appends a zero-operand instruction (arithmetic, logic, OpReturn,
// OpCheckSig(FastFail), OpTransfer).
func (b *FnBuilder) Op(op Operand) *FnBuilder {
	b.code = append(b.code, byte(op))
	return b
}

// CheckMultiSig appends an OpCheckMultiSig (or fast-fail variant)
// instruction with its M-of-N operands.
func (b *FnBuilder) CheckMultiSig(fastFail bool, m, n uint8) *FnBuilder {
	op := OpCheckMultiSig
	if fastFail {
		op = OpCheckMultiSigFastFail
	}
	b.code = append(b.code, byte(op), m, n)
	return b
}

// Builder assembles a complete Script from one or more FnBuilders, writing
// the one-byte function-count header and (fn_id, offset) table ahead of the
// concatenated function bodies.
type Builder struct {
	fns []*FnBuilder
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Push adds a function to the script under construction.
func (b *Builder) Push(fn *FnBuilder) *Builder {
	b.fns = append(b.fns, fn)
	return b
}

// Build assembles the header table and function bodies into a Script,
// failing if the result would exceed chaincfg.MaxScriptByteSize.
func (b *Builder) Build() (Script, error) {
	headerSize := 1 + len(b.fns)*fnHeaderEntrySize
	bodyOffset := uint32(headerSize)

	var body []byte
	header := make([]byte, 0, headerSize)
	header = append(header, byte(len(b.fns)))

	for _, fn := range b.fns {
		offset := bodyOffset + uint32(len(body))
		header = append(header, fn.id)
		header = append(header, byte(offset>>24), byte(offset>>16), byte(offset>>8), byte(offset))
		body = append(body, fn.code...)
	}

	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)

	if len(out) > chaincfg.MaxScriptByteSize {
		return Script{}, ErrScriptByteSizeExceeded
	}
	return New(out), nil
}
