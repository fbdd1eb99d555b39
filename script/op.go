// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package script implements godcoin's stack-based scripting VM: a bounded
// evaluator over typed frames (booleans, assets, account ids, public keys)
// that authorizes spends via signature and multisig opcodes, playing the
// role txscript plays for Decred.
package script

import (
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/crypto"
)

// Operand is a single-byte opcode as it appears in script bytecode.
type Operand uint8

// Push opcodes place a literal frame onto the stack.
const (
	OpPushFalse     Operand = 0x00
	OpPushTrue      Operand = 0x01
	OpPushPubKey    Operand = 0x02 // followed by 32 bytes
	OpPushAsset     Operand = 0x03 // followed by 9 bytes (i64 amount, u8 symbol)
	OpPushAccountID Operand = 0x04 // followed by 8 bytes
)

// Arithmetic opcodes operate on the top two Asset frames.
const (
	OpAdd Operand = 0x10
	OpSub Operand = 0x11
	OpMul Operand = 0x12
	OpDiv Operand = 0x13
)

// Logic opcodes.
const (
	OpNot    Operand = 0x20
	OpIf     Operand = 0x21
	OpElse   Operand = 0x22
	OpEndIf  Operand = 0x23
	OpReturn Operand = 0x24
)

// Crypto opcodes.
const (
	OpCheckSig              Operand = 0x30
	OpCheckSigFastFail      Operand = 0x31
	OpCheckMultiSig         Operand = 0x32 // followed by 2 bytes: M, N
	OpCheckMultiSigFastFail Operand = 0x33 // followed by 2 bytes: M, N
)

// Transfer opcode.
const (
	OpTransfer Operand = 0x40
)

// FrameKind tags the variant held by a Frame.
type FrameKind uint8

// Frame kinds, per spec.md §4.3.
const (
	FrameFalse FrameKind = iota
	FrameTrue
	FramePubKey
	FrameAsset
	FrameAccountID
)

// Frame is a single stack entry. Exactly one of PubKey, Asset, or AccountID
// is meaningful, selected by Kind; FrameFalse and FrameTrue carry no payload.
// This is the Go rendering of the OpFrame tagged union from the original
// implementation (see design notes: "Dynamic script frames -> tagged sum
// type").
type Frame struct {
	Kind      FrameKind
	PubKey    crypto.PublicKey
	Asset     asset.Asset
	AccountID uint64
}

// FrameBool constructs a FrameFalse or FrameTrue frame.
func FrameBool(b bool) Frame {
	if b {
		return Frame{Kind: FrameTrue}
	}
	return Frame{Kind: FrameFalse}
}

// FramePubKeyVal constructs a FramePubKey frame.
func FramePubKeyVal(k crypto.PublicKey) Frame {
	return Frame{Kind: FramePubKey, PubKey: k}
}

// FrameAssetVal constructs a FrameAsset frame.
func FrameAssetVal(a asset.Asset) Frame {
	return Frame{Kind: FrameAsset, Asset: a}
}

// FrameAccountIDVal constructs a FrameAccountID frame.
func FrameAccountIDVal(id uint64) Frame {
	return Frame{Kind: FrameAccountID, AccountID: id}
}
