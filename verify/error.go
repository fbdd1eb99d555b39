// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package verify implements the rule-checking orchestration for
// transactions and blocks, playing the role EXCCoin's blockchain package
// plays with its ruleError/ErrorCode idiom -- ported here as TxRuleError
// and BlockRuleError, one typed error per admission-control decision.
package verify

import "fmt"

// TxErrorCode enumerates why a transaction failed verification.
type TxErrorCode int

const (
	ErrTxExpired TxErrorCode = iota
	ErrTxDupe
	ErrScriptEval
	ErrScriptHashMismatch
	ErrInsufficientBalance
	ErrInvalidFee
	ErrTxProhibited
	ErrSignatureInvalid
	ErrUnknownAccount
	ErrMalformedArgs
)

func (c TxErrorCode) String() string {
	switch c {
	case ErrTxExpired:
		return "transaction expired"
	case ErrTxDupe:
		return "duplicate transaction"
	case ErrScriptEval:
		return "script evaluation failed"
	case ErrScriptHashMismatch:
		return "script hash mismatch"
	case ErrInsufficientBalance:
		return "insufficient balance"
	case ErrInvalidFee:
		return "fee too low"
	case ErrTxProhibited:
		return "transaction type prohibited in this context"
	case ErrSignatureInvalid:
		return "insufficient or invalid signatures"
	case ErrUnknownAccount:
		return "unknown or destroyed account"
	case ErrMalformedArgs:
		return "malformed call arguments"
	default:
		return "unknown transaction error"
	}
}

// TxRuleError reports why a transaction was rejected. Err is set only for
// ErrScriptEval, carrying the underlying *script.EvalErr.
type TxRuleError struct {
	ErrorCode   TxErrorCode
	Description string
	Err         error
}

func (e *TxRuleError) Error() string {
	return fmt.Sprintf("tx rule violation: %s: %s", e.ErrorCode, e.Description)
}

func (e *TxRuleError) Unwrap() error {
	return e.Err
}

func txRuleError(c TxErrorCode, desc string) error {
	return &TxRuleError{ErrorCode: c, Description: desc}
}

func txRuleErrorWithCause(c TxErrorCode, desc string, cause error) error {
	return &TxRuleError{ErrorCode: c, Description: desc, Err: cause}
}

// BlockErrorCode enumerates why a block failed verification.
type BlockErrorCode int

const (
	ErrBadHeight BlockErrorCode = iota
	ErrBadPrevHash
	ErrBadMerkleRoot
	ErrBadMinterSignature
	ErrTxFailed
)

func (c BlockErrorCode) String() string {
	switch c {
	case ErrBadHeight:
		return "height is not head+1"
	case ErrBadPrevHash:
		return "previous hash does not match chain head"
	case ErrBadMerkleRoot:
		return "tx merkle root mismatch"
	case ErrBadMinterSignature:
		return "invalid minter signature"
	case ErrTxFailed:
		return "a transaction in the block failed verification"
	default:
		return "unknown block error"
	}
}

// BlockRuleError reports why a block was rejected.
type BlockRuleError struct {
	ErrorCode   BlockErrorCode
	Description string
	Err         error
}

func (e *BlockRuleError) Error() string {
	return fmt.Sprintf("block rule violation: %s: %s", e.ErrorCode, e.Description)
}

func (e *BlockRuleError) Unwrap() error {
	return e.Err
}

func blockRuleError(c BlockErrorCode, desc string) error {
	return &BlockRuleError{ErrorCode: c, Description: desc}
}

func blockRuleErrorWithCause(c BlockErrorCode, desc string, cause error) error {
	return &BlockRuleError{ErrorCode: c, Description: desc, Err: cause}
}

// TxFailedInBlock wraps cause -- the error Tx returned for one of a
// candidate block's transactions -- as a BlockRuleError, for callers (the
// chain facade) that verify each transaction separately from Block but
// still want the block-level rejection reason typed and unwrappable back to
// the underlying TxRuleError.
func TxFailedInBlock(cause error) error {
	return blockRuleErrorWithCause(ErrTxFailed, "a transaction in the block failed verification", cause)
}
