// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"github.com/jrick/bitset"

	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/serializer"
)

// MaxSigChecks bounds the number of signature-verification attempts (single
// OpCheckSig checks, or individual candidate keys inside an OpCheckMultiSig)
// a single evaluation may perform.
const MaxSigChecks = 8

// TransferLog is emitted by OpTransfer. It names the destination account and
// amount; the source is always the account whose script is executing.
// Evaluation itself changes no balances. verify.Tx sums the returned
// entries' amounts into its source-balance check; blockchain.Chain then
// credits the (to, amount) pair decoded from the Transfer's call arguments,
// not these entries.
type TransferLog struct {
	To     uint64
	Amount asset.Asset
}

// SigContext supplies the signature material a script evaluation checks
// against: the precomputed message bytes (the transaction encoding without
// its signature list) and the candidate signature pairs carried by the
// transaction.
type SigContext struct {
	Message  []byte
	SigPairs []crypto.SigPair
}

// Eval resolves fnID in s's header table, pushes args as the initial stack
// contents, then executes the function body. It returns the accumulated
// transfer log on success (the function returned True), or an *EvalErr
// otherwise.
func Eval(s Script, fnID uint8, args []Frame, sig SigContext) ([]TransferLog, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	start, end, found, err := functionBounds(s, fnID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newEvalErr(0, ErrUnknownOp)
	}

	stack := NewStack()
	for _, a := range args {
		if err := stack.Push(a); err != nil {
			return nil, err
		}
	}

	e := &evaluator{
		code:     s.bytecode,
		pos:      start,
		end:      end,
		stack:    stack,
		sig:      sig,
		consumed: bitset.NewBytes(len(sig.SigPairs)),
		active:   true,
	}
	return e.run()
}

// functionBounds finds fnID's body and its exclusive end offset, which is
// either the next function's start offset (functions are laid out in
// increasing offset order by Builder) or the end of the script.
func functionBounds(s Script, fnID uint8) (start, end int, found bool, err error) {
	r := serializer.NewReader(s.bytecode)
	fnCount, err := r.TakeU8()
	if err != nil {
		return 0, 0, false, newEvalErr(0, ErrUnexpectedEOF)
	}

	offsets := make([]int, 0, fnCount)
	targetOffset := -1
	for i := 0; i < int(fnCount); i++ {
		headerPos := 1 + i*fnHeaderEntrySize
		headerID, err := r.TakeU8()
		if err != nil {
			return 0, 0, false, newEvalErr(headerPos, ErrUnexpectedEOF)
		}
		off, err := r.TakeU32()
		if err != nil {
			return 0, 0, false, newEvalErr(headerPos+1, ErrUnexpectedEOF)
		}
		offsets = append(offsets, int(off))
		if headerID == fnID {
			targetOffset = int(off)
		}
	}
	if targetOffset == -1 {
		return 0, 0, false, nil
	}

	end = len(s.bytecode)
	for _, off := range offsets {
		if off > targetOffset && off < end {
			end = off
		}
	}
	return targetOffset, end, true, nil
}

// condState tracks one level of If/Else/EndIf nesting.
type condState struct {
	parentActive bool
	taken        bool
	sawElse      bool
}

// evaluator holds the mutable state of one function-body execution.
type evaluator struct {
	code  []byte
	pos   int
	end   int
	stack *Stack

	sig       SigContext
	consumed  bitset.Bytes
	sigChecks int

	active    bool
	condStack []condState
	transfers []TransferLog
}

func (e *evaluator) run() ([]TransferLog, error) {
	for e.pos < e.end {
		opPos := e.pos
		opByte := e.code[e.pos]
		e.pos++
		op := Operand(opByte)

		switch op {
		case OpPushFalse:
			if e.active {
				if err := e.stack.Push(Frame{Kind: FrameFalse}); err != nil {
					return nil, err
				}
			}
		case OpPushTrue:
			if e.active {
				if err := e.stack.Push(Frame{Kind: FrameTrue}); err != nil {
					return nil, err
				}
			}
		case OpPushPubKey:
			raw, err := e.take(32, opPos)
			if err != nil {
				return nil, err
			}
			if e.active {
				key, ok := crypto.PublicKeyFromBytes(raw)
				if !ok {
					return nil, newEvalErr(opPos, ErrUnexpectedEOF)
				}
				if err := e.stack.Push(FramePubKeyVal(key)); err != nil {
					return nil, err
				}
			}
		case OpPushAsset:
			raw, err := e.take(9, opPos)
			if err != nil {
				return nil, err
			}
			if e.active {
				r := serializer.NewReader(raw)
				amount, _ := r.TakeI64()
				sym, _ := r.TakeU8()
				a := asset.Asset{Amount: amount, Symbol: asset.Symbol(sym)}
				if err := e.stack.Push(FrameAssetVal(a)); err != nil {
					return nil, err
				}
			}
		case OpPushAccountID:
			raw, err := e.take(8, opPos)
			if err != nil {
				return nil, err
			}
			if e.active {
				r := serializer.NewReader(raw)
				id, _ := r.TakeU64()
				if err := e.stack.Push(FrameAccountIDVal(id)); err != nil {
					return nil, err
				}
			}

		case OpAdd, OpSub, OpMul, OpDiv:
			if e.active {
				if err := e.arith(op, opPos); err != nil {
					return nil, err
				}
			}

		case OpNot:
			if e.active {
				b, err := e.stack.PopBool()
				if err != nil {
					return nil, err
				}
				if err := e.stack.Push(FrameBool(!b)); err != nil {
					return nil, err
				}
			}

		case OpIf:
			cond := false
			if e.active {
				b, err := e.stack.PopBool()
				if err != nil {
					return nil, err
				}
				cond = b
			}
			e.condStack = append(e.condStack, condState{parentActive: e.active, taken: cond})
			e.active = e.active && cond

		case OpElse:
			if len(e.condStack) == 0 {
				return nil, newEvalErr(opPos, ErrInvalidItemOnStack)
			}
			top := &e.condStack[len(e.condStack)-1]
			top.sawElse = true
			e.active = top.parentActive && !top.taken

		case OpEndIf:
			if len(e.condStack) == 0 {
				return nil, newEvalErr(opPos, ErrInvalidItemOnStack)
			}
			top := e.condStack[len(e.condStack)-1]
			e.condStack = e.condStack[:len(e.condStack)-1]
			e.active = top.parentActive

		case OpReturn:
			if e.active {
				b, err := e.stack.PopBool()
				if err != nil {
					return nil, err
				}
				if !b {
					return nil, newEvalErr(opPos, ErrScriptRetFalse)
				}
				return e.transfers, nil
			}

		case OpCheckSig, OpCheckSigFastFail:
			if e.active {
				if err := e.checkSig(op == OpCheckSigFastFail, opPos); err != nil {
					return nil, err
				}
			}

		case OpCheckMultiSig, OpCheckMultiSigFastFail:
			raw, err := e.take(2, opPos)
			if err != nil {
				return nil, err
			}
			if e.active {
				m, n := raw[0], raw[1]
				if err := e.checkMultiSig(op == OpCheckMultiSigFastFail, m, n, opPos); err != nil {
					return nil, err
				}
			}

		case OpTransfer:
			if e.active {
				amt, err := e.stack.PopAsset()
				if err != nil {
					return nil, err
				}
				to, err := e.stack.PopAccountID()
				if err != nil {
					return nil, err
				}
				e.transfers = append(e.transfers, TransferLog{To: to, Amount: amt})
			}

		default:
			return nil, newEvalErr(opPos, ErrUnknownOp)
		}
	}

	// Fell off the end of the function body without an explicit OpReturn;
	// the final stack value (if reachable, i.e. we are not mid-skip) is the
	// return value.
	if !e.active {
		return nil, newEvalErr(e.pos, ErrScriptRetFalse)
	}
	b, err := e.stack.PopBool()
	if err != nil {
		return nil, err
	}
	if !b {
		return nil, newEvalErr(e.pos, ErrScriptRetFalse)
	}
	return e.transfers, nil
}

// take reads n raw operand bytes at the current position, advancing pos
// regardless of whether the caller is currently in an active execution
// branch (skipped branches still need to step over operand bytes).
func (e *evaluator) take(n int, opPos int) ([]byte, error) {
	if e.pos+n > e.end {
		return nil, newEvalErr(opPos, ErrUnexpectedEOF)
	}
	raw := e.code[e.pos : e.pos+n]
	e.pos += n
	return raw, nil
}

func (e *evaluator) arith(op Operand, opPos int) error {
	b, err := e.stack.PopAsset()
	if err != nil {
		return err
	}
	a, err := e.stack.PopAsset()
	if err != nil {
		return err
	}

	var result asset.Asset
	var ok bool
	switch op {
	case OpAdd:
		result, ok = a.Add(b)
	case OpSub:
		result, ok = a.Sub(b)
	case OpMul:
		result, ok = a.Mul(b)
	case OpDiv:
		result, ok = a.Div(b)
	}
	if !ok {
		return newEvalErr(opPos, ErrArithmetic)
	}
	return e.stack.Push(FrameAssetVal(result))
}

// verifyOne spends one signature-check budget unit and reports whether key
// matches an unconsumed signature pair over e.sig.Message, consuming that
// pair on success.
func (e *evaluator) verifyOne(key crypto.PublicKey) (bool, error) {
	if e.sigChecks >= MaxSigChecks {
		return false, newEvalErr(e.pos, ErrTooManySigChecks)
	}
	e.sigChecks++

	for i, pair := range e.sig.SigPairs {
		if e.consumed.Get(i) {
			continue
		}
		if !pair.PubKey.Equal(key) {
			continue
		}
		if pair.PubKey.Verify(e.sig.Message, pair.Signature) {
			e.consumed.Set(i)
			return true, nil
		}
		return false, nil
	}
	return false, nil
}

func (e *evaluator) checkSig(fastFail bool, opPos int) error {
	key, err := e.stack.PopPubKey()
	if err != nil {
		return err
	}
	ok, err := e.verifyOne(key)
	if err != nil {
		return err
	}
	if fastFail {
		if !ok {
			return newEvalErr(opPos, ErrScriptRetFalse)
		}
		return nil
	}
	return e.stack.Push(FrameBool(ok))
}

func (e *evaluator) checkMultiSig(fastFail bool, m, n uint8, opPos int) error {
	keys := make([]crypto.PublicKey, 0, n)
	for i := uint8(0); i < n; i++ {
		key, err := e.stack.PopPubKey()
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	seen := make([]crypto.PublicKey, 0, len(keys))
	matched := 0
	for _, key := range keys {
		dup := false
		for _, s := range seen {
			if s.Equal(key) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen = append(seen, key)

		ok, err := e.verifyOne(key)
		if err != nil {
			return err
		}
		if ok {
			matched++
		}
	}

	success := matched >= int(m)
	if fastFail {
		if !success {
			return newEvalErr(opPos, ErrScriptRetFalse)
		}
		return nil
	}
	return e.stack.Push(FrameBool(success))
}
