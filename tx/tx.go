// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tx implements godcoin's transaction variants, playing the role
// wire.MsgTx and dcrutil.Tx play together for Decred: a serializable,
// signable wire type plus a precomputed-hash cache, except godcoin's
// transaction set is a closed, tagged sum type rather than an input/output
// graph.
package tx

import (
	"errors"

	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/script"
	"github.com/godcoin-go/godcoin/serializer"
)

// Type tags which variant a Transaction holds.
type Type uint8

// The four transaction variants. Reward credits the staker each producer
// tick; Transfer moves balance between accounts via script evaluation;
// Mint increases token supply under minter authority; Owner rotates the
// bond's minter key and replaces the outgoing minter's wallet script.
const (
	Reward Type = iota
	Transfer
	Mint
	Owner
)

func (t Type) String() string {
	switch t {
	case Reward:
		return "reward"
	case Transfer:
		return "transfer"
	case Mint:
		return "mint"
	case Owner:
		return "owner"
	default:
		return "unknown"
	}
}

var (
	// ErrTooManySignatures is returned when a signature pair list would
	// exceed chaincfg.MaxTxSignatures.
	ErrTooManySignatures = errors.New("tx: too many signature pairs")
	// ErrMemoTooLarge is returned when a Transfer memo exceeds
	// chaincfg.MaxMemoByteSize.
	ErrMemoTooLarge = errors.New("tx: memo too large")
	// ErrUnknownType is returned by Decode on an unrecognized tx_type byte.
	ErrUnknownType = errors.New("tx: unknown transaction type")
)

// RewardData carries a Reward transaction's variant fields: the staker's
// script-hash destination and the list of assets credited (normally a
// single entry, but the wire format allows several in one reward).
type RewardData struct {
	ToScriptHash account.ScriptHash
	Rewards      []asset.Asset
}

// TransferData carries a Transfer transaction's variant fields: the paying
// account, which of its script's entry points to invoke, the raw argument
// bytes that entry point expects, and a free-form memo.
type TransferData struct {
	FromAccountID uint64
	CallFn        uint8
	Args          []byte
	Memo          []byte
}

// MintData carries a Mint transaction's variant fields: the account
// credited and the amount by which token supply grows.
type MintData struct {
	ToAccountID uint64
	Amount      asset.Asset
}

// OwnerData carries an Owner transaction's variant fields: the new minter
// key and the new wallet script adopted by the account holding the outgoing
// minter key's default script.
type OwnerData struct {
	MinterPubKey crypto.PublicKey
	WalletScript script.Script
}

// Transaction is the tagged union of the four variants sharing a common
// base of expiry, fee, and signature pairs. Exactly one of Reward,
// Transfer, Mint, Owner is non-nil, selected by TxType.
type Transaction struct {
	TxType Type
	Expiry uint64
	Fee    asset.Asset

	SignaturePairs []crypto.SigPair

	Reward   *RewardData
	Transfer *TransferData
	Mint     *MintData
	Owner    *OwnerData
}

// Validate reports structural bounds violations that apply regardless of
// chain state: too many signatures, an oversized memo, or a type/payload
// mismatch.
func (t *Transaction) Validate() error {
	if len(t.SignaturePairs) > chaincfg.MaxTxSignatures {
		return ErrTooManySignatures
	}
	switch t.TxType {
	case Reward:
		if t.Reward == nil {
			return ErrUnknownType
		}
	case Transfer:
		if t.Transfer == nil {
			return ErrUnknownType
		}
		if len(t.Transfer.Memo) > chaincfg.MaxMemoByteSize {
			return ErrMemoTooLarge
		}
	case Mint:
		if t.Mint == nil {
			return ErrUnknownType
		}
	case Owner:
		if t.Owner == nil {
			return ErrUnknownType
		}
	default:
		return ErrUnknownType
	}
	return nil
}

// encodeBase writes the fields common to every variant: tx_type, expiry,
// fee.
func (t *Transaction) encodeBase(w *serializer.Writer) {
	w.PutU8(uint8(t.TxType))
	w.PutU64(t.Expiry)
	w.PutI64(t.Fee.Amount)
	w.PutU8(uint8(t.Fee.Symbol))
}

// EncodeNoSigs serializes tx_type, expiry, fee, and the variant-specific
// fields, omitting the signature list. This is both the txid preimage and
// (chain-id prefixed) the signing message.
func (t *Transaction) EncodeNoSigs() []byte {
	w := serializer.NewWriter(256)
	t.encodeBase(w)

	switch t.TxType {
	case Reward:
		w.PutBytes(t.Reward.ToScriptHash[:])
		w.PutU32(uint32(len(t.Reward.Rewards)))
		for _, a := range t.Reward.Rewards {
			w.PutI64(a.Amount)
			w.PutU8(uint8(a.Symbol))
		}
	case Transfer:
		w.PutU64(t.Transfer.FromAccountID)
		w.PutU8(t.Transfer.CallFn)
		w.PutVarBytes(t.Transfer.Args)
		w.PutU16(uint16(len(t.Transfer.Memo)))
		w.PutBytes(t.Transfer.Memo)
	case Mint:
		w.PutU64(t.Mint.ToAccountID)
		w.PutI64(t.Mint.Amount.Amount)
		w.PutU8(uint8(t.Mint.Amount.Symbol))
	case Owner:
		w.PutBytes(t.Owner.MinterPubKey.Bytes())
		w.PutVarBytes(t.Owner.WalletScript.Bytes())
	}
	return w.Bytes()
}

// Encode serializes the full transaction, including its signature list.
func (t *Transaction) Encode() []byte {
	base := t.EncodeNoSigs()
	w := serializer.NewWriter(len(base) + 1 + len(t.SignaturePairs)*(crypto.PublicKeySize+crypto.SignatureSize))
	w.PutBytes(base)
	w.PutU8(uint8(len(t.SignaturePairs)))
	for _, pair := range t.SignaturePairs {
		w.PutBytes(pair.PubKey.Bytes())
		w.PutBytes(pair.Signature[:])
	}
	return w.Bytes()
}

// Decode deserializes a Transaction previously produced by Encode.
func Decode(buf []byte) (*Transaction, error) {
	r := serializer.NewReader(buf)

	txType, err := r.TakeU8()
	if err != nil {
		return nil, err
	}
	expiry, err := r.TakeU64()
	if err != nil {
		return nil, err
	}
	feeAmount, err := r.TakeI64()
	if err != nil {
		return nil, err
	}
	feeSym, err := r.TakeU8()
	if err != nil {
		return nil, err
	}

	t := &Transaction{
		TxType: Type(txType),
		Expiry: expiry,
		Fee:    asset.Asset{Amount: feeAmount, Symbol: asset.Symbol(feeSym)},
	}

	switch t.TxType {
	case Reward:
		hashBytes, err := r.TakeBytes(account.ScriptHashSize)
		if err != nil {
			return nil, err
		}
		var hash account.ScriptHash
		copy(hash[:], hashBytes)

		count, err := r.TakeU32()
		if err != nil {
			return nil, err
		}
		rewards := make([]asset.Asset, 0, count)
		for i := uint32(0); i < count; i++ {
			amount, err := r.TakeI64()
			if err != nil {
				return nil, err
			}
			sym, err := r.TakeU8()
			if err != nil {
				return nil, err
			}
			rewards = append(rewards, asset.Asset{Amount: amount, Symbol: asset.Symbol(sym)})
		}
		t.Reward = &RewardData{ToScriptHash: hash, Rewards: rewards}

	case Transfer:
		from, err := r.TakeU64()
		if err != nil {
			return nil, err
		}
		callFn, err := r.TakeU8()
		if err != nil {
			return nil, err
		}
		args, err := r.TakeVarBytes()
		if err != nil {
			return nil, err
		}
		memoLen, err := r.TakeU16()
		if err != nil {
			return nil, err
		}
		memo, err := r.TakeBytes(int(memoLen))
		if err != nil {
			return nil, err
		}
		t.Transfer = &TransferData{FromAccountID: from, CallFn: callFn, Args: args, Memo: memo}

	case Mint:
		to, err := r.TakeU64()
		if err != nil {
			return nil, err
		}
		amount, err := r.TakeI64()
		if err != nil {
			return nil, err
		}
		sym, err := r.TakeU8()
		if err != nil {
			return nil, err
		}
		t.Mint = &MintData{ToAccountID: to, Amount: asset.Asset{Amount: amount, Symbol: asset.Symbol(sym)}}

	case Owner:
		keyBytes, err := r.TakeBytes(crypto.PublicKeySize)
		if err != nil {
			return nil, err
		}
		key, ok := crypto.PublicKeyFromBytes(keyBytes)
		if !ok {
			return nil, errors.New("tx: malformed minter public key")
		}
		scriptBytes, err := r.TakeVarBytes()
		if err != nil {
			return nil, err
		}
		t.Owner = &OwnerData{MinterPubKey: key, WalletScript: script.New(scriptBytes)}

	default:
		return nil, ErrUnknownType
	}

	sigCount, err := r.TakeU8()
	if err != nil {
		return nil, err
	}
	t.SignaturePairs = make([]crypto.SigPair, 0, sigCount)
	for i := uint8(0); i < sigCount; i++ {
		keyBytes, err := r.TakeBytes(crypto.PublicKeySize)
		if err != nil {
			return nil, err
		}
		key, ok := crypto.PublicKeyFromBytes(keyBytes)
		if !ok {
			return nil, errors.New("tx: malformed signature-pair public key")
		}
		sigBytes, err := r.TakeBytes(crypto.SignatureSize)
		if err != nil {
			return nil, err
		}
		sig, ok := crypto.SignatureFromBytes(sigBytes)
		if !ok {
			return nil, errors.New("tx: malformed signature")
		}
		t.SignaturePairs = append(t.SignaturePairs, crypto.SigPair{PubKey: key, Signature: sig})
	}

	return t, nil
}
