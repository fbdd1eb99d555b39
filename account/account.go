// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package account implements godcoin's account record: a balance, a spend
// script, and a permission set addressed by a numeric id, the role
// txscript/stdaddr's typed addresses play for Decred but account-id keyed
// rather than UTXO-script keyed.
package account

import (
	"errors"

	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/script"
	"github.com/godcoin-go/godcoin/serializer"
)

// ErrTooManyPermKeys is returned when a Permissions set would exceed
// chaincfg.MaxPermKeys.
var ErrTooManyPermKeys = errors.New("account: too many permission keys")

// Permissions is an account's spend-authorization policy: Threshold distinct
// signatures from Keys are required to act as the account, unless Threshold
// is chaincfg.ImmutableAccountThreshold, which marks the account's
// permissions (and script) as permanently frozen.
type Permissions struct {
	Threshold uint8
	Keys      []crypto.PublicKey
}

// Immutable reports whether this permission set can never change again.
func (p Permissions) Immutable() bool {
	return p.Threshold == chaincfg.ImmutableAccountThreshold
}

// Validate reports whether p is within bounds: at most MaxPermKeys keys, and
// (unless immutable) a threshold that is satisfiable by the key count.
func (p Permissions) Validate() error {
	if len(p.Keys) > chaincfg.MaxPermKeys {
		return ErrTooManyPermKeys
	}
	if !p.Immutable() && int(p.Threshold) > len(p.Keys) {
		return errors.New("account: permission threshold exceeds key count")
	}
	return nil
}

// ScriptHashSize is the byte length of a ScriptHash (double-SHA256 digest).
const ScriptHashSize = 32

// ScriptHash is the content address of a Script: double-SHA256 of its
// encoded bytes, wrapped in the WifTypeScriptHash WIF type when rendered as
// text. It is the account package's analogue of a typed stdaddr.
type ScriptHash [ScriptHashSize]byte

// HashScript computes the ScriptHash of s.
func HashScript(s script.Script) ScriptHash {
	return ScriptHash(crypto.DoubleSHA256(s.Bytes()))
}

// String renders the script hash as a WIF string.
func (h ScriptHash) String() string {
	return crypto.EncodeWIF(crypto.WifTypeScriptHash, h[:])
}

// ScriptHashFromWIF decodes a WIF-encoded script hash.
func ScriptHashFromWIF(s string) (ScriptHash, error) {
	payload, err := crypto.DecodeWIF(s, crypto.WifTypeScriptHash, ScriptHashSize)
	if err != nil {
		return ScriptHash{}, err
	}
	var h ScriptHash
	copy(h[:], payload)
	return h, nil
}

// Account is the full on-chain record for one account id: its balance, the
// script authorizing spends from it, its permission set, and whether it has
// been destroyed (a destroyed account's balance has been fully drained and
// it can no longer be referenced by new transactions other than the one
// that destroyed it).
type Account struct {
	ID          uint64
	Balance     asset.Asset
	Script      script.Script
	Permissions Permissions
	Destroyed   bool
}

// ScriptHash returns the content address of a.Script.
func (a Account) ScriptHash() ScriptHash {
	return HashScript(a.Script)
}

// Encode serializes the account record.
func (a Account) Encode() []byte {
	w := serializer.NewWriter(64)
	w.PutU64(a.ID)
	w.PutI64(a.Balance.Amount)
	w.PutU8(uint8(a.Balance.Symbol))
	w.PutVarBytes(a.Script.Bytes())
	w.PutU8(a.Permissions.Threshold)
	w.PutU8(uint8(len(a.Permissions.Keys)))
	for _, k := range a.Permissions.Keys {
		w.PutBytes(k.Bytes())
	}
	destroyed := uint8(0)
	if a.Destroyed {
		destroyed = 1
	}
	w.PutU8(destroyed)
	return w.Bytes()
}

// Decode deserializes an account record previously produced by Encode.
func Decode(buf []byte) (Account, error) {
	r := serializer.NewReader(buf)

	id, err := r.TakeU64()
	if err != nil {
		return Account{}, err
	}
	amount, err := r.TakeI64()
	if err != nil {
		return Account{}, err
	}
	sym, err := r.TakeU8()
	if err != nil {
		return Account{}, err
	}
	scriptBytes, err := r.TakeVarBytes()
	if err != nil {
		return Account{}, err
	}
	threshold, err := r.TakeU8()
	if err != nil {
		return Account{}, err
	}
	keyCount, err := r.TakeU8()
	if err != nil {
		return Account{}, err
	}
	keys := make([]crypto.PublicKey, 0, keyCount)
	for i := 0; i < int(keyCount); i++ {
		raw, err := r.TakeBytes(crypto.PublicKeySize)
		if err != nil {
			return Account{}, err
		}
		key, ok := crypto.PublicKeyFromBytes(raw)
		if !ok {
			return Account{}, errors.New("account: malformed permission key")
		}
		keys = append(keys, key)
	}
	destroyedByte, err := r.TakeU8()
	if err != nil {
		return Account{}, err
	}

	return Account{
		ID:      id,
		Balance: asset.Asset{Amount: amount, Symbol: asset.Symbol(sym)},
		Script:  script.New(scriptBytes),
		Permissions: Permissions{
			Threshold: threshold,
			Keys:      keys,
		},
		Destroyed: destroyedByte != 0,
	}, nil
}

// DefaultScript builds the standard single-key spend script: a sole entry
// point that checks the owning key's signature (fast-fail), transfers the
// requested amount to the requested destination, and returns True. This is
// the script minted for every newly created account, mirroring the default
// P2PKH-equivalent script the original implementation wires up for fresh
// wallets.
func DefaultScript(owner crypto.PublicKey) (script.Script, error) {
	fn := script.NewFn(script.DefaultFnID).
		PushPubKey(owner.Bytes()).
		Op(script.OpCheckSigFastFail).
		Op(script.OpTransfer).
		PushTrue()
	return script.NewBuilder().Push(fn).Build()
}
