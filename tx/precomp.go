// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tx

import (
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/crypto"
)

// TxidSize is the byte length of a transaction id.
const TxidSize = 32

// Txid identifies a transaction: double-SHA256 of its encoding without
// signatures.
type Txid [TxidSize]byte

// PrecompData caches a transaction's canonical unsigned encoding and its
// derived txid, so both are computed exactly once. Per the invariant in
// spec.md §3, once a PrecompData exists its Txid never changes -- every
// method here either reads the cached fields or appends a signature, never
// mutates the cached bytes.
type PrecompData struct {
	tx    *Transaction
	bytes []byte
	txid  Txid
}

// Precompute serializes t (without signatures) and derives its txid. Call
// this once a transaction's variant fields are final but before signing.
func Precompute(t *Transaction) *PrecompData {
	b := t.EncodeNoSigs()
	return &PrecompData{
		tx:    t,
		bytes: b,
		txid:  Txid(crypto.DoubleSHA256(b)),
	}
}

// Tx returns the underlying transaction.
func (p *PrecompData) Tx() *Transaction {
	return p.tx
}

// Txid returns the cached transaction id.
func (p *PrecompData) Txid() Txid {
	return p.txid
}

// Bytes returns the cached unsigned encoding.
func (p *PrecompData) Bytes() []byte {
	return p.bytes
}

// SigningMessage returns the chain-id-domain-separated bytes that
// signatures are produced and verified over: chainID prepended to the
// cached unsigned encoding.
func (p *PrecompData) SigningMessage(chainID chaincfg.ChainID) []byte {
	msg := make([]byte, 0, len(chainID)+len(p.bytes))
	msg = append(msg, chainID[:]...)
	msg = append(msg, p.bytes...)
	return msg
}

// Sign produces a detached signature pair over p's signing message without
// attaching it to the transaction.
func (p *PrecompData) Sign(chainID chaincfg.ChainID, key crypto.KeyPair) crypto.SigPair {
	msg := p.SigningMessage(chainID)
	return crypto.SigPair{PubKey: key.Public, Signature: key.Sign(msg)}
}

// AppendSign signs and appends the resulting pair to the transaction's
// signature list.
func (p *PrecompData) AppendSign(chainID chaincfg.ChainID, key crypto.KeyPair) {
	p.tx.SignaturePairs = append(p.tx.SignaturePairs, p.Sign(chainID, key))
}

// VerifyAll reports whether every signature pair on the transaction
// validates against p's signing message.
func (p *PrecompData) VerifyAll(chainID chaincfg.ChainID) bool {
	msg := p.SigningMessage(chainID)
	for _, pair := range p.tx.SignaturePairs {
		if !pair.PubKey.Verify(msg, pair.Signature) {
			return false
		}
	}
	return true
}

// VerifyKeys reports whether every key in keys has a valid signature among
// the transaction's signature pairs (order-independent, each key matched to
// at most one pair).
func (p *PrecompData) VerifyKeys(chainID chaincfg.ChainID, keys []crypto.PublicKey) bool {
	msg := p.SigningMessage(chainID)
	matched := make([]bool, len(p.tx.SignaturePairs))

	for _, key := range keys {
		found := false
		for i, pair := range p.tx.SignaturePairs {
			if matched[i] || !pair.PubKey.Equal(key) {
				continue
			}
			if !pair.PubKey.Verify(msg, pair.Signature) {
				return false
			}
			matched[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}
