// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package block implements godcoin's block type: a header committing to a
// merkle root over transaction ids plus the minter's signature, playing the
// role wire.MsgBlock/wire.BlockHeader play for Decred but without a
// proof-of-work field, since this network has a single authorized minter
// per epoch rather than competing miners.
package block

import (
	"errors"

	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/serializer"
	"github.com/godcoin-go/godcoin/tx"
)

// HashSize is the byte length of a block hash and of a merkle root.
const HashSize = 32

// Hash identifies a block header.
type Hash [HashSize]byte

// Header is the fixed-size portion of a block that the minter signs.
type Header struct {
	PreviousHash Hash
	Height       uint64
	Timestamp    uint64
	TxMerkleRoot Hash
}

// Encode serializes the header in the order it is hashed and signed:
// previous_hash, height, timestamp, tx_merkle_root.
func (h Header) Encode() []byte {
	w := serializer.NewWriter(HashSize*2 + 16)
	w.PutBytes(h.PreviousHash[:])
	w.PutU64(h.Height)
	w.PutU64(h.Timestamp)
	w.PutBytes(h.TxMerkleRoot[:])
	return w.Bytes()
}

// Hash returns the double-SHA256 digest of the encoded header, used as the
// next block's PreviousHash.
func (h Header) Hash() Hash {
	return Hash(crypto.DoubleSHA256(h.Encode()))
}

// Block is a header, its transaction list, and the minter's signature over
// the header.
type Block struct {
	Header        Header
	Transactions  []*tx.Transaction
	SignaturePair crypto.SigPair
}

// MerkleRoot computes the merkle root spec.md §3 defines: concatenate txids
// in order and double-SHA256 over the concatenation. An empty transaction
// list hashes the empty byte string.
func MerkleRoot(txids []tx.Txid) Hash {
	buf := make([]byte, 0, len(txids)*tx.TxidSize)
	for _, id := range txids {
		buf = append(buf, id[:]...)
	}
	return Hash(crypto.DoubleSHA256(buf))
}

// Txids returns the precomputed id of every transaction in the block, in
// order, for merkle-root computation.
func (b *Block) Txids() []tx.Txid {
	ids := make([]tx.Txid, len(b.Transactions))
	for i, t := range b.Transactions {
		ids[i] = tx.Txid(crypto.DoubleSHA256(t.EncodeNoSigs()))
	}
	return ids
}

// ComputeMerkleRoot returns MerkleRoot over the block's own transactions.
func (b *Block) ComputeMerkleRoot() Hash {
	return MerkleRoot(b.Txids())
}

// Encode serializes the full block: header fields, tx_count, each
// transaction, then the minter's signature pair.
func (b *Block) Encode() []byte {
	w := serializer.NewWriter(1024)
	w.PutBytes(b.Header.Encode())
	w.PutU32(uint32(len(b.Transactions)))
	for _, t := range b.Transactions {
		w.PutVarBytes(t.Encode())
	}
	w.PutBytes(b.SignaturePair.PubKey.Bytes())
	w.PutBytes(b.SignaturePair.Signature[:])
	return w.Bytes()
}

// Decode deserializes a Block previously produced by Encode.
func Decode(buf []byte) (*Block, error) {
	r := serializer.NewReader(buf)

	prevHashBytes, err := r.TakeBytes(HashSize)
	if err != nil {
		return nil, err
	}
	height, err := r.TakeU64()
	if err != nil {
		return nil, err
	}
	timestamp, err := r.TakeU64()
	if err != nil {
		return nil, err
	}
	merkleBytes, err := r.TakeBytes(HashSize)
	if err != nil {
		return nil, err
	}

	var prevHash, merkleRoot Hash
	copy(prevHash[:], prevHashBytes)
	copy(merkleRoot[:], merkleBytes)

	txCount, err := r.TakeU32()
	if err != nil {
		return nil, err
	}
	txs := make([]*tx.Transaction, 0, txCount)
	for i := uint32(0); i < txCount; i++ {
		raw, err := r.TakeVarBytes()
		if err != nil {
			return nil, err
		}
		t, err := tx.Decode(raw)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}

	pubKeyBytes, err := r.TakeBytes(crypto.PublicKeySize)
	if err != nil {
		return nil, err
	}
	pubKey, ok := crypto.PublicKeyFromBytes(pubKeyBytes)
	if !ok {
		return nil, errors.New("block: malformed minter public key")
	}
	sigBytes, err := r.TakeBytes(crypto.SignatureSize)
	if err != nil {
		return nil, err
	}
	sig, ok := crypto.SignatureFromBytes(sigBytes)
	if !ok {
		return nil, errors.New("block: malformed minter signature")
	}

	return &Block{
		Header: Header{
			PreviousHash: prevHash,
			Height:       height,
			Timestamp:    timestamp,
			TxMerkleRoot: merkleRoot,
		},
		Transactions:  txs,
		SignaturePair: crypto.SigPair{PubKey: pubKey, Signature: sig},
	}, nil
}

// SignHeader signs the block's header with key and installs the signature
// pair.
func (b *Block) SignHeader(key crypto.KeyPair) {
	b.SignaturePair = crypto.SigPair{PubKey: key.Public, Signature: key.Sign(b.Header.Encode())}
}

// VerifyHeaderSignature reports whether SignaturePair validates the header.
func (b *Block) VerifyHeaderSignature() bool {
	return b.SignaturePair.Verify(b.Header.Encode())
}
