// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto implements godcoin's cryptographic primitives: double
// SHA-256 hashing, Ed25519 keypairs and detached signatures, and WIF
// encoding, mirroring the role chaincfg/chainhash and dcrutil play for
// Decred.
package crypto

import (
	"crypto/sha256"
	"hash"
)

// DigestSize is the byte length of a Digest.
const DigestSize = sha256.Size

// Digest is the output of DoubleSHA256.
type Digest [DigestSize]byte

// DigestFromSlice copies slice into a Digest. It returns false if slice is
// not exactly DigestSize bytes.
func DigestFromSlice(slice []byte) (Digest, bool) {
	var d Digest
	if len(slice) != DigestSize {
		return d, false
	}
	copy(d[:], slice)
	return d, true
}

// DoubleSHA256 computes SHA-256(SHA-256(buf)).
func DoubleSHA256(buf []byte) Digest {
	first := sha256.Sum256(buf)
	return Digest(sha256.Sum256(first[:]))
}

// DoubleSHA256State supports incremental hashing that must agree with
// DoubleSHA256 for the same overall input (property P-CRYPTO-1): the first
// SHA-256 pass is streamed via Update, and Finalize applies the second pass
// over the first pass's digest.
type DoubleSHA256State struct {
	inner hash.Hash
}

// NewDoubleSHA256 returns a ready-to-use streaming double-SHA256 hasher.
func NewDoubleSHA256() *DoubleSHA256State {
	return &DoubleSHA256State{inner: sha256.New()}
}

// Update feeds more data into the first hashing pass.
func (d *DoubleSHA256State) Update(data []byte) {
	// hash.Hash.Write never returns an error.
	_, _ = d.inner.Write(data)
}

// Finalize completes the first pass and runs the second SHA-256 pass over
// its digest, returning a result identical to DoubleSHA256(allUpdatedData).
func (d *DoubleSHA256State) Finalize() Digest {
	first := d.inner.Sum(nil)
	return Digest(sha256.Sum256(first))
}
