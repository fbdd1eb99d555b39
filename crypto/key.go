// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/ed25519"
)

// PublicKeySize is the byte length of a PublicKey.
const PublicKeySize = ed25519.PublicKeySize

// SignatureSize is the byte length of a Signature.
const SignatureSize = ed25519.SignatureSize

// SeedSize is the byte length of the seed a PrivateKey is derived from.
const SeedSize = ed25519.SeedSize

// PublicKey is an Ed25519 public key.
type PublicKey struct {
	key ed25519.PublicKey
}

// PublicKeyFromBytes copies b into a PublicKey. It returns false if b is not
// exactly PublicKeySize bytes.
func PublicKeyFromBytes(b []byte) (PublicKey, bool) {
	if len(b) != PublicKeySize {
		return PublicKey{}, false
	}
	key := make(ed25519.PublicKey, PublicKeySize)
	copy(key, b)
	return PublicKey{key: key}, true
}

// Bytes returns the 32-byte encoding of the public key.
func (p PublicKey) Bytes() []byte {
	return p.key
}

// Equal reports whether two public keys are byte-identical.
func (p PublicKey) Equal(o PublicKey) bool {
	if len(p.key) != len(o.key) {
		return false
	}
	for i := range p.key {
		if p.key[i] != o.key[i] {
			return false
		}
	}
	return true
}

// Verify reports whether sig is a valid signature of msg by this key. It
// never panics, returning false for any malformed input.
func (p PublicKey) Verify(msg []byte, sig Signature) bool {
	if len(p.key) != PublicKeySize {
		return false
	}
	return ed25519.Verify(p.key, msg, sig[:])
}

// Signature is a detached Ed25519 signature.
type Signature [SignatureSize]byte

// SignatureFromBytes copies b into a Signature. It returns false if b is not
// exactly SignatureSize bytes.
func SignatureFromBytes(b []byte) (Signature, bool) {
	var s Signature
	if len(b) != SignatureSize {
		return s, false
	}
	copy(s[:], b)
	return s, true
}

// PrivateKey holds both the original seed and the Ed25519-expanded secret
// key, so the seed can be recovered for WIF export (the expanded key alone
// cannot be turned back into a seed).
type PrivateKey struct {
	seed [SeedSize]byte
	key  ed25519.PrivateKey
}

// PrivateKeyFromSeed derives a PrivateKey from a 32-byte seed. It returns
// false if seed is not exactly SeedSize bytes.
func PrivateKeyFromSeed(seed []byte) (PrivateKey, bool) {
	if len(seed) != SeedSize {
		return PrivateKey{}, false
	}
	var pk PrivateKey
	copy(pk.seed[:], seed)
	pk.key = ed25519.NewKeyFromSeed(seed)
	return pk, true
}

// Seed returns the 32-byte seed this key was derived from.
func (p PrivateKey) Seed() []byte {
	return p.seed[:]
}

// Sign produces a detached signature over msg.
func (p PrivateKey) Sign(msg []byte) Signature {
	sig, _ := SignatureFromBytes(ed25519.Sign(p.key, msg))
	return sig
}

// ErrZeroSeed is returned by GenerateKeyPair in the astronomically unlikely
// event the random seed is all zeroes.
var ErrZeroSeed = errors.New("crypto: generated seed is all zero")

// KeyPair is an Ed25519 public/private key pair.
type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// GenerateKeyPair draws a random 32-byte seed and derives an Ed25519 keypair
// from it.
func GenerateKeyPair() (KeyPair, error) {
	var seed [SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return KeyPair{}, err
	}
	zero := true
	for _, b := range seed {
		if b != 0 {
			zero = false
			break
		}
	}
	if zero {
		return KeyPair{}, ErrZeroSeed
	}

	priv, ok := PrivateKeyFromSeed(seed[:])
	if !ok {
		return KeyPair{}, errors.New("crypto: unreachable: bad seed length")
	}
	pub, ok := PublicKeyFromBytes(priv.key.Public().(ed25519.PublicKey))
	if !ok {
		return KeyPair{}, errors.New("crypto: unreachable: bad public key length")
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// Sign produces a detached signature over msg using the pair's private key.
func (k KeyPair) Sign(msg []byte) Signature {
	return k.Private.Sign(msg)
}

// Verify reports whether sig is a valid signature of msg by the pair's
// public key.
func (k KeyPair) Verify(msg []byte, sig Signature) bool {
	return k.Public.Verify(msg, sig)
}

// SigPair couples a public key with a signature it produced, as carried in a
// transaction's signature list.
type SigPair struct {
	PubKey    PublicKey
	Signature Signature
}

// Verify reports whether the pair's signature validates msg under its
// public key.
func (s SigPair) Verify(msg []byte) bool {
	return s.PubKey.Verify(msg, s.Signature)
}
