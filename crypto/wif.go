// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"errors"
	"strings"

	"github.com/decred/base58"
	"golang.org/x/crypto/ed25519"
)

// WIF type-prefix bytes, distinguishing what kind of payload follows in the
// base58 string. These are analogous to dcrutil.WIF's netID byte, but
// godcoin has no multi-network concept at the core layer -- only a payload
// kind.
const (
	wifTypePrivateKey uint8 = 0x01
	wifTypePublicKey  uint8 = 0x02

	// WifTypeScriptHash is the WIF type byte for a script-hash address, used
	// by the account package (a script hash is computed there, but encoded
	// via this package's WIF machinery).
	WifTypeScriptHash uint8 = 0x03
)

// PubAddressPrefix is the human-readable prefix placed before the base58
// payload of every WIF string this network produces.
const PubAddressPrefix = "GOD"

const wifChecksumLen = 4

// WifErrorKind enumerates the ways a WIF string can fail to decode.
type WifErrorKind int

const (
	// WifInvalidLen indicates the decoded payload is not the expected
	// length for its type byte.
	WifInvalidLen WifErrorKind = iota
	// WifInvalidPrefix indicates the textual prefix or the leading type
	// byte does not match what was expected.
	WifInvalidPrefix
	// WifInvalidChecksum indicates the trailing 4-byte checksum does not
	// match double_sha256 of the preceding bytes.
	WifInvalidChecksum
	// WifInvalidBs58Encoding indicates the string is not valid base58.
	WifInvalidBs58Encoding
)

func (k WifErrorKind) String() string {
	switch k {
	case WifInvalidLen:
		return "invalid length"
	case WifInvalidPrefix:
		return "invalid prefix"
	case WifInvalidChecksum:
		return "invalid checksum"
	case WifInvalidBs58Encoding:
		return "invalid base58 encoding"
	default:
		return "unknown wif error"
	}
}

// WifError reports why a WIF string failed to decode.
type WifError struct {
	Kind WifErrorKind
}

func (e *WifError) Error() string {
	return "wif: " + e.Kind.String()
}

func newWifError(kind WifErrorKind) error {
	return &WifError{Kind: kind}
}

// EncodeWIF base58-encodes typeByte||payload||checksum(typeByte||payload)
// with the human-readable PubAddressPrefix in front, per spec.md §4.2's WIF
// layout. It is exported for use by other packages (account.ScriptHash) that
// mint their own WIF-addressed types.
func EncodeWIF(typeByte uint8, payload []byte) string {
	return encodeWif(typeByte, payload)
}

// DecodeWIF reverses EncodeWIF, verifying the prefix, checksum, and that the
// leading type byte matches wantType, then returning the payload with the
// type byte and checksum stripped.
func DecodeWIF(s string, wantType uint8, payloadLen int) ([]byte, error) {
	return decodeWif(s, wantType, payloadLen)
}

// encodeWif is the unexported implementation shared by EncodeWIF and the
// key-specific ToWIF methods below.
func encodeWif(typeByte uint8, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+wifChecksumLen)
	buf = append(buf, typeByte)
	buf = append(buf, payload...)

	checksum := DoubleSHA256(buf)
	buf = append(buf, checksum[:wifChecksumLen]...)

	return PubAddressPrefix + base58.Encode(buf)
}

// decodeWif reverses encodeWif, verifying the prefix, checksum, and that the
// leading type byte matches wantType, then returning the payload with the
// type byte and checksum stripped.
func decodeWif(s string, wantType uint8, payloadLen int) ([]byte, error) {
	if len(s) < len(PubAddressPrefix) || s[:len(PubAddressPrefix)] != PubAddressPrefix {
		return nil, newWifError(WifInvalidPrefix)
	}
	encoded := s[len(PubAddressPrefix):]
	if !isValidBase58(encoded) {
		return nil, newWifError(WifInvalidBs58Encoding)
	}
	raw := base58.Decode(encoded)

	if len(raw) != 1+payloadLen+wifChecksumLen {
		return nil, newWifError(WifInvalidLen)
	}
	if raw[0] != wantType {
		return nil, newWifError(WifInvalidPrefix)
	}

	body := raw[:len(raw)-wifChecksumLen]
	wantSum := raw[len(raw)-wifChecksumLen:]
	gotSum := DoubleSHA256(body)
	for i := 0; i < wifChecksumLen; i++ {
		if wantSum[i] != gotSum[i] {
			return nil, newWifError(WifInvalidChecksum)
		}
	}

	return body[1:], nil
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// isValidBase58 reports whether s contains only characters from the base58
// alphabet. base58.Decode silently drops unrecognized characters rather
// than erroring, so this check is what actually distinguishes a malformed
// encoding from a valid one.
func isValidBase58(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}

// ToWIF encodes the public key as a WIF string.
func (p PublicKey) ToWIF() string {
	return encodeWif(wifTypePublicKey, p.Bytes())
}

// PublicKeyFromWIF decodes a WIF-encoded public key.
func PublicKeyFromWIF(s string) (PublicKey, error) {
	payload, err := decodeWif(s, wifTypePublicKey, PublicKeySize)
	if err != nil {
		return PublicKey{}, err
	}
	key, _ := PublicKeyFromBytes(payload)
	return key, nil
}

// ToWIF encodes the private key (its seed) as a WIF string.
func (p PrivateKey) ToWIF() string {
	return encodeWif(wifTypePrivateKey, p.Seed())
}

// PrivateKeyFromWIF decodes a WIF-encoded private key.
func PrivateKeyFromWIF(s string) (PrivateKey, error) {
	payload, err := decodeWif(s, wifTypePrivateKey, SeedSize)
	if err != nil {
		return PrivateKey{}, err
	}
	key, ok := PrivateKeyFromSeed(payload)
	if !ok {
		return PrivateKey{}, errors.New("crypto: unreachable: bad seed length")
	}
	return key, nil
}

// ToWIF encodes the full keypair (via its private key's seed) as a WIF
// string; the public key is re-derived from the seed on decode.
func (k KeyPair) ToWIF() string {
	return k.Private.ToWIF()
}

// KeyPairFromWIF decodes a WIF-encoded private key and re-derives the full
// keypair.
func KeyPairFromWIF(s string) (KeyPair, error) {
	priv, err := PrivateKeyFromWIF(s)
	if err != nil {
		return KeyPair{}, err
	}
	pub, ok := PublicKeyFromBytes(priv.key.Public().(ed25519.PublicKey))
	if !ok {
		return KeyPair{}, errors.New("crypto: unreachable: bad public key length")
	}
	return KeyPair{Public: pub, Private: priv}, nil
}
