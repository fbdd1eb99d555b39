// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	msg := []byte("transfer 1.00000 TEST")
	sig := kp.Sign(msg)
	if !kp.Verify(msg, sig) {
		t.Fatal("Verify rejected a signature produced by the same key")
	}

	other, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if other.Public.Equal(kp.Public) {
		t.Fatal("two independently generated keys compared equal")
	}
	if other.Verify(msg, sig) {
		t.Fatal("Verify accepted a signature under the wrong public key")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	sig := kp.Sign([]byte("original"))
	if kp.Verify([]byte("tampered"), sig) {
		t.Fatal("Verify accepted a signature over a different message")
	}
}

func TestPublicKeyFromBytesRejectsWrongLength(t *testing.T) {
	if _, ok := PublicKeyFromBytes(make([]byte, PublicKeySize-1)); ok {
		t.Fatal("PublicKeyFromBytes accepted short input")
	}
}

func TestPrivateKeyFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	a, ok := PrivateKeyFromSeed(seed)
	if !ok {
		t.Fatal("PrivateKeyFromSeed rejected valid seed")
	}
	b, ok := PrivateKeyFromSeed(seed)
	if !ok {
		t.Fatal("PrivateKeyFromSeed rejected valid seed")
	}
	msg := []byte("determinism check")
	if a.Sign(msg) != b.Sign(msg) {
		t.Fatal("same seed produced different signatures")
	}
}
