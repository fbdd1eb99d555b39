// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"testing"

	"github.com/godcoin-go/godcoin/asset"
)

func TestStackPushPopRoundTrip(t *testing.T) {
	s := NewStack()
	if err := s.Push(FrameAssetVal(asset.New(100))); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Push(FrameAccountIDVal(7)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	id, err := s.PopAccountID()
	if err != nil || id != 7 {
		t.Fatalf("PopAccountID = %v, %v, want 7, nil", id, err)
	}
	a, err := s.PopAsset()
	if err != nil || a.Amount != 100 {
		t.Fatalf("PopAsset = %v, %v, want 100, nil", a, err)
	}
	if !s.IsEmpty() {
		t.Fatal("stack should be empty after popping everything pushed")
	}
}

func TestStackUnderflow(t *testing.T) {
	s := NewStack()
	if _, err := s.Pop(); err == nil {
		t.Fatal("Pop on empty stack should fail")
	}
}

func TestStackOverflow(t *testing.T) {
	s := NewStack()
	for i := 0; i < MaxFrameStack; i++ {
		if err := s.Push(FrameBool(true)); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}
	if err := s.Push(FrameBool(true)); err == nil {
		t.Fatal("Push past MaxFrameStack should fail")
	}
}

func TestPopWrongKind(t *testing.T) {
	s := NewStack()
	if err := s.Push(FrameBool(true)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, err := s.PopAsset(); err == nil {
		t.Fatal("PopAsset on a bool frame should fail")
	}
}
