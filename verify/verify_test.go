// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verify

import (
	"testing"

	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/block"
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/script"
	"github.com/godcoin-go/godcoin/tx"
)

// fakeChain is a minimal hand-written ChainView: verify cannot import the
// blockchain package (blockchain imports verify), so tests stand in their own
// fake rather than the real facade.
type fakeChain struct {
	accounts map[uint64]account.Account
	info     AddressInfo
	bond     Bond
	chainID  chaincfg.ChainID
}

func (f *fakeChain) GetAccount(id uint64) (account.Account, bool, error) {
	a, found := f.accounts[id]
	return a, found, nil
}

func (f *fakeChain) AddressInfo(addr account.ScriptHash, pending []*tx.Transaction) (AddressInfo, error) {
	return f.info, nil
}

func (f *fakeChain) CurrentBond() Bond {
	return f.bond
}

func (f *fakeChain) ChainID() chaincfg.ChainID {
	return f.chainID
}

func newFundedAccount(t *testing.T, id uint64, balance asset.Asset) (account.Account, crypto.KeyPair) {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	s, err := account.DefaultScript(kp.Public)
	if err != nil {
		t.Fatalf("DefaultScript: %v", err)
	}
	return account.Account{
		ID:      id,
		Balance: balance,
		Script:  s,
		Permissions: account.Permissions{
			Threshold: 1,
			Keys:      []crypto.PublicKey{kp.Public},
		},
	}, kp
}

func buildSignedTransfer(t *testing.T, kp crypto.KeyPair, from uint64, to uint64, amount, fee asset.Asset, chainID chaincfg.ChainID) (*tx.PrecompData, *tx.Transaction) {
	t.Helper()
	tr := &tx.Transaction{
		TxType: tx.Transfer,
		Expiry: 1_000_000,
		Fee:    fee,
		Transfer: &tx.TransferData{
			FromAccountID: from,
			CallFn:        script.DefaultFnID,
			Args:          EncodeTransferArgs(to, amount),
		},
	}
	precomp := tx.Precompute(tr)
	tr.SignaturePairs = []crypto.SigPair{precomp.Sign(chainID, kp)}
	return precomp, tr
}

func TestVerifyTransferSucceedsWithSufficientBalanceAndFee(t *testing.T) {
	acct, kp := newFundedAccount(t, 1, asset.New(10_000))
	chain := &fakeChain{
		accounts: map[uint64]account.Account{1: acct},
		info:     AddressInfo{NetFee: asset.New(0), AddrFee: asset.New(0)},
		chainID:  chaincfg.MainNetChainID,
	}

	precomp, _ := buildSignedTransfer(t, kp, 1, 2, asset.New(100), chaincfg.GraelFeeMin, chaincfg.MainNetChainID)
	if err := Tx(chain, precomp, nil, 0); err != nil {
		t.Fatalf("Tx() = %v, want nil", err)
	}
}

func TestVerifyTransferRejectsFeeBelowWindowMinimum(t *testing.T) {
	acct, kp := newFundedAccount(t, 1, asset.New(10_000))
	chain := &fakeChain{
		accounts: map[uint64]account.Account{1: acct},
		info:     AddressInfo{NetFee: asset.New(500), AddrFee: asset.New(0)},
		chainID:  chaincfg.MainNetChainID,
	}

	// Fee covers only the flat floor, not the address-info-driven component.
	precomp, _ := buildSignedTransfer(t, kp, 1, 2, asset.New(100), chaincfg.GraelFeeMin, chaincfg.MainNetChainID)
	err := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrInvalidFee {
		t.Fatalf("Tx() = %v, want ErrInvalidFee", err)
	}
}

func TestVerifyTransferRejectsInsufficientBalance(t *testing.T) {
	acct, kp := newFundedAccount(t, 1, asset.New(50))
	chain := &fakeChain{
		accounts: map[uint64]account.Account{1: acct},
		info:     AddressInfo{},
		chainID:  chaincfg.MainNetChainID,
	}

	fee, _ := chaincfg.GraelFeeMin.Add(asset.New(0))
	precomp, _ := buildSignedTransfer(t, kp, 1, 2, asset.New(1000), fee, chaincfg.MainNetChainID)
	err := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrInsufficientBalance {
		t.Fatalf("Tx() = %v, want ErrInsufficientBalance", err)
	}
}

func TestVerifyTransferRejectsWrongSignature(t *testing.T) {
	acct, _ := newFundedAccount(t, 1, asset.New(10_000))
	other, _ := crypto.GenerateKeyPair()
	chain := &fakeChain{
		accounts: map[uint64]account.Account{1: acct},
		info:     AddressInfo{},
		chainID:  chaincfg.MainNetChainID,
	}

	precomp, _ := buildSignedTransfer(t, other, 1, 2, asset.New(100), chaincfg.GraelFeeMin, chaincfg.MainNetChainID)
	err := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrScriptEval {
		t.Fatalf("Tx() with a signature from the wrong key = %v, want ErrScriptEval", err)
	}
}

func TestVerifyTransferRejectsUnknownAccount(t *testing.T) {
	kp, _ := crypto.GenerateKeyPair()
	chain := &fakeChain{
		accounts: map[uint64]account.Account{},
		chainID:  chaincfg.MainNetChainID,
	}

	precomp, _ := buildSignedTransfer(t, kp, 1, 2, asset.New(100), chaincfg.GraelFeeMin, chaincfg.MainNetChainID)
	err := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrUnknownAccount {
		t.Fatalf("Tx() for an unknown account = %v, want ErrUnknownAccount", err)
	}
}

func TestVerifyRewardProhibitedOutsideSkipFlag(t *testing.T) {
	chain := &fakeChain{chainID: chaincfg.MainNetChainID}
	tr := &tx.Transaction{
		TxType: tx.Reward,
		Reward: &tx.RewardData{ToScriptHash: account.ScriptHash{}},
	}
	precomp := tx.Precompute(tr)

	err := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrTxProhibited {
		t.Fatalf("Tx(Reward) without SkipRewardProhibition = %v, want ErrTxProhibited", err)
	}

	if err := Tx(chain, precomp, nil, SkipRewardProhibition); err != nil {
		t.Fatalf("Tx(Reward) with SkipRewardProhibition = %v, want nil", err)
	}
}

func TestVerifyMintRequiresMinterSignature(t *testing.T) {
	minter, _ := crypto.GenerateKeyPair()
	impostor, _ := crypto.GenerateKeyPair()
	chain := &fakeChain{
		bond:    Bond{Minter: minter.Public},
		chainID: chaincfg.MainNetChainID,
	}

	tr := &tx.Transaction{
		TxType: tx.Mint,
		Fee:    chaincfg.GraelFeeMin,
		Mint:   &tx.MintData{ToAccountID: 1, Amount: asset.New(1000)},
	}
	precomp := tx.Precompute(tr)
	tr.SignaturePairs = []crypto.SigPair{precomp.Sign(chaincfg.MainNetChainID, impostor)}

	err := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrSignatureInvalid {
		t.Fatalf("Tx(Mint) signed by a non-minter key = %v, want ErrSignatureInvalid", err)
	}

	tr2 := &tx.Transaction{
		TxType: tx.Mint,
		Fee:    chaincfg.GraelFeeMin,
		Mint:   &tx.MintData{ToAccountID: 1, Amount: asset.New(1000)},
	}
	precomp2 := tx.Precompute(tr2)
	tr2.SignaturePairs = []crypto.SigPair{precomp2.Sign(chaincfg.MainNetChainID, minter)}
	if err := Tx(chain, precomp2, nil, 0); err != nil {
		t.Fatalf("Tx(Mint) signed by the minter = %v, want nil", err)
	}
}

func TestVerifyMintRejectsFeeBelowFlatFloor(t *testing.T) {
	minter, _ := crypto.GenerateKeyPair()
	chain := &fakeChain{
		bond:    Bond{Minter: minter.Public},
		chainID: chaincfg.MainNetChainID,
	}
	tr := &tx.Transaction{
		TxType: tx.Mint,
		Fee:    asset.New(1),
		Mint:   &tx.MintData{ToAccountID: 1, Amount: asset.New(1000)},
	}
	precomp := tx.Precompute(tr)
	tr.SignaturePairs = []crypto.SigPair{precomp.Sign(chaincfg.MainNetChainID, minter)}

	err := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrInvalidFee {
		t.Fatalf("Tx(Mint) with a below-floor fee = %v, want ErrInvalidFee", err)
	}
}

func TestVerifyOwnerRequiresMinterSignature(t *testing.T) {
	minter, _ := crypto.GenerateKeyPair()
	newOwner, _ := crypto.GenerateKeyPair()
	impostor, _ := crypto.GenerateKeyPair()
	chain := &fakeChain{
		bond:    Bond{Minter: minter.Public},
		chainID: chaincfg.MainNetChainID,
	}

	newScript, err := account.DefaultScript(newOwner.Public)
	if err != nil {
		t.Fatalf("DefaultScript: %v", err)
	}
	tr := &tx.Transaction{
		TxType: tx.Owner,
		Fee:    chaincfg.GraelFeeMin,
		Owner:  &tx.OwnerData{MinterPubKey: newOwner.Public, WalletScript: newScript},
	}
	precomp := tx.Precompute(tr)
	tr.SignaturePairs = []crypto.SigPair{precomp.Sign(chaincfg.MainNetChainID, impostor)}

	err2 := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err2.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrSignatureInvalid {
		t.Fatalf("Tx(Owner) signed by a non-minter key = %v, want ErrSignatureInvalid", err2)
	}
}

func TestVerifyTxRejectsMalformedTransaction(t *testing.T) {
	chain := &fakeChain{chainID: chaincfg.MainNetChainID}
	tr := &tx.Transaction{TxType: tx.Transfer}
	precomp := tx.Precompute(tr)

	err := Tx(chain, precomp, nil, 0)
	ruleErr, ok := err.(*TxRuleError)
	if !ok || ruleErr.ErrorCode != ErrMalformedArgs {
		t.Fatalf("Tx() on a malformed transaction = %v, want ErrMalformedArgs", err)
	}
}

func TestVerifyBlockRejectsWrongHeight(t *testing.T) {
	minter, _ := crypto.GenerateKeyPair()
	head := block.Header{Height: 5}
	b := &block.Block{Header: block.Header{Height: 7, PreviousHash: head.Hash()}}
	b.SignHeader(minter)

	err := Block(head, b, minter.Public)
	ruleErr, ok := err.(*BlockRuleError)
	if !ok || ruleErr.ErrorCode != ErrBadHeight {
		t.Fatalf("Block() with wrong height = %v, want ErrBadHeight", err)
	}
}

func TestVerifyBlockRejectsWrongPrevHash(t *testing.T) {
	minter, _ := crypto.GenerateKeyPair()
	head := block.Header{Height: 5}
	b := &block.Block{Header: block.Header{Height: 6, PreviousHash: block.Hash{0xFF}}}
	b.SignHeader(minter)

	err := Block(head, b, minter.Public)
	ruleErr, ok := err.(*BlockRuleError)
	if !ok || ruleErr.ErrorCode != ErrBadPrevHash {
		t.Fatalf("Block() with wrong previous hash = %v, want ErrBadPrevHash", err)
	}
}

func TestVerifyBlockRejectsWrongMinterKey(t *testing.T) {
	minter, _ := crypto.GenerateKeyPair()
	impostor, _ := crypto.GenerateKeyPair()
	head := block.Header{Height: 5}
	b := &block.Block{Header: block.Header{Height: 6, PreviousHash: head.Hash()}}
	b.Header.TxMerkleRoot = b.ComputeMerkleRoot()
	b.SignHeader(impostor)

	err := Block(head, b, minter.Public)
	ruleErr, ok := err.(*BlockRuleError)
	if !ok || ruleErr.ErrorCode != ErrBadMinterSignature {
		t.Fatalf("Block() signed by a non-minter key = %v, want ErrBadMinterSignature", err)
	}
}

func TestVerifyBlockAcceptsValidCandidate(t *testing.T) {
	minter, _ := crypto.GenerateKeyPair()
	head := block.Header{Height: 5}
	b := &block.Block{Header: block.Header{Height: 6, PreviousHash: head.Hash()}}
	b.Header.TxMerkleRoot = b.ComputeMerkleRoot()
	b.SignHeader(minter)

	if err := Block(head, b, minter.Public); err != nil {
		t.Fatalf("Block() on a well-formed candidate = %v, want nil", err)
	}
}
