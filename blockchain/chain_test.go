// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/block"
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/script"
	"github.com/godcoin-go/godcoin/tx"
	"github.com/godcoin-go/godcoin/verify"
)

func openTestChain(t *testing.T) *Chain {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "blocks.log"), filepath.Join(dir, "index"), chaincfg.TestNetChainID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func nextBlock(t *testing.T, c *Chain, minter crypto.KeyPair, txs []*tx.Transaction) *block.Block {
	t.Helper()
	head, ok := c.GetChainHead()
	if !ok {
		t.Fatal("nextBlock: chain has no head yet")
	}
	b := &block.Block{
		Header: block.Header{
			PreviousHash: head.Hash(),
			Height:       head.Height + 1,
			Timestamp:    head.Timestamp + 3,
		},
		Transactions: txs,
	}
	b.Header.TxMerkleRoot = b.ComputeMerkleRoot()
	b.SignHeader(minter)
	return b
}

func signedTransfer(t *testing.T, signer crypto.KeyPair, from, to uint64, amount, fee asset.Asset, chainID chaincfg.ChainID) *tx.Transaction {
	t.Helper()
	tr := &tx.Transaction{
		TxType: tx.Transfer,
		Expiry: 1_000_000,
		Fee:    fee,
		Transfer: &tx.TransferData{
			FromAccountID: from,
			CallFn:        script.DefaultFnID,
			Args:          verify.EncodeTransferArgs(to, amount),
		},
	}
	precomp := tx.Precompute(tr)
	tr.SignaturePairs = []crypto.SigPair{precomp.Sign(chainID, signer)}
	return tr
}

func rewardTx(to account.ScriptHash, amount asset.Asset) *tx.Transaction {
	return &tx.Transaction{
		TxType: tx.Reward,
		Fee:    asset.New(0),
		Reward: &tx.RewardData{
			ToScriptHash: to,
			Rewards:      []asset.Asset{amount},
		},
	}
}

func TestCreateGenesisBlockEstablishesHeadAndBalances(t *testing.T) {
	c := openTestChain(t)
	minter, _ := crypto.GenerateKeyPair()
	staker, _ := crypto.GenerateKeyPair()

	b, err := c.CreateGenesisBlock(minter, staker, asset.New(1_000_000))
	if err != nil {
		t.Fatalf("CreateGenesisBlock: %v", err)
	}
	if b.Header.Height != 0 {
		t.Fatalf("genesis block height = %d, want 0", b.Header.Height)
	}

	height, ok := c.GetChainHeight()
	if !ok || height != 0 {
		t.Fatalf("GetChainHeight = %d, %v, want 0, true", height, ok)
	}

	minterAcct, found, err := c.GetAccount(0)
	if err != nil || !found || minterAcct.Balance != asset.New(1_000_000) {
		t.Fatalf("GetAccount(0) = %+v, %v, %v, want balance 1000000", minterAcct, found, err)
	}

	if _, err := c.CreateGenesisBlock(minter, staker, asset.New(1)); err != ErrAlreadyInitialized {
		t.Fatalf("second CreateGenesisBlock = %v, want ErrAlreadyInitialized", err)
	}
}

func TestInsertBlockRewardTick(t *testing.T) {
	c := openTestChain(t)
	minter, _ := crypto.GenerateKeyPair()
	staker, _ := crypto.GenerateKeyPair()
	if _, err := c.CreateGenesisBlock(minter, staker, asset.New(1_000_000)); err != nil {
		t.Fatalf("CreateGenesisBlock: %v", err)
	}

	stakerAcct, found, err := c.GetAccount(1)
	if err != nil || !found {
		t.Fatalf("GetAccount(1): found=%v err=%v", found, err)
	}

	tick := rewardTx(stakerAcct.ScriptHash(), asset.New(500))
	b := nextBlock(t, c, minter, []*tx.Transaction{tick})
	if err := c.InsertBlock(b); err != nil {
		t.Fatalf("InsertBlock: %v", err)
	}

	height, ok := c.GetChainHeight()
	if !ok || height != 1 {
		t.Fatalf("GetChainHeight after reward tick = %d, %v, want 1, true", height, ok)
	}

	got, _, err := c.GetAccount(1)
	if err != nil {
		t.Fatalf("GetAccount(1): %v", err)
	}
	if got.Balance != asset.New(500) {
		t.Fatalf("staker balance after reward tick = %s, want 500", got.Balance)
	}
}

// TestInsertBlockConsecutiveRewardOnlyBlocks is the steady-state minting
// scenario: the producer builds its reward transaction from constant
// fields only (no height or nonce), so two ticks in a row produce
// byte-identical reward transactions. A real chain must still accept the
// second block instead of rejecting it as a duplicate transaction.
func TestInsertBlockConsecutiveRewardOnlyBlocks(t *testing.T) {
	c := openTestChain(t)
	minter, _ := crypto.GenerateKeyPair()
	staker, _ := crypto.GenerateKeyPair()
	if _, err := c.CreateGenesisBlock(minter, staker, asset.New(1_000_000)); err != nil {
		t.Fatalf("CreateGenesisBlock: %v", err)
	}

	stakerAcct, found, err := c.GetAccount(1)
	if err != nil || !found {
		t.Fatalf("GetAccount(1): found=%v err=%v", found, err)
	}

	tick := func() *tx.Transaction {
		return rewardTx(stakerAcct.ScriptHash(), asset.New(500))
	}

	b1 := nextBlock(t, c, minter, []*tx.Transaction{tick()})
	if err := c.InsertBlock(b1); err != nil {
		t.Fatalf("InsertBlock(b1): %v", err)
	}

	// b2's reward transaction is identical in every field to b1's -- same
	// txid -- yet this is ordinary steady-state minting, not a replay.
	b2 := nextBlock(t, c, minter, []*tx.Transaction{tick()})
	if err := c.InsertBlock(b2); err != nil {
		t.Fatalf("InsertBlock(b2) with a repeat-identical reward transaction: %v", err)
	}

	height, ok := c.GetChainHeight()
	if !ok || height != 2 {
		t.Fatalf("GetChainHeight after two reward ticks = %d, %v, want 2, true", height, ok)
	}
	got, _, err := c.GetAccount(1)
	if err != nil {
		t.Fatalf("GetAccount(1): %v", err)
	}
	if got.Balance != asset.New(1000) {
		t.Fatalf("staker balance after two reward ticks = %s, want 1000", got.Balance)
	}
}

func TestInsertBlockTransferRoundTrip(t *testing.T) {
	c := openTestChain(t)
	minter, _ := crypto.GenerateKeyPair()
	staker, _ := crypto.GenerateKeyPair()
	if _, err := c.CreateGenesisBlock(minter, staker, asset.New(1_000_000)); err != nil {
		t.Fatalf("CreateGenesisBlock: %v", err)
	}

	transfer := signedTransfer(t, minter, 0, 1, asset.New(1000), chaincfg.GraelFeeMin, chaincfg.TestNetChainID)
	b := nextBlock(t, c, minter, []*tx.Transaction{transfer})
	if err := c.InsertBlock(b); err != nil {
		t.Fatalf("InsertBlock: %v", err)
	}

	from, _, err := c.GetAccount(0)
	if err != nil {
		t.Fatalf("GetAccount(0): %v", err)
	}
	wantFrom, _ := asset.New(1_000_000).Sub(asset.New(1000))
	wantFrom, _ = wantFrom.Sub(chaincfg.GraelFeeMin)
	if from.Balance != wantFrom {
		t.Fatalf("source balance after transfer = %s, want %s", from.Balance, wantFrom)
	}

	to, _, err := c.GetAccount(1)
	if err != nil {
		t.Fatalf("GetAccount(1): %v", err)
	}
	if to.Balance != asset.New(1000) {
		t.Fatalf("destination balance after transfer = %s, want 1000", to.Balance)
	}

	// The receipt must be filed under the payer's address, not the zero
	// hash.
	receipts, err := c.idx.ListReceipts(from.ScriptHash(), 10)
	if err != nil {
		t.Fatalf("ListReceipts: %v", err)
	}
	if len(receipts) != 1 || receipts[0].Height != b.Header.Height {
		t.Fatalf("ListReceipts(payer) = %+v, want one entry at height %d", receipts, b.Header.Height)
	}
}

func TestInsertBlockRejectsDuplicateTransaction(t *testing.T) {
	c := openTestChain(t)
	minter, _ := crypto.GenerateKeyPair()
	staker, _ := crypto.GenerateKeyPair()
	if _, err := c.CreateGenesisBlock(minter, staker, asset.New(1_000_000)); err != nil {
		t.Fatalf("CreateGenesisBlock: %v", err)
	}

	transfer := signedTransfer(t, minter, 0, 1, asset.New(1000), chaincfg.GraelFeeMin, chaincfg.TestNetChainID)
	b1 := nextBlock(t, c, minter, []*tx.Transaction{transfer})
	if err := c.InsertBlock(b1); err != nil {
		t.Fatalf("InsertBlock(b1): %v", err)
	}

	// Re-emplacing the exact same transaction (same txid, hence same
	// signature) in a later block must be rejected even though the block
	// itself is otherwise well-formed.
	b2 := nextBlock(t, c, minter, []*tx.Transaction{transfer})
	err := c.InsertBlock(b2)
	if err == nil || !strings.Contains(err.Error(), "duplicate transaction") {
		t.Fatalf("InsertBlock(b2) with a duplicate tx = %v, want a duplicate transaction error", err)
	}
}

func TestInsertBlockRejectsBadHeight(t *testing.T) {
	c := openTestChain(t)
	minter, _ := crypto.GenerateKeyPair()
	staker, _ := crypto.GenerateKeyPair()
	if _, err := c.CreateGenesisBlock(minter, staker, asset.New(1_000_000)); err != nil {
		t.Fatalf("CreateGenesisBlock: %v", err)
	}

	head, _ := c.GetChainHead()
	b := &block.Block{
		Header: block.Header{
			PreviousHash: head.Hash(),
			Height:       5,
		},
	}
	b.Header.TxMerkleRoot = b.ComputeMerkleRoot()
	b.SignHeader(minter)

	if err := c.InsertBlock(b); err == nil {
		t.Fatal("InsertBlock accepted a block at the wrong height")
	}
}

func TestInsertBlockRejectsUnfundedTransfer(t *testing.T) {
	c := openTestChain(t)
	minter, _ := crypto.GenerateKeyPair()
	staker, _ := crypto.GenerateKeyPair()
	if _, err := c.CreateGenesisBlock(minter, staker, asset.New(1_000_000)); err != nil {
		t.Fatalf("CreateGenesisBlock: %v", err)
	}

	transfer := signedTransfer(t, staker, 1, 0, asset.New(1), chaincfg.GraelFeeMin, chaincfg.TestNetChainID)
	b := nextBlock(t, c, minter, []*tx.Transaction{transfer})
	if err := c.InsertBlock(b); err == nil {
		t.Fatal("InsertBlock accepted a transfer from a zero-balance account")
	}

	// The chain must not have advanced past genesis.
	height, _ := c.GetChainHeight()
	if height != 0 {
		t.Fatalf("GetChainHeight after a rejected block = %d, want 0", height)
	}
}

func TestAddressInfoReflectsFeeWindowAfterTransfers(t *testing.T) {
	c := openTestChain(t)
	minter, _ := crypto.GenerateKeyPair()
	staker, _ := crypto.GenerateKeyPair()
	if _, err := c.CreateGenesisBlock(minter, staker, asset.New(10_000_000)); err != nil {
		t.Fatalf("CreateGenesisBlock: %v", err)
	}

	minterAcct, _, _ := c.GetAccount(0)
	before, err := c.AddressInfo(minterAcct.ScriptHash(), nil)
	if err != nil {
		t.Fatalf("AddressInfo: %v", err)
	}
	if before.AddrFee != asset.New(0) {
		t.Fatalf("AddrFee before any transfers = %s, want 0", before.AddrFee)
	}

	transfer := signedTransfer(t, minter, 0, 1, asset.New(1000), chaincfg.GraelFeeMin, chaincfg.TestNetChainID)
	b := nextBlock(t, c, minter, []*tx.Transaction{transfer})
	if err := c.InsertBlock(b); err != nil {
		t.Fatalf("InsertBlock: %v", err)
	}

	after, err := c.AddressInfo(minterAcct.ScriptHash(), nil)
	if err != nil {
		t.Fatalf("AddressInfo: %v", err)
	}
	if after.AddrFee.Cmp(before.AddrFee) <= 0 {
		t.Fatalf("AddrFee after a transfer = %s, want greater than %s", after.AddrFee, before.AddrFee)
	}
}
