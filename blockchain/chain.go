// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain is the chain facade: it owns the block log and index,
// serializes all mutation behind a single lock, and drives every insertion
// through verify's rule checks. It plays the role EXCCoin's blockchain
// package plays around its header-tree/utxo-view machinery, specialized to
// godcoin's single-minter, account-based ledger: there is no side-chain
// reorg logic here, since only one block may ever extend the current head.
package blockchain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/block"
	"github.com/godcoin-go/godcoin/blockchain/blocklog"
	"github.com/godcoin-go/godcoin/blockchain/indexer"
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/tx"
	"github.com/godcoin-go/godcoin/verify"
)

// ErrAlreadyInitialized is returned by CreateGenesisBlock when the chain
// already has a head.
var ErrAlreadyInitialized = errors.New("blockchain: genesis block already created")

// ErrNotInitialized is returned by operations that require a genesis block
// to already exist.
var ErrNotInitialized = errors.New("blockchain: chain has not been initialized")

// Chain is the durable, serialized view of godcoin's ledger: a blocklog.Log
// of every block ever accepted, an indexer.Indexer over it, and the
// in-memory fee window the index does not itself track history for (the
// bond lives in the index's properties record). chainLock serializes every mutation; reads that only need a
// consistent snapshot take the read side.
type Chain struct {
	chainLock sync.RWMutex

	chainID chaincfg.ChainID
	log     *blocklog.Log
	idx     *indexer.Indexer

	head      block.Header
	haveHead  bool
	feeWindow *feeWindow
}

// Open opens the block log at logPath and the index at idxPath, recovering
// any torn trailing record left by a prior crash before resuming.
func Open(logPath, idxPath string, chainID chaincfg.ChainID) (*Chain, error) {
	l, err := blocklog.Open(logPath)
	if err != nil {
		return nil, err
	}
	idx, err := indexer.Open(idxPath)
	if err != nil {
		l.Close()
		return nil, err
	}

	props, err := idx.GetProperties()
	if err != nil {
		idx.Close()
		l.Close()
		return nil, err
	}

	c := &Chain{
		chainID:   chainID,
		log:       l,
		idx:       idx,
		feeWindow: newFeeWindow(0),
	}

	if props.HeadHeight > 0 || props.TokenSupply.Amount > 0 {
		offset, found, err := idx.GetBlockOffset(props.HeadHeight)
		if err != nil {
			idx.Close()
			l.Close()
			return nil, err
		}
		if !found {
			idx.Close()
			l.Close()
			return nil, fmt.Errorf("blockchain: indexed head height %d has no log offset", props.HeadHeight)
		}
		b, err := l.ReadAt(int64(offset))
		if err != nil {
			idx.Close()
			l.Close()
			return nil, err
		}
		if _, err := l.Recover(int64(offset)); err != nil {
			idx.Close()
			l.Close()
			return nil, err
		}
		c.head = b.Header
		c.haveHead = true
		c.feeWindow = newFeeWindow(props.HeadHeight)
		log.Infof("blockchain: resumed at height %d", props.HeadHeight)
	}

	return c, nil
}

// Close releases the log and index file handles.
func (c *Chain) Close() error {
	idxErr := c.idx.Close()
	logErr := c.log.Close()
	if idxErr != nil {
		return idxErr
	}
	return logErr
}

// ChainID returns the network's chain id, satisfying verify.ChainView.
func (c *Chain) ChainID() chaincfg.ChainID {
	return c.chainID
}

// GetChainHead returns the header of the most recently accepted block.
func (c *Chain) GetChainHead() (block.Header, bool) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	return c.head, c.haveHead
}

// GetChainHeight returns the height of the most recently accepted block, or
// false if the chain has no genesis block yet.
func (c *Chain) GetChainHeight() (uint64, bool) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	if !c.haveHead {
		return 0, false
	}
	return c.head.Height, true
}

// GetBlock returns the block at height.
func (c *Chain) GetBlock(height uint64) (*block.Block, bool, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	offset, found, err := c.idx.GetBlockOffset(height)
	if err != nil || !found {
		return nil, false, err
	}
	b, err := c.log.ReadAt(int64(offset))
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// GetAccount returns the account record for id, satisfying verify.ChainView.
func (c *Chain) GetAccount(id uint64) (account.Account, bool, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	return c.idx.GetAccount(id)
}

// HasTx reports whether txid has already been committed to the chain. The
// pool consults this, in addition to its own in-memory manager, so a
// freshly restarted pool still enforces invariant I2 against chain history.
func (c *Chain) HasTx(txid tx.Txid) (bool, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	return c.idx.HasTx(txid)
}

// CurrentBond returns the active minter/staker pair, satisfying
// verify.ChainView.
func (c *Chain) CurrentBond() verify.Bond {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	return c.currentBondLocked()
}

func (c *Chain) currentBondLocked() verify.Bond {
	props, err := c.idx.GetProperties()
	if err != nil {
		return verify.Bond{}
	}
	return verify.Bond{Minter: props.Bond.Minter, Staker: props.Bond.Staker}
}

// AddressInfo composes the indexed balance and script for addr's account
// with the sliding fee window (adjusted for pending's as-yet-uncommitted
// transactions from the same address), satisfying verify.ChainView. Callers
// holding the pool's lock pass its pending tail so fee escalation already
// accounts for transactions about to be admitted ahead of this one.
func (c *Chain) AddressInfo(addr account.ScriptHash, pending []*tx.Transaction) (verify.AddressInfo, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()
	return c.addressInfoLocked(addr, pending)
}

func (c *Chain) addressInfoLocked(addr account.ScriptHash, pending []*tx.Transaction) (verify.AddressInfo, error) {
	acct, found, err := c.idx.GetAccountByScriptHash(addr)
	if err != nil {
		return verify.AddressInfo{}, err
	}
	if !found {
		return verify.AddressInfo{}, fmt.Errorf("blockchain: no account for script hash %s", addr)
	}

	netFee, addrFee, ok := c.feeWindow.fees(addr)
	if !ok {
		return verify.AddressInfo{}, errors.New("blockchain: fee computation overflowed")
	}

	pendingFromAddr := uint32(0)
	for _, t := range pending {
		if t.TxType == tx.Transfer && t.Transfer.FromAccountID == acct.ID {
			pendingFromAddr++
		}
	}
	if pendingFromAddr > 0 {
		extra, ok := chaincfg.GraelFeeMult.Scale(pendingFromAddr)
		if !ok {
			return verify.AddressInfo{}, errors.New("blockchain: pending fee escalation overflowed")
		}
		sum, ok := addrFee.Add(extra)
		if !ok {
			return verify.AddressInfo{}, errors.New("blockchain: pending fee escalation overflowed")
		}
		addrFee = sum
	}

	return verify.AddressInfo{
		Balance: acct.Balance,
		NetFee:  netFee,
		AddrFee: addrFee,
		Script:  acct.Script,
	}, nil
}

// selfView adapts a Chain already under its own write lock into a
// verify.ChainView without re-taking chainLock -- sync.RWMutex is not
// reentrant, so InsertBlock (which holds the write lock for the whole
// block) cannot call through the locking public methods when it invokes
// verify.Tx on itself.
type selfView struct {
	c *Chain
}

func (v selfView) GetAccount(id uint64) (account.Account, bool, error) {
	return v.c.idx.GetAccount(id)
}

func (v selfView) AddressInfo(addr account.ScriptHash, pending []*tx.Transaction) (verify.AddressInfo, error) {
	return v.c.addressInfoLocked(addr, pending)
}

func (v selfView) CurrentBond() verify.Bond {
	return v.c.currentBondLocked()
}

func (v selfView) ChainID() chaincfg.ChainID {
	return v.c.chainID
}

// CreateGenesisBlock establishes the chain's initial bond and emits block 0,
// crediting initialBalance to the minter's freshly created account (id 0)
// and creating the staker's account (id 1) with a zero balance. Block 0's
// Reward transaction names the staker and initialBalance but is recorded
// only; its amount is not added to the staker's balance. It may only be
// called once, on an otherwise-empty chain.
func (c *Chain) CreateGenesisBlock(minter, staker crypto.KeyPair, initialBalance asset.Asset) (*block.Block, error) {
	c.chainLock.Lock()
	defer c.chainLock.Unlock()

	if c.haveHead {
		return nil, ErrAlreadyInitialized
	}

	minterScript, err := account.DefaultScript(minter.Public)
	if err != nil {
		return nil, err
	}
	stakerScript, err := account.DefaultScript(staker.Public)
	if err != nil {
		return nil, err
	}

	minterAcct := account.Account{
		ID:          0,
		Balance:     initialBalance,
		Script:      minterScript,
		Permissions: account.Permissions{Threshold: 1, Keys: []crypto.PublicKey{minter.Public}},
	}
	stakerAcct := account.Account{
		ID:          1,
		Balance:     asset.New(0),
		Script:      stakerScript,
		Permissions: account.Permissions{Threshold: 1, Keys: []crypto.PublicKey{staker.Public}},
	}

	genesisTx := &tx.Transaction{
		TxType: tx.Reward,
		Expiry: 0,
		Fee:    asset.New(0),
		Reward: &tx.RewardData{
			ToScriptHash: stakerAcct.ScriptHash(),
			Rewards:      []asset.Asset{initialBalance},
		},
	}

	b := &block.Block{
		Header: block.Header{
			Height: 0,
		},
		Transactions: []*tx.Transaction{genesisTx},
	}
	b.Header.TxMerkleRoot = b.ComputeMerkleRoot()
	b.SignHeader(minter)

	offset, err := c.log.Append(b)
	if err != nil {
		return nil, err
	}

	batch := indexer.NewBatch()
	batch.SetBlockOffset(0, uint64(offset))
	batch.SetTxExpiry(indexerTxid(genesisTx), 0)
	batch.PutAccount(minterAcct)
	batch.PutAccount(stakerAcct)
	batch.SetProperties(indexer.Properties{
		HeadHeight:    0,
		TokenSupply:   initialBalance,
		NextAccountID: 2,
		Bond: indexer.Bond{
			Minter: minter.Public,
			Staker: staker.Public,
			Amount: initialBalance,
		},
	})
	if err := c.idx.Commit(batch); err != nil {
		return nil, err
	}

	c.head = b.Header
	c.haveHead = true
	c.feeWindow = newFeeWindow(0)
	c.feeWindow.Observe(0, map[account.ScriptHash]uint32{})

	log.Infof("blockchain: created genesis block, supply %s", initialBalance)
	return b, nil
}

func indexerTxid(t *tx.Transaction) tx.Txid {
	return tx.Precompute(t).Txid()
}

// InsertBlock validates b against the current head and minter key, applies
// every transaction's effects, and durably appends it. It is the single
// entry point that advances the chain.
func (c *Chain) InsertBlock(b *block.Block) error {
	c.chainLock.Lock()
	defer c.chainLock.Unlock()

	if !c.haveHead {
		return ErrNotInitialized
	}
	props, err := c.idx.GetProperties()
	if err != nil {
		return err
	}

	if err := verify.Block(c.head, b, props.Bond.Minter); err != nil {
		return err
	}

	batch := indexer.NewBatch()
	addrCounts := make(map[account.ScriptHash]uint32)

	for i, t := range b.Transactions {
		precomp := tx.Precompute(t)

		// The block's own reward transaction is exempt from the txid-dedup
		// index: its body is built from constant fields (no height or nonce),
		// so its txid repeats on every tick. Only pool-sourced transactions
		// need the once-ever guarantee HasTx/SetTxExpiry provide.
		isBlockReward := i == 0 && t.TxType == tx.Reward

		if !isBlockReward {
			if has, err := c.idx.HasTx(precomp.Txid()); err != nil {
				return err
			} else if has {
				return fmt.Errorf("blockchain: duplicate transaction at index %d", i)
			}
		}

		skip := verify.SkipFlags(0)
		if isBlockReward {
			skip = verify.SkipRewardProhibition
		}
		if err := verify.Tx(selfView{c}, precomp, nil, skip); err != nil {
			return fmt.Errorf("blockchain: transaction %d rejected: %w", i, verify.TxFailedInBlock(err))
		}

		if err := c.applyTx(batch, &props, t, addrCounts); err != nil {
			return fmt.Errorf("blockchain: applying transaction %d: %w", i, err)
		}

		if !isBlockReward {
			batch.SetTxExpiry(precomp.Txid(), t.Expiry)
		}
		receiptAddr, err := c.receiptAddrOf(t)
		if err != nil {
			return fmt.Errorf("blockchain: indexing receipt for transaction %d: %w", i, err)
		}
		batch.AppendReceiptPointer(receiptAddr, indexer.ReceiptPointer{
			Height:  b.Header.Height,
			TxIndex: uint32(i),
		})
	}

	offset, err := c.log.Append(b)
	if err != nil {
		return err
	}
	batch.SetBlockOffset(b.Header.Height, uint64(offset))
	props.HeadHeight = b.Header.Height
	batch.SetProperties(props)

	if err := c.idx.Commit(batch); err != nil {
		return err
	}

	c.head = b.Header
	c.feeWindow.Observe(b.Header.Height, addrCounts)
	log.Infof("blockchain: accepted block %d with %d transactions", b.Header.Height, len(b.Transactions))
	return nil
}

// receiptAddrOf returns the address a transaction's receipt should be
// indexed under: the payer for Transfer, the recipient for Reward, and the
// zero hash for Mint and Owner (neither has an account.ScriptHash of its
// own worth indexing under: Mint targets an account id directly and Owner's
// wallet script is only adopted after this transaction applies).
func (c *Chain) receiptAddrOf(t *tx.Transaction) (account.ScriptHash, error) {
	switch t.TxType {
	case tx.Transfer:
		from, found, err := c.idx.GetAccount(t.Transfer.FromAccountID)
		if err != nil {
			return account.ScriptHash{}, err
		}
		if !found {
			return account.ScriptHash{}, fmt.Errorf("blockchain: unknown source account %d", t.Transfer.FromAccountID)
		}
		return from.ScriptHash(), nil
	case tx.Reward:
		return t.Reward.ToScriptHash, nil
	default:
		return account.ScriptHash{}, nil
	}
}

// applyTx mutates the account records a transaction affects, staging the
// changes in batch, and updates props in place (new token supply, rotated
// bond, or an allocated account id) so the caller persists exactly one
// properties record per block regardless of how many transactions touched
// it.
func (c *Chain) applyTx(batch *indexer.Batch, props *indexer.Properties, t *tx.Transaction, addrCounts map[account.ScriptHash]uint32) error {
	switch t.TxType {
	case tx.Reward:
		acct, found, err := c.idx.GetAccountByScriptHash(t.Reward.ToScriptHash)
		if err != nil {
			return err
		}
		if !found {
			acct = account.Account{ID: props.NextAccountID, Balance: asset.New(0)}
			props.NextAccountID++
		}
		for _, r := range t.Reward.Rewards {
			sum, ok := acct.Balance.Add(r)
			if !ok {
				return errors.New("reward overflowed recipient balance")
			}
			acct.Balance = sum
		}
		batch.PutAccount(acct)
		return nil

	case tx.Transfer:
		from, found, err := c.idx.GetAccount(t.Transfer.FromAccountID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("unknown source account %d", t.Transfer.FromAccountID)
		}

		addrCounts[from.ScriptHash()]++

		toID, amount, err := verify.DecodeTransferArgs(t.Transfer.Args)
		if err != nil {
			return err
		}

		to, found, err := c.idx.GetAccount(toID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("unknown destination account %d", toID)
		}

		debited, ok := from.Balance.Sub(amount)
		if !ok {
			return errors.New("transfer amount exceeded source balance")
		}
		debited, ok = debited.Sub(t.Fee)
		if !ok {
			return errors.New("fee exceeded remaining source balance")
		}
		from.Balance = debited

		credited, ok := to.Balance.Add(amount)
		if !ok {
			return errors.New("transfer overflowed destination balance")
		}
		to.Balance = credited

		batch.PutAccount(from)
		batch.PutAccount(to)
		return nil

	case tx.Mint:
		acct, found, err := c.idx.GetAccount(t.Mint.ToAccountID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("unknown mint destination account %d", t.Mint.ToAccountID)
		}
		credited, ok := acct.Balance.Add(t.Mint.Amount)
		if !ok {
			return errors.New("mint overflowed destination balance")
		}
		acct.Balance = credited
		batch.PutAccount(acct)

		newSupply, ok := props.TokenSupply.Add(t.Mint.Amount)
		if !ok {
			return errors.New("mint overflowed total supply")
		}
		props.TokenSupply = newSupply
		return nil

	case tx.Owner:
		// The wire format gives Owner no explicit target account id, so the
		// new wallet script is applied to whichever account the outgoing
		// minter key currently owns (found via its default script's hash);
		// an account that rotated away from DefaultScript is left alone.
		if oldScript, err := account.DefaultScript(props.Bond.Minter); err == nil {
			oldHash := account.HashScript(oldScript)
			if acct, found, err := c.idx.GetAccountByScriptHash(oldHash); err == nil && found && acct.ScriptHash() == oldHash && !acct.Permissions.Immutable() {
				acct.Script = t.Owner.WalletScript
				batch.PutAccount(acct)
			}
		}
		props.Bond.Minter = t.Owner.MinterPubKey
		return nil

	default:
		return fmt.Errorf("unrecognized transaction type %v", t.TxType)
	}
}
