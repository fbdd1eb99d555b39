// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pool implements godcoin's pending-transaction buffer: admission
// against chain state, expiry and duplicate rejection, and a flush the
// producer drains on every tick. It plays the role EXCCoin's mempool
// package plays for the UTXO mempool, specialized to a single-minter,
// no-priority FIFO buffer rather than a fee-ranked selection structure --
// there is no competing-block selection problem when only one party is
// ever allowed to produce the next block.
package pool

import (
	"errors"
	"sync"
	"time"

	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/tx"
	"github.com/godcoin-go/godcoin/verify"
)

// initialCapacity is the pending vector's starting size, matching the
// producer's typical per-interval transaction volume.
const initialCapacity = 1024

// Chain is the slice of the chain facade the pool needs: rule verification
// and the address-fee view verify_tx consults.
type Chain interface {
	verify.ChainView
}

// ErrTxExpired is returned by Push when a transaction's expiry is already
// past, or set further into the future than chaincfg.TxMaxExpiryTime
// permits.
var ErrTxExpired = errors.New("pool: transaction expired or expiry out of range")

// ErrTxDupe is returned by Push when the transaction's id is already
// pending or already committed.
var ErrTxDupe = errors.New("pool: duplicate transaction")

// nowMs returns the current wall-clock time in milliseconds since the
// epoch, the unit expiry is expressed in.
func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}

// entry is one admitted, not-yet-drained transaction.
type entry struct {
	precomp *tx.PrecompData
	expiry  uint64
}

// TxPool is the single-writer pending buffer sitting in front of the chain
// facade's insert_block pipeline. mu is always acquired before the chain's
// own write lock is taken by anything this pool calls into, per the
// ordering rule governing this core's concurrency model.
type TxPool struct {
	mu      sync.Mutex
	chain   Chain
	pending []entry
	manager map[tx.Txid]uint64
}

// New returns an empty pool backed by chain.
func New(chain Chain) *TxPool {
	return &TxPool{
		chain:   chain,
		pending: make([]entry, 0, initialCapacity),
		manager: make(map[tx.Txid]uint64),
	}
}

// Push admits precomp's transaction if it is not expired, not a duplicate,
// and passes chain verification against the pool's current pending tail.
// Reward transactions are always rejected here -- they may only be
// emplaced by the producer directly into a block, per spec.
func (p *TxPool) Push(precomp *tx.PrecompData, skip verify.SkipFlags) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := precomp.Tx()
	now := nowMs()
	if t.Expiry <= now || t.Expiry-now > chaincfg.TxMaxExpiryTime {
		return ErrTxExpired
	}

	txid := precomp.Txid()
	if _, dup := p.manager[txid]; dup {
		return ErrTxDupe
	}
	if has, err := p.chainHasTx(txid); err != nil {
		return err
	} else if has {
		return ErrTxDupe
	}

	if err := verify.Tx(p.chain, precomp, p.pendingTxsLocked(), skip&^verify.SkipRewardProhibition); err != nil {
		log.Debugf("pool: rejected tx %x: %v", txid, err)
		return err
	}

	p.manager[txid] = t.Expiry
	p.pending = append(p.pending, entry{precomp: precomp, expiry: t.Expiry})
	return nil
}

// chainHasTx asks the chain whether txid has already been committed, to
// enforce invariant I2 (a txid appears at most once across indexed and
// pending transactions) even for a pool that was just restarted and has an
// empty in-memory manager.
func (p *TxPool) chainHasTx(txid tx.Txid) (bool, error) {
	type txChecker interface {
		HasTx(tx.Txid) (bool, error)
	}
	if checker, ok := p.chain.(txChecker); ok {
		return checker.HasTx(txid)
	}
	return false, nil
}

// Flush atomically swaps out the pending vector, purges any remaining
// manager entries whose expiry has since passed, and returns the drained
// transactions in admission order. Once Flush returns, none of the drained
// transactions are observable via GetAddressInfo.
func (p *TxPool) Flush() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	drained := p.pending
	p.pending = make([]entry, 0, initialCapacity)

	for _, e := range drained {
		delete(p.manager, e.precomp.Txid())
	}
	now := nowMs()
	for txid, expiry := range p.manager {
		if expiry <= now {
			delete(p.manager, txid)
		}
	}

	out := make([]*tx.Transaction, len(drained))
	for i, e := range drained {
		out[i] = e.precomp.Tx()
	}
	log.Debugf("pool: flushed %d transactions", len(out))
	return out
}

// Len reports the number of transactions currently pending.
func (p *TxPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *TxPool) pendingTxsLocked() []*tx.Transaction {
	out := make([]*tx.Transaction, len(p.pending))
	for i, e := range p.pending {
		out[i] = e.precomp.Tx()
	}
	return out
}

// GetAddressInfo composes the chain's view of addr with this pool's
// pending tail, so a producer or wallet sees fees that already account
// for not-yet-drained transactions from the same address.
func (p *TxPool) GetAddressInfo(addr account.ScriptHash) (verify.AddressInfo, error) {
	p.mu.Lock()
	pending := p.pendingTxsLocked()
	p.mu.Unlock()
	return p.chain.AddressInfo(addr, pending)
}
