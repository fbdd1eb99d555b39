// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package producer implements godcoin's block producer: the single minter
// that, once per fixed interval, drains the pool, assembles a block, and
// hands it to the chain facade. It plays the role EXCCoin's mining/cpuminer
// packages play in finding the next block header, specialized to a
// permissioned single-minter schedule: there is no proof-of-work search,
// just a ticker and a deterministic assembly step.
package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/block"
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/pool"
	"github.com/godcoin-go/godcoin/tx"
)

// Chain is the slice of the chain facade the producer drives.
type Chain interface {
	GetChainHead() (block.Header, bool)
	InsertBlock(b *block.Block) error
}

// Notification is published on the producer's channel after a block is
// durably inserted.
type Notification struct {
	Block *block.Block
}

// Producer owns the minter's private key, the staker's public key (the
// reward destination), and the fixed per-tick block reward. It holds no
// back-reference from the chain; shutdown stops the producer first, then
// the chain may be closed.
type Producer struct {
	chain        Chain
	pool         *pool.TxPool
	minterKey    crypto.KeyPair
	stakerPubKey crypto.PublicKey
	blockReward  asset.Asset
	interval     time.Duration
	notify       chan Notification

	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a Producer that will drain pool and insert into chain,
// crediting blockReward to staker's account each tick.
func New(chain Chain, p *pool.TxPool, minterKey crypto.KeyPair, stakerPubKey crypto.PublicKey, blockReward asset.Asset) *Producer {
	return &Producer{
		chain:        chain,
		pool:         p,
		minterKey:    minterKey,
		stakerPubKey: stakerPubKey,
		blockReward:  blockReward,
		interval:     chaincfg.BlockProdTimeSeconds * time.Second,
		notify:       make(chan Notification, 1),
	}
}

// Notifications returns the channel a new block is published to after
// every successful insertion.
func (p *Producer) Notifications() <-chan Notification {
	return p.notify
}

// Start launches the producer's ticker in a background goroutine. A
// pending tick may be dropped if Stop is called, but a tick already inside
// InsertBlock always completes before Stop returns.
func (p *Producer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.tick(); err != nil {
					log.Errorf("producer: block insertion failed, stopping: %v", err)
					return
				}
			}
		}
	}()
}

// Stop cancels the ticker and waits for any in-flight tick to finish.
func (p *Producer) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}
}

// tick builds and inserts exactly one block: a Reward transaction crediting
// the staker, followed by the pool's drained tail.
func (p *Producer) tick() error {
	head, ok := p.chain.GetChainHead()
	if !ok {
		return fmt.Errorf("producer: chain has no genesis block yet")
	}

	stakerScript, err := account.DefaultScript(p.stakerPubKey)
	if err != nil {
		return err
	}
	rewardTx := &tx.Transaction{
		TxType: tx.Reward,
		Expiry: 0,
		Fee:    asset.New(0),
		Reward: &tx.RewardData{
			ToScriptHash: account.HashScript(stakerScript),
			Rewards:      []asset.Asset{p.blockReward},
		},
	}

	drained := p.pool.Flush()
	txs := make([]*tx.Transaction, 0, len(drained)+1)
	txs = append(txs, rewardTx)
	txs = append(txs, drained...)

	b := &block.Block{
		Header: block.Header{
			PreviousHash: head.Hash(),
			Height:       head.Height + 1,
			Timestamp:    uint64(time.Now().UnixMilli()),
		},
		Transactions: txs,
	}
	b.Header.TxMerkleRoot = b.ComputeMerkleRoot()
	b.SignHeader(p.minterKey)

	if err := p.chain.InsertBlock(b); err != nil {
		return err
	}

	log.Infof("producer: produced block %d with %d transactions", b.Header.Height, len(txs))
	select {
	case p.notify <- Notification{Block: b}:
	default:
		log.Warnf("producer: notification channel full, dropping block %d notice", b.Header.Height)
	}
	return nil
}
