// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg holds the network-wide constants godcoin's core packages
// consult: fee schedule, expiry limits, and the chain id domain separator.
// It plays the same pure-data role chaincfg.Params plays for Decred, without
// the genesis-block and checkpoint plumbing that belongs to a full network
// node rather than this core.
package chaincfg

import "github.com/godcoin-go/godcoin/asset"

// GraelFeeMin is the minimum admissible transaction fee before any
// per-address or network multipliers are applied.
var GraelFeeMin = asset.New(25)

// GraelFeeMult is added to the minimum fee once for each transaction a
// single address has already placed within the fee window.
var GraelFeeMult = asset.New(200_000)

// GraelFeeNetMult is added to the minimum fee once for each transaction
// seen network-wide within the fee window.
var GraelFeeNetMult = asset.New(101_500)

// GraelAccCreateFeeMult is the fee multiplier applied to account-creation
// transactions.
var GraelAccCreateFeeMult = asset.New(200_000)

// GraelAccCreateMinBalMult sets the minimum initial balance multiplier
// required to fund a newly created account.
var GraelAccCreateMinBalMult = asset.New(200_000)

// NetworkFeeAvgWindow is the number of most recent blocks the sliding fee
// window averages over.
const NetworkFeeAvgWindow = 10

// FeeResetWindow is the number of NetworkFeeAvgWindow periods after which
// the sliding fee window resets rather than continuing to average.
const FeeResetWindow = 4

// TxMaxExpiryTime is the furthest into the future (in milliseconds) a
// transaction's expiry may be set relative to admission time.
const TxMaxExpiryTime = 30 * 24 * 60 * 60 * 1000

// BlockProdTimeSeconds is the fixed interval, in seconds, between block
// producer ticks.
const BlockProdTimeSeconds = 3

// MaxMemoByteSize bounds a transfer transaction's memo field.
const MaxMemoByteSize = 1024

// MaxScriptByteSize bounds a script's total encoded length.
const MaxScriptByteSize = 2048

// MaxTxSignatures bounds the number of signature pairs a transaction may
// carry.
const MaxTxSignatures = 8

// MaxPermKeys bounds the number of public keys in an account's permission
// set.
const MaxPermKeys = 8

// ImmutableAccountThreshold is the permission threshold value marking an
// account as immutable (its permissions can never change).
const ImmutableAccountThreshold = 0xFF

// ChainID is prepended to every signed message domain, so a signature valid
// on one network can never be replayed on another.
type ChainID [2]byte

// MainNetChainID is the chain id used in production.
var MainNetChainID = ChainID{0x00, 0x00}

// TestNetChainID is the chain id used for the test network.
var TestNetChainID = ChainID{0x00, 0x01}
