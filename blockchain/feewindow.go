// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/chaincfg"
)

// feeWindowEntry records one block's contribution to the sliding fee
// window: how many transactions each address placed, and the total across
// all addresses.
type feeWindowEntry struct {
	height     uint64
	addrCounts map[account.ScriptHash]uint32
	total      uint32
}

// feeWindow is the sliding window over the last NetworkFeeAvgWindow blocks
// that spec.md §4.6 bases the per-address and network fee multipliers on.
// The window is kept as a ring of up to NetworkFeeAvgWindow entries, reset
// to empty at the start of every FeeResetWindow-sized era -- era boundaries
// fall every NetworkFeeAvgWindow*FeeResetWindow blocks -- so the average
// never drifts across an arbitrarily long history. A reopened Chain starts
// with an empty window in the head's era; blocks already committed in that
// era are not replayed into it.
type feeWindow struct {
	era     uint64
	entries []feeWindowEntry
}

func eraOf(height uint64) uint64 {
	return height / (chaincfg.NetworkFeeAvgWindow * chaincfg.FeeResetWindow)
}

// newFeeWindow returns an empty window for the era containing height.
func newFeeWindow(height uint64) *feeWindow {
	return &feeWindow{era: eraOf(height)}
}

// Observe records one freshly committed block's per-address transaction
// counts, evicting the oldest entry once the window is full and resetting
// entirely when height crosses into a new era.
func (w *feeWindow) Observe(height uint64, addrCounts map[account.ScriptHash]uint32) {
	era := eraOf(height)
	if era != w.era {
		w.era = era
		w.entries = nil
	}

	var total uint32
	for _, c := range addrCounts {
		total += c
	}
	entry := feeWindowEntry{height: height, addrCounts: addrCounts, total: total}

	if len(w.entries) >= chaincfg.NetworkFeeAvgWindow {
		w.entries = w.entries[1:]
	}
	w.entries = append(w.entries, entry)
}

// AddrCount sums addr's transaction count across every entry currently in
// the window.
func (w *feeWindow) AddrCount(addr account.ScriptHash) uint32 {
	var sum uint32
	for _, e := range w.entries {
		sum += e.addrCounts[addr]
	}
	return sum
}

// TotalCount sums the total transaction count across every entry currently
// in the window.
func (w *feeWindow) TotalCount() uint32 {
	var sum uint32
	for _, e := range w.entries {
		sum += e.total
	}
	return sum
}

// fees returns the per-address and network fee components spec.md §4.6
// adds on top of chaincfg.GraelFeeMin for a transaction from addr.
func (w *feeWindow) fees(addr account.ScriptHash) (netFee, addrFee asset.Asset, ok bool) {
	netFee, ok = chaincfg.GraelFeeNetMult.Scale(w.TotalCount())
	if !ok {
		return asset.Asset{}, asset.Asset{}, false
	}
	addrFee, ok = chaincfg.GraelFeeMult.Scale(w.AddrCount(addr))
	if !ok {
		return asset.Asset{}, asset.Asset{}, false
	}
	return netFee, addrFee, true
}
