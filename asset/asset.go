// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package asset implements the fixed-point token amount used throughout
// godcoin, mirroring the role dcrutil.Amount plays for Decred: a signed
// integer amount scaled by a fixed number of decimals, with arithmetic that
// reports failure instead of wrapping.
package asset

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Decimals is the number of fractional digits every Asset carries.
const Decimals = 5

// scale is 10^Decimals, the divisor between an integer amount and its
// whole-unit value.
const scale = 100000

// Symbol identifies the unit an Asset is denominated in. Only one symbol is
// defined for this permissioned network; the type exists so arithmetic can
// refuse to mix units if that ever changes.
type Symbol uint8

// TEST is the sole asset symbol accepted by this network.
const TEST Symbol = 0

// String renders the symbol's textual form as used in an Asset's canonical
// representation.
func (s Symbol) String() string {
	switch s {
	case TEST:
		return "TEST"
	default:
		return "UNKNOWN"
	}
}

// ErrInvalidFormat is returned by Parse when the input does not match
// "D.DDDDD SYM".
var ErrInvalidFormat = errors.New("asset: invalid format")

// ErrInvalidAssetType is returned by Parse when the symbol is not recognized.
var ErrInvalidAssetType = errors.New("asset: invalid asset type")

// Asset is a signed fixed-point amount with Decimals fractional digits.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// New constructs an Asset from a raw scaled amount (i.e. 100000 == "1.00000").
func New(amount int64) Asset {
	return Asset{Amount: amount, Symbol: TEST}
}

// Parse decodes the canonical textual form "D.DDDDD SYM" into an Asset.
func Parse(s string) (Asset, error) {
	parts := strings.SplitN(s, " ", 2)
	if len(parts) != 2 {
		return Asset{}, ErrInvalidFormat
	}
	numStr, symStr := parts[0], parts[1]

	neg := false
	if strings.HasPrefix(numStr, "-") {
		neg = true
		numStr = numStr[1:]
	}

	dotParts := strings.SplitN(numStr, ".", 2)
	if len(dotParts) != 2 || len(dotParts[1]) != Decimals {
		return Asset{}, ErrInvalidFormat
	}
	whole, err := strconv.ParseInt(dotParts[0], 10, 64)
	if err != nil {
		return Asset{}, ErrInvalidFormat
	}
	frac, err := strconv.ParseInt(dotParts[1], 10, 64)
	if err != nil {
		return Asset{}, ErrInvalidFormat
	}

	amount := whole*scale + frac
	if neg {
		amount = -amount
	}

	var sym Symbol
	switch symStr {
	case "TEST":
		sym = TEST
	default:
		return Asset{}, ErrInvalidAssetType
	}

	return Asset{Amount: amount, Symbol: sym}, nil
}

// String renders the canonical "D.DDDDD SYM" textual form.
func (a Asset) String() string {
	neg := ""
	amount := a.Amount
	if amount < 0 {
		neg = "-"
		amount = -amount
	}
	whole := amount / scale
	frac := amount % scale
	return fmt.Sprintf("%s%d.%05d %s", neg, whole, frac, a.Symbol)
}

// Add returns a+b, or ok=false on overflow or symbol mismatch.
func (a Asset) Add(b Asset) (Asset, bool) {
	if a.Symbol != b.Symbol {
		return Asset{}, false
	}
	sum := a.Amount + b.Amount
	if (b.Amount > 0 && sum < a.Amount) || (b.Amount < 0 && sum > a.Amount) {
		return Asset{}, false
	}
	return Asset{Amount: sum, Symbol: a.Symbol}, true
}

// Sub returns a-b, or ok=false on overflow or symbol mismatch.
func (a Asset) Sub(b Asset) (Asset, bool) {
	if a.Symbol != b.Symbol {
		return Asset{}, false
	}
	diff := a.Amount - b.Amount
	if (b.Amount < 0 && diff < a.Amount) || (b.Amount > 0 && diff > a.Amount) {
		return Asset{}, false
	}
	return Asset{Amount: diff, Symbol: a.Symbol}, true
}

// Mul returns a*b (treating b's amount as a scaled multiplier, then
// re-scaling down by the fixed-point factor), or ok=false on overflow or
// symbol mismatch.
func (a Asset) Mul(b Asset) (Asset, bool) {
	if a.Symbol != b.Symbol {
		return Asset{}, false
	}
	if a.Amount == 0 || b.Amount == 0 {
		return Asset{Amount: 0, Symbol: a.Symbol}, true
	}
	quot, ok := mulDiv(a.Amount, b.Amount, scale)
	if !ok {
		return Asset{}, false
	}
	return Asset{Amount: quot, Symbol: a.Symbol}, true
}

// Div returns a/b (re-scaled by the fixed-point factor before dividing), or
// ok=false on overflow, divide-by-zero, or symbol mismatch.
func (a Asset) Div(b Asset) (Asset, bool) {
	if a.Symbol != b.Symbol {
		return Asset{}, false
	}
	if b.Amount == 0 {
		return Asset{}, false
	}
	quot, ok := mulDiv(a.Amount, scale, b.Amount)
	if !ok {
		return Asset{}, false
	}
	return Asset{Amount: quot, Symbol: a.Symbol}, true
}

// Cmp compares two assets of the same symbol: -1, 0, or 1. It panics if the
// symbols differ, matching that ordering is defined only within a symbol
// (callers must check symbols first in any context where mismatch is
// possible, such as verifying user input).
func (a Asset) Cmp(b Asset) int {
	if a.Symbol != b.Symbol {
		panic("asset: Cmp across mismatched symbols")
	}
	switch {
	case a.Amount < b.Amount:
		return -1
	case a.Amount > b.Amount:
		return 1
	default:
		return 0
	}
}

// Scale returns a's amount multiplied by the plain (unscaled) integer n --
// e.g. a fee-per-occurrence Asset repeated n times -- or ok=false on
// overflow. Unlike Mul, n is not itself a fixed-point value.
func (a Asset) Scale(n uint32) (Asset, bool) {
	if n == 0 {
		return Asset{Amount: 0, Symbol: a.Symbol}, true
	}
	result := a.Amount * int64(n)
	if result/int64(n) != a.Amount {
		return Asset{}, false
	}
	return Asset{Amount: result, Symbol: a.Symbol}, true
}

const (
	maxInt64 = 1<<63 - 1
	minInt64 = -1 << 63
)

// mulDiv computes floor-toward-zero(a*b/d) using a 128-bit intermediate
// product so it neither overflows prematurely nor loses precision the way
// int64(a)*int64(b)/d would. ok is false if d is zero or the result does not
// fit in an int64.
func mulDiv(a, b, d int64) (result int64, ok bool) {
	if d == 0 {
		return 0, false
	}

	neg := false
	ua, ub, ud := uint64(a), uint64(b), uint64(d)
	if a < 0 {
		ua = uint64(-a)
		neg = !neg
	}
	if b < 0 {
		ub = uint64(-b)
		neg = !neg
	}
	if d < 0 {
		ud = uint64(-d)
		neg = !neg
	}

	hi, lo := bits.Mul64(ua, ub)
	if hi >= ud {
		// Quotient would not fit in 64 bits.
		return 0, false
	}
	quot, _ := bits.Div64(hi, lo, ud)

	if neg {
		if quot > uint64(maxInt64)+1 {
			return 0, false
		}
		return -int64(quot), true
	}
	if quot > maxInt64 {
		return 0, false
	}
	return int64(quot), true
}
