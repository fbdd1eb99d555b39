// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verify

import (
	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/block"
	"github.com/godcoin-go/godcoin/chaincfg"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/script"
	"github.com/godcoin-go/godcoin/serializer"
	"github.com/godcoin-go/godcoin/tx"
)

// SkipFlags selectively disables checks that only make sense for certain
// callers: the chain facade verifying the reward transaction a block
// already contains needs to skip the blanket pool-admission prohibition on
// Reward transactions.
type SkipFlags uint8

// SkipRewardProhibition permits a Reward transaction to pass verification;
// only the chain facade sets this, and only for the first transaction of a
// block under construction or validation.
const SkipRewardProhibition SkipFlags = 1 << iota

// AddressInfo is the fee/balance view verify.Tx consults for an account,
// matching the shape spec.md §4.6 describes for get_address_info.
type AddressInfo struct {
	Balance asset.Asset
	NetFee  asset.Asset
	AddrFee asset.Asset
	Script  script.Script
}

// Bond is the minter/staker pair verify consults for Mint and Owner
// authorization checks.
type Bond struct {
	Minter crypto.PublicKey
	Staker crypto.PublicKey
}

// ChainView is the slice of chain-facade state verify.Tx needs. The
// blockchain package's Chain type satisfies this structurally, keeping
// verify free of a direct dependency on it.
type ChainView interface {
	GetAccount(id uint64) (account.Account, bool, error)
	AddressInfo(addr account.ScriptHash, pending []*tx.Transaction) (AddressInfo, error)
	CurrentBond() Bond
	ChainID() chaincfg.ChainID
}

// Tx verifies precomp's transaction against chain under the given pending
// pool tail, per the checks spec.md §4.7 assigns to verify_tx.
func Tx(chain ChainView, precomp *tx.PrecompData, pending []*tx.Transaction, skip SkipFlags) error {
	t := precomp.Tx()
	if err := t.Validate(); err != nil {
		return txRuleError(ErrMalformedArgs, err.Error())
	}

	switch t.TxType {
	case tx.Reward:
		if skip&SkipRewardProhibition == 0 {
			return txRuleError(ErrTxProhibited, "reward transactions may only be emplaced by the producer")
		}
		return nil
	case tx.Transfer:
		return verifyTransfer(chain, precomp, t, pending)
	case tx.Mint:
		return verifyMint(chain, precomp, t)
	case tx.Owner:
		return verifyOwner(chain, precomp, t)
	default:
		return txRuleError(ErrTxProhibited, "unrecognized transaction type")
	}
}

// DecodeTransferArgs unpacks the fixed calling convention godcoin's default
// script expects of a Transfer's arg_bytes: an 8-byte destination account
// id followed by a 9-byte asset amount. Exported so the chain facade can
// apply the same transfer it just verified without duplicating the
// encoding.
func DecodeTransferArgs(argBytes []byte) (to uint64, amount asset.Asset, err error) {
	return decodeTransferArgs(argBytes)
}

func decodeTransferArgs(argBytes []byte) (to uint64, amount asset.Asset, err error) {
	r := serializer.NewReader(argBytes)
	to, err = r.TakeU64()
	if err != nil {
		return 0, asset.Asset{}, err
	}
	amt, err := r.TakeI64()
	if err != nil {
		return 0, asset.Asset{}, err
	}
	sym, err := r.TakeU8()
	if err != nil {
		return 0, asset.Asset{}, err
	}
	return to, asset.Asset{Amount: amt, Symbol: asset.Symbol(sym)}, nil
}

// EncodeTransferArgs packs a (to, amount) pair using the calling convention
// DecodeTransferArgs expects. Exported so callers building Transfer
// transactions (wallets, tests) use the same encoding.
func EncodeTransferArgs(to uint64, amount asset.Asset) []byte {
	w := serializer.NewWriter(17)
	w.PutU64(to)
	w.PutI64(amount.Amount)
	w.PutU8(uint8(amount.Symbol))
	return w.Bytes()
}

func verifyTransfer(chain ChainView, precomp *tx.PrecompData, t *tx.Transaction, pending []*tx.Transaction) error {
	data := t.Transfer
	acct, found, err := chain.GetAccount(data.FromAccountID)
	if err != nil {
		return err
	}
	if !found || acct.Destroyed {
		return txRuleError(ErrUnknownAccount, "source account does not exist or is destroyed")
	}

	info, err := chain.AddressInfo(acct.ScriptHash(), pending)
	if err != nil {
		return err
	}
	if err := checkFee(t.Fee, info); err != nil {
		return err
	}

	to, amount, err := decodeTransferArgs(data.Args)
	if err != nil {
		return txRuleError(ErrMalformedArgs, "could not decode transfer call arguments")
	}

	args := []script.Frame{script.FrameAccountIDVal(to), script.FrameAssetVal(amount)}
	sigCtx := script.SigContext{
		Message:  precomp.SigningMessage(chain.ChainID()),
		SigPairs: t.SignaturePairs,
	}
	transfers, err := script.Eval(acct.Script, data.CallFn, args, sigCtx)
	if err != nil {
		return txRuleErrorWithCause(ErrScriptEval, "script evaluation did not authorize this spend", err)
	}

	totalOut := asset.New(0)
	for _, tr := range transfers {
		sum, ok := totalOut.Add(tr.Amount)
		if !ok {
			return txRuleError(ErrInsufficientBalance, "transfer total overflowed")
		}
		totalOut = sum
	}
	required, ok := totalOut.Add(t.Fee)
	if !ok {
		return txRuleError(ErrInsufficientBalance, "transfer total plus fee overflowed")
	}
	if acct.Balance.Cmp(required) < 0 {
		return txRuleError(ErrInsufficientBalance, "source balance is less than transfer amount plus fee")
	}
	return nil
}

func verifyMint(chain ChainView, precomp *tx.PrecompData, t *tx.Transaction) error {
	if err := checkFlatFee(t.Fee); err != nil {
		return err
	}
	bond := chain.CurrentBond()
	if !precomp.VerifyKeys(chain.ChainID(), []crypto.PublicKey{bond.Minter}) {
		return txRuleError(ErrSignatureInvalid, "mint transaction must be signed by the current minter")
	}
	return nil
}

func verifyOwner(chain ChainView, precomp *tx.PrecompData, t *tx.Transaction) error {
	if err := checkFlatFee(t.Fee); err != nil {
		return err
	}
	bond := chain.CurrentBond()
	if !precomp.VerifyKeys(chain.ChainID(), []crypto.PublicKey{bond.Minter}) {
		return txRuleError(ErrSignatureInvalid, "owner transaction must be signed by the current minter")
	}
	return nil
}

// checkFee enforces spec.md §4.6's sliding-window fee floor: GraelFeeMin
// plus the address- and network-scaled components AddressInfo already
// carries.
func checkFee(fee asset.Asset, info AddressInfo) error {
	required, ok := chaincfg.GraelFeeMin.Add(info.NetFee)
	if !ok {
		return txRuleError(ErrInvalidFee, "fee floor overflowed")
	}
	required, ok = required.Add(info.AddrFee)
	if !ok {
		return txRuleError(ErrInvalidFee, "fee floor overflowed")
	}
	if fee.Cmp(required) < 0 {
		return txRuleError(ErrInvalidFee, "fee is below the required minimum")
	}
	return nil
}

// checkFlatFee applies to Mint and Owner transactions, which are not tied
// to a regular address's transaction-count window: only the network-wide
// GraelFeeMin floor applies.
func checkFlatFee(fee asset.Asset) error {
	if fee.Cmp(chaincfg.GraelFeeMin) < 0 {
		return txRuleError(ErrInvalidFee, "fee is below the required minimum")
	}
	return nil
}

// Block verifies a candidate block against the current chain head and
// minter key, per spec.md §4.6. Per-transaction verification is the chain
// facade's responsibility (it alone has the pending-pool context Tx needs).
func Block(head block.Header, b *block.Block, minter crypto.PublicKey) error {
	if b.Header.Height != head.Height+1 {
		return blockRuleError(ErrBadHeight, "block height is not head+1")
	}
	if b.Header.PreviousHash != head.Hash() {
		return blockRuleError(ErrBadPrevHash, "previous hash does not match the chain head")
	}
	if b.Header.TxMerkleRoot != b.ComputeMerkleRoot() {
		return blockRuleError(ErrBadMerkleRoot, "tx merkle root does not match the block's transactions")
	}
	if !b.SignaturePair.PubKey.Equal(minter) {
		return blockRuleError(ErrBadMinterSignature, "block is not signed by the current minter key")
	}
	if !b.VerifyHeaderSignature() {
		return blockRuleError(ErrBadMinterSignature, "minter signature does not validate")
	}
	return nil
}
