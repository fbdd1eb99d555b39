// Copyright (c) 2024 The godcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package indexer implements godcoin's secondary key/value index: a
// goleveldb-backed store mapping block height to log offset, txid to
// expiry, address to recent receipt pointers, account id to account
// record, and a singleton chain-properties record. It plays the role
// EXCCoin's database package plays as the index layered over the append-
// only log, with goleveldb standing in for a column-family store: each
// logical table is a single-byte key prefix rather than a distinct
// column family, since goleveldb has no native CF concept.
package indexer

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/godcoin-go/godcoin/account"
	"github.com/godcoin-go/godcoin/asset"
	"github.com/godcoin-go/godcoin/crypto"
	"github.com/godcoin-go/godcoin/serializer"
	"github.com/godcoin-go/godcoin/tx"
)

const (
	prefixHeightToOffset byte = 'h'
	prefixTxidToExpiry   byte = 't'
	prefixAddrReceipt    byte = 'r'
	prefixAccount        byte = 'a'
	prefixProperties     byte = 'p'
	prefixAddrToAccount  byte = 's'
)

var propertiesKey = []byte{prefixProperties}

// ReceiptPointer locates one transaction's receipt within the block log:
// the block height and the transaction's index within that block.
type ReceiptPointer struct {
	Height  uint64
	TxIndex uint32
}

// Bond records the minter/staker pair and bonded amount established at
// genesis and rotated by Owner transactions.
type Bond struct {
	Minter crypto.PublicKey
	Staker crypto.PublicKey
	Amount asset.Asset
}

// Properties is the chain-wide singleton record: the current head height,
// total token supply, the next account id available to a freshly created
// account, and the active bond.
type Properties struct {
	HeadHeight    uint64
	TokenSupply   asset.Asset
	NextAccountID uint64
	Bond          Bond
}

func encodeProperties(p Properties) []byte {
	w := serializer.NewWriter(104)
	w.PutU64(p.HeadHeight)
	w.PutI64(p.TokenSupply.Amount)
	w.PutU8(uint8(p.TokenSupply.Symbol))
	w.PutU64(p.NextAccountID)
	w.PutBytes(p.Bond.Minter.Bytes())
	w.PutBytes(p.Bond.Staker.Bytes())
	w.PutI64(p.Bond.Amount.Amount)
	w.PutU8(uint8(p.Bond.Amount.Symbol))
	return w.Bytes()
}

func decodeProperties(buf []byte) (Properties, error) {
	r := serializer.NewReader(buf)

	head, err := r.TakeU64()
	if err != nil {
		return Properties{}, err
	}
	supplyAmount, err := r.TakeI64()
	if err != nil {
		return Properties{}, err
	}
	supplySym, err := r.TakeU8()
	if err != nil {
		return Properties{}, err
	}
	nextAccountID, err := r.TakeU64()
	if err != nil {
		return Properties{}, err
	}
	minterBytes, err := r.TakeBytes(crypto.PublicKeySize)
	if err != nil {
		return Properties{}, err
	}
	stakerBytes, err := r.TakeBytes(crypto.PublicKeySize)
	if err != nil {
		return Properties{}, err
	}
	bondAmount, err := r.TakeI64()
	if err != nil {
		return Properties{}, err
	}
	bondSym, err := r.TakeU8()
	if err != nil {
		return Properties{}, err
	}

	minter, _ := crypto.PublicKeyFromBytes(minterBytes)
	staker, _ := crypto.PublicKeyFromBytes(stakerBytes)

	return Properties{
		HeadHeight:    head,
		TokenSupply:   asset.Asset{Amount: supplyAmount, Symbol: asset.Symbol(supplySym)},
		NextAccountID: nextAccountID,
		Bond: Bond{
			Minter: minter,
			Staker: staker,
			Amount: asset.Asset{Amount: bondAmount, Symbol: asset.Symbol(bondSym)},
		},
	}, nil
}

func heightKey(height uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixHeightToOffset
	binary.BigEndian.PutUint64(key[1:], height)
	return key
}

func txidKey(txid tx.Txid) []byte {
	key := make([]byte, 1+tx.TxidSize)
	key[0] = prefixTxidToExpiry
	copy(key[1:], txid[:])
	return key
}

func accountKey(id uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixAccount
	binary.BigEndian.PutUint64(key[1:], id)
	return key
}

func addrToAccountKey(addr account.ScriptHash) []byte {
	key := make([]byte, 1+account.ScriptHashSize)
	key[0] = prefixAddrToAccount
	copy(key[1:], addr[:])
	return key
}

func receiptKeyPrefix(addr account.ScriptHash) []byte {
	key := make([]byte, 1+account.ScriptHashSize)
	key[0] = prefixAddrReceipt
	copy(key[1:], addr[:])
	return key
}

func receiptKey(addr account.ScriptHash, p ReceiptPointer) []byte {
	prefix := receiptKeyPrefix(addr)
	key := make([]byte, len(prefix)+8+4)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], p.Height)
	binary.BigEndian.PutUint32(key[len(prefix)+8:], p.TxIndex)
	return key
}

// Indexer wraps the goleveldb handle. The chain facade owns it exclusively,
// per spec.md §5's resource-ownership rule.
type Indexer struct {
	db *leveldb.DB
}

// Open opens (creating if absent) the indexer database directory at path.
func Open(path string) (*Indexer, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Indexer{db: db}, nil
}

// Close closes the underlying database handle.
func (idx *Indexer) Close() error {
	return idx.db.Close()
}

// GetBlockOffset looks up the log offset recorded for height.
func (idx *Indexer) GetBlockOffset(height uint64) (offset uint64, found bool, err error) {
	val, err := idx.db.Get(heightKey(height), nil)
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return binary.BigEndian.Uint64(val), true, nil
}

// GetTxExpiry looks up the expiry recorded for txid.
func (idx *Indexer) GetTxExpiry(txid tx.Txid) (expiryMs uint64, found bool, err error) {
	val, err := idx.db.Get(txidKey(txid), nil)
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return binary.BigEndian.Uint64(val), true, nil
}

// HasTx reports whether txid has already been indexed, satisfying the
// indexed half of invariant I2 (the pool's in-memory manager covers the
// pending half).
func (idx *Indexer) HasTx(txid tx.Txid) (bool, error) {
	_, found, err := idx.GetTxExpiry(txid)
	return found, err
}

// GetAccount looks up the account record for id.
func (idx *Indexer) GetAccount(id uint64) (account.Account, bool, error) {
	val, err := idx.db.Get(accountKey(id), nil)
	if err == leveldb.ErrNotFound {
		return account.Account{}, false, nil
	}
	if err != nil {
		return account.Account{}, false, err
	}
	a, err := account.Decode(val)
	if err != nil {
		return account.Account{}, false, err
	}
	return a, true, nil
}

// GetAccountByScriptHash looks up the account id owning addr, then returns
// its account record.
func (idx *Indexer) GetAccountByScriptHash(addr account.ScriptHash) (account.Account, bool, error) {
	val, err := idx.db.Get(addrToAccountKey(addr), nil)
	if err == leveldb.ErrNotFound {
		return account.Account{}, false, nil
	}
	if err != nil {
		return account.Account{}, false, err
	}
	id := binary.BigEndian.Uint64(val)
	return idx.GetAccount(id)
}

// GetProperties returns the chain's singleton properties record, or the
// zero value if the chain has never been initialized (no genesis block
// yet).
func (idx *Indexer) GetProperties() (Properties, error) {
	val, err := idx.db.Get(propertiesKey, nil)
	if err == leveldb.ErrNotFound {
		return Properties{}, nil
	}
	if err != nil {
		return Properties{}, err
	}
	return decodeProperties(val)
}

// ListReceipts returns up to limit of addr's most recent receipt pointers,
// newest first.
func (idx *Indexer) ListReceipts(addr account.ScriptHash, limit int) ([]ReceiptPointer, error) {
	prefix := receiptKeyPrefix(addr)
	it := idx.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	var out []ReceiptPointer
	for ok := it.Last(); ok && len(out) < limit; ok = it.Prev() {
		key := it.Key()
		height := binary.BigEndian.Uint64(key[len(prefix) : len(prefix)+8])
		txIndex := binary.BigEndian.Uint32(key[len(prefix)+8:])
		out = append(out, ReceiptPointer{Height: height, TxIndex: txIndex})
	}
	return out, it.Error()
}

// Batch accumulates the mutations of a single insert_block application so
// they can be committed atomically.
type Batch struct {
	lb *leveldb.Batch
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch {
	return &Batch{lb: new(leveldb.Batch)}
}

// SetBlockOffset records height's byte offset in the block log.
func (b *Batch) SetBlockOffset(height, offset uint64) {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, offset)
	b.lb.Put(heightKey(height), val)
}

// SetTxExpiry records txid's expiry, marking it as indexed (satisfying
// invariant I2 going forward).
func (b *Batch) SetTxExpiry(txid tx.Txid, expiryMs uint64) {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, expiryMs)
	b.lb.Put(txidKey(txid), val)
}

// AppendReceiptPointer records that addr has a new receipt at p.
func (b *Batch) AppendReceiptPointer(addr account.ScriptHash, p ReceiptPointer) {
	b.lb.Put(receiptKey(addr, p), nil)
}

// PutAccount writes a's full record and maps a's current script hash to its
// id. A mapping written for an earlier script hash is not removed, so after
// a script rotation GetAccountByScriptHash still resolves the old hash to a.
func (b *Batch) PutAccount(a account.Account) {
	b.lb.Put(accountKey(a.ID), a.Encode())
	idVal := make([]byte, 8)
	binary.BigEndian.PutUint64(idVal, a.ID)
	b.lb.Put(addrToAccountKey(a.ScriptHash()), idVal)
}

// SetProperties overwrites the singleton properties record.
func (b *Batch) SetProperties(p Properties) {
	b.lb.Put(propertiesKey, encodeProperties(p))
}

// Commit applies b atomically: either every mutation becomes visible or
// none do, per spec.md §4.5.
func (idx *Indexer) Commit(b *Batch) error {
	return idx.db.Write(b.lb, nil)
}
