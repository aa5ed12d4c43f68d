// Package txn provides the read-transaction handle threaded through scan
// and catalog calls: a snapshot identifier the storage engine uses to
// guarantee parallel-scan partitions are read-only, disjoint, and
// consistent.
package txn

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Txn is the read-transaction handle a scan is bound to. A table's scan
// state is initialized against one Txn and every produce_chunk call for
// that state reads through the same snapshot.
type Txn interface {
	// ID is a monotonically increasing snapshot identifier, surfaced for
	// logging/debugging only.
	ID() uint64
	// Discard releases the transaction's resources. Safe to call more than
	// once.
	Discard()
}

// memTxn is a trivial Txn for tables with no underlying storage engine
// transaction to hold open (catalog.MemTable).
type memTxn struct{ id uint64 }

// NewMemTxn wraps a bare snapshot id with no backing resource.
func NewMemTxn(id uint64) Txn { return &memTxn{id: id} }

func (t *memTxn) ID() uint64 { return t.id }
func (t *memTxn) Discard()   {}

// BadgerTxn adapts a badger.Txn (opened read-only) to the Txn contract.
type BadgerTxn struct {
	id  uint64
	txn *badger.Txn
}

// NewBadgerTxn opens a new read-only transaction against db.
func NewBadgerTxn(db *badger.DB, id uint64) *BadgerTxn {
	return &BadgerTxn{id: id, txn: db.NewTransaction(false)}
}

func (t *BadgerTxn) ID() uint64 { return t.id }

func (t *BadgerTxn) Discard() {
	if t.txn != nil {
		t.txn.Discard()
		t.txn = nil
	}
}

// Inner returns the underlying badger.Txn for use by catalog.BadgerTable.
func (t *BadgerTxn) Inner() (*badger.Txn, error) {
	if t.txn == nil {
		return nil, fmt.Errorf("txn: transaction %d already discarded", t.id)
	}
	return t.txn, nil
}
