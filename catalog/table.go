// Package catalog implements the storage engine contract the scan package
// consumes: a table abstraction exposing scan/parallel-scan/fetch, and an
// index abstraction supporting single- and two-predicate range scans.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/txn"
	"github.com/wbrown/vecjoin/vector"
)

// ScanState is opaque storage-engine-owned state threaded through a scan's
// init/function calls. Concrete tables define their own.
type ScanState interface{}

// FetchState is opaque storage-engine-owned state for the point-fetch path
// used by the index-scan variant.
type FetchState interface{}

// DataTable is the storage engine contract a table scan operates against.
type DataTable interface {
	Name() string
	ColumnTypes() []vector.TypeTag
	RowCount() int64

	InitializeScan(tx txn.Txn, columnIDs []int, filters []exec.Comparison) (ScanState, error)
	Scan(tx txn.Txn, out *vector.Chunk, state ScanState, columnIDs []int, filters []exec.Comparison) error
	InitializeParallelScan(ctx context.Context, columnIDs []int, filters []exec.Comparison, emit func(ScanState)) error
	Fetch(tx txn.Txn, out *vector.Chunk, columnIDs []int, rowIDs []int64, state FetchState) error

	Indexes() []Index
}

// MemTable is an in-memory reference DataTable implementation, column-major,
// used for tests and as a worked example of the contract.
type MemTable struct {
	name    string
	types   []vector.TypeTag
	columns [][]interface{} // columns[col][row]; nil entry means SQL NULL
	mu      sync.RWMutex
	indexes []Index
}

// NewMemTable constructs an empty table with the given name and schema.
func NewMemTable(name string, types []vector.TypeTag) *MemTable {
	return &MemTable{
		name:    name,
		types:   types,
		columns: make([][]interface{}, len(types)),
	}
}

// AppendRow appends one row; values must match the table's column count and
// types are not checked (callers are expected to be internal loaders).
func (t *MemTable) AppendRow(values ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, v := range values {
		t.columns[i] = append(t.columns[i], v)
	}
}

// AddIndex registers an index over this table.
func (t *MemTable) AddIndex(idx Index) {
	t.indexes = append(t.indexes, idx)
}

func (t *MemTable) Name() string                  { return t.name }
func (t *MemTable) ColumnTypes() []vector.TypeTag { return t.types }

func (t *MemTable) RowCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.columns) == 0 {
		return 0
	}
	return int64(len(t.columns[0]))
}

func (t *MemTable) Indexes() []Index { return t.indexes }

// memScanState tracks the next unread row within one scan partition.
type memScanState struct {
	next, end int // [next, end) rows remain, in physical row-id order
}

// InitializeScan allocates a fresh scan_state over the whole table. Filters
// are accepted per the contract but memTable evaluates them the naive way —
// by reading every row and testing the filter in Scan, not by seeking.
func (t *MemTable) InitializeScan(_ txn.Txn, _ []int, _ []exec.Comparison) (ScanState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &memScanState{next: 0, end: t.rowCountLocked()}, nil
}

func (t *MemTable) rowCountLocked() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0])
}

// Scan produces the next chunk of up to vector.StandardVectorSize rows
// satisfying every filter, advancing state.next past every row it reads
// (matched or not) — this table has no secondary structure to skip ahead
// with.
func (t *MemTable) Scan(_ txn.Txn, out *vector.Chunk, state ScanState, columnIDs []int, filters []exec.Comparison) error {
	out.Reset()
	st, ok := state.(*memScanState)
	if !ok {
		return fmt.Errorf("catalog: memTable.Scan: wrong state type %T", state)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	written := 0
	for ; st.next < st.end && written < vector.StandardVectorSize; st.next++ {
		if !t.rowMatchesLocked(st.next, columnIDs, filters) {
			continue
		}
		for outCol, tableCol := range columnIDs {
			v := t.columns[tableCol][st.next]
			if v == nil {
				out.Columns[outCol].SetNull(written)
			} else {
				out.Columns[outCol].SetValue(written, v)
			}
		}
		written++
	}
	out.SetCardinality(written)
	return nil
}

// rowMatchesLocked tests row against filters, which are bound to the
// scan's own output schema (positions within columnIDs), not the table's
// raw column ids — the same convention the index-pushdown rewrite uses
// when it rewrites an index expression onto the scan's projection.
func (t *MemTable) rowMatchesLocked(row int, columnIDs []int, filters []exec.Comparison) bool {
	if len(filters) == 0 {
		return true
	}
	probe := t.rowChunkLocked(row, columnIDs)
	for _, f := range filters {
		val, isNull := f.Eval(probe, 0)
		if isNull || val == false {
			return false
		}
	}
	return true
}

// rowChunkLocked materializes a single-row chunk over the scan's projected
// columns, in projection order, so exec.Comparison (which evaluates
// against a *vector.Chunk) can be reused to test row-level filters during
// a naive scan.
func (t *MemTable) rowChunkLocked(row int, columnIDs []int) *vector.Chunk {
	types := make([]vector.TypeTag, len(columnIDs))
	for i, tableCol := range columnIDs {
		types[i] = t.types[tableCol]
	}
	c := vector.NewChunk(types)
	for i, tableCol := range columnIDs {
		v := t.columns[tableCol][row]
		if v == nil {
			c.Columns[i].SetNull(0)
		} else {
			c.Columns[i].SetValue(0, v)
		}
	}
	c.SetCardinality(1)
	return c
}

// InitializeParallelScan partitions the table into a small number of
// disjoint, contiguous row-id ranges and emits one scan_state per
// partition, per spec.md's "partitions are read-only, disjoint, and
// collectively cover the table" guarantee.
func (t *MemTable) InitializeParallelScan(ctx context.Context, _ []int, _ []exec.Comparison, emit func(ScanState)) error {
	const partitions = 4
	t.mu.RLock()
	n := t.rowCountLocked()
	t.mu.RUnlock()

	if n == 0 {
		emit(&memScanState{next: 0, end: 0})
		return nil
	}

	chunkSize := (n + partitions - 1) / partitions
	for start := 0; start < n; start += chunkSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		end := start + chunkSize
		if end > n {
			end = n
		}
		emit(&memScanState{next: start, end: end})
	}
	return nil
}

// Fetch resolves a precomputed list of physical row ids directly, used by
// the index-scan variant after the pushdown rewrite has run.
func (t *MemTable) Fetch(_ txn.Txn, out *vector.Chunk, columnIDs []int, rowIDs []int64, _ FetchState) error {
	out.Reset()
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(rowIDs) > vector.StandardVectorSize {
		return fmt.Errorf("catalog: Fetch: %d row ids exceeds StandardVectorSize", len(rowIDs))
	}
	for i, rid := range rowIDs {
		row := int(rid)
		for outCol, tableCol := range columnIDs {
			v := t.columns[tableCol][row]
			if v == nil {
				out.Columns[outCol].SetNull(i)
			} else {
				out.Columns[outCol].SetValue(i, v)
			}
		}
	}
	out.SetCardinality(len(rowIDs))
	return nil
}
