package catalog

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/txn"
	"github.com/wbrown/vecjoin/vector"
)

// BadgerTable is a DataTable backed by BadgerDB: each cell is stored under
// its own key (table prefix, row id, column id), one type-tagged value per
// key, with a missing key meaning SQL NULL — grounding this directly in the
// teacher's per-index key/value layout rather than inventing a row-major
// blob format.
type BadgerTable struct {
	db     *badger.DB
	prefix byte
	name   string
	types  []vector.TypeTag

	mu       sync.RWMutex
	rowCount uint64

	indexes []Index
}

// OpenBadgerTable opens (or attaches to) a table namespace within db. prefix
// must be unique across tables sharing the same db.
func OpenBadgerTable(db *badger.DB, prefix byte, name string, types []vector.TypeTag) (*BadgerTable, error) {
	t := &BadgerTable{db: db, prefix: prefix, name: name, types: types}
	if err := t.db.View(func(tx *badger.Txn) error {
		n, err := t.countRows(tx)
		if err != nil {
			return err
		}
		t.rowCount = n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("catalog: open table %s: %w", name, err)
	}
	return t, nil
}

func (t *BadgerTable) countRows(tx *badger.Txn) (uint64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := tx.NewIterator(opts)
	defer it.Close()

	var max uint64
	seen := false
	for it.Seek([]byte{t.prefix}); it.ValidForPrefix([]byte{t.prefix}); it.Next() {
		key := it.Item().Key()
		rowID := binary.BigEndian.Uint64(key[1:9])
		if !seen || rowID+1 > max {
			max = rowID + 1
			seen = true
		}
	}
	return max, nil
}

func (t *BadgerTable) Name() string                  { return t.name }
func (t *BadgerTable) ColumnTypes() []vector.TypeTag { return t.types }

func (t *BadgerTable) RowCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(t.rowCount)
}

// AddIndex registers an index over this table.
func (t *BadgerTable) AddIndex(idx Index) { t.indexes = append(t.indexes, idx) }

func (t *BadgerTable) Indexes() []Index { return t.indexes }

// AppendRow writes one row's non-nil columns as individual keys inside a
// single Badger update transaction.
func (t *BadgerTable) AppendRow(values ...interface{}) error {
	t.mu.Lock()
	rowID := t.rowCount
	t.rowCount++
	t.mu.Unlock()

	return t.db.Update(func(tx *badger.Txn) error {
		for col, v := range values {
			if v == nil {
				continue
			}
			enc, err := encodeCellValue(v)
			if err != nil {
				return err
			}
			if err := tx.Set(encodeCellKey(t.prefix, rowID, col), enc); err != nil {
				return fmt.Errorf("catalog: append row %d col %d: %w", rowID, col, err)
			}
		}
		return nil
	})
}

func encodeCellKey(prefix byte, rowID uint64, col int) []byte {
	buf := make([]byte, 1+8+2)
	buf[0] = prefix
	binary.BigEndian.PutUint64(buf[1:9], rowID)
	binary.BigEndian.PutUint16(buf[9:11], uint16(col))
	return buf
}

func encodeCellValue(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case int64:
		buf := make([]byte, 9)
		buf[0] = byte(vector.TypeInt64)
		binary.BigEndian.PutUint64(buf[1:], uint64(val))
		return buf, nil
	case float64:
		buf := make([]byte, 9)
		buf[0] = byte(vector.TypeFloat64)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(val))
		return buf, nil
	case string:
		buf := make([]byte, 1+len(val))
		buf[0] = byte(vector.TypeString)
		copy(buf[1:], val)
		return buf, nil
	case bool:
		b := byte(0)
		if val {
			b = 1
		}
		return []byte{byte(vector.TypeBool), b}, nil
	default:
		return nil, fmt.Errorf("catalog: unsupported cell value type %T", v)
	}
}

func decodeCellValue(b []byte) (interface{}, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("catalog: empty encoded cell value")
	}
	switch vector.TypeTag(b[0]) {
	case vector.TypeInt64:
		return int64(binary.BigEndian.Uint64(b[1:])), nil
	case vector.TypeFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(b[1:])), nil
	case vector.TypeString:
		return string(b[1:]), nil
	case vector.TypeBool:
		return b[1] == 1, nil
	default:
		return nil, fmt.Errorf("catalog: unknown encoded type tag %d", b[0])
	}
}

// badgerScanState is a contiguous, half-open row-id range still to be
// scanned; parallel partitions each get a disjoint instance.
type badgerScanState struct {
	next, end uint64
}

func (t *BadgerTable) InitializeScan(_ txn.Txn, _ []int, _ []exec.Comparison) (ScanState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &badgerScanState{next: 0, end: t.rowCount}, nil
}

func (t *BadgerTable) Scan(tx txn.Txn, out *vector.Chunk, state ScanState, columnIDs []int, filters []exec.Comparison) error {
	out.Reset()
	st, ok := state.(*badgerScanState)
	if !ok {
		return fmt.Errorf("catalog: badgerTable.Scan: wrong state type %T", state)
	}
	inner, err := t.innerTxn(tx)
	if err != nil {
		return err
	}

	written := 0
	for ; st.next < st.end && written < vector.StandardVectorSize; st.next++ {
		row, err := t.readRow(inner, st.next)
		if err != nil {
			return err
		}
		if !t.rowMatches(row, columnIDs, filters) {
			continue
		}
		for outCol, tableCol := range columnIDs {
			if v := row[tableCol]; v == nil {
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

func (t *BadgerTable) innerTxn(tx txn.Txn) (*badger.Txn, error) {
	bt, ok := tx.(*txn.BadgerTxn)
	if !ok {
		return nil, fmt.Errorf("catalog: badgerTable requires a *txn.BadgerTxn, got %T", tx)
	}
	return bt.Inner()
}

func (t *BadgerTable) readRow(tx *badger.Txn, rowID uint64) ([]interface{}, error) {
	row := make([]interface{}, len(t.types))
	for col := range t.types {
		item, err := tx.Get(encodeCellKey(t.prefix, rowID, col))
		if err == badger.ErrKeyNotFound {
			continue // absent key means SQL NULL
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read row %d col %d: %w", rowID, col, err)
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("catalog: copy value row %d col %d: %w", rowID, col, err)
		}
		decoded, err := decodeCellValue(val)
		if err != nil {
			return nil, err
		}
		row[col] = decoded
	}
	return row, nil
}

// rowMatches tests row (indexed by raw table column id) against filters,
// which are bound to the scan's own output schema (positions within
// columnIDs) — the same convention the index-pushdown rewrite uses when it
// rewrites an index expression onto the scan's projection.
func (t *BadgerTable) rowMatches(row []interface{}, columnIDs []int, filters []exec.Comparison) bool {
	if len(filters) == 0 {
		return true
	}
	probe := t.rowChunk(row, columnIDs)
	for _, f := range filters {
		val, isNull := f.Eval(probe, 0)
		if isNull || val == false {
			return false
		}
	}
	return true
}

func (t *BadgerTable) rowChunk(row []interface{}, columnIDs []int) *vector.Chunk {
	types := make([]vector.TypeTag, len(columnIDs))
	for i, tableCol := range columnIDs {
		types[i] = t.types[tableCol]
	}
	c := vector.NewChunk(types)
	for i, tableCol := range columnIDs {
		v := row[tableCol]
		if v == nil {
			c.Columns[i].SetNull(0)
		} else {
			c.Columns[i].SetValue(0, v)
		}
	}
	c.SetCardinality(1)
	return c
}

// InitializeParallelScan partitions [0, rowCount) into a handful of
// disjoint, contiguous ranges, mirroring MemTable's partitioning strategy.
func (t *BadgerTable) InitializeParallelScan(ctx context.Context, _ []int, _ []exec.Comparison, emit func(ScanState)) error {
	const partitions = 4
	t.mu.RLock()
	n := t.rowCount
	t.mu.RUnlock()

	if n == 0 {
		emit(&badgerScanState{next: 0, end: 0})
		return nil
	}

	chunkSize := (n + partitions - 1) / partitions
	for start := uint64(0); start < n; start += chunkSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		end := start + chunkSize
		if end > n {
			end = n
		}
		emit(&badgerScanState{next: start, end: end})
	}
	return nil
}

// Fetch resolves a precomputed list of physical row ids directly, used by
// the index-scan variant after the pushdown rewrite has run.
func (t *BadgerTable) Fetch(tx txn.Txn, out *vector.Chunk, columnIDs []int, rowIDs []int64, _ FetchState) error {
	out.Reset()
	if len(rowIDs) > vector.StandardVectorSize {
		return fmt.Errorf("catalog: Fetch: %d row ids exceeds StandardVectorSize", len(rowIDs))
	}
	inner, err := t.innerTxn(tx)
	if err != nil {
		return err
	}
	for i, rid := range rowIDs {
		row, err := t.readRow(inner, uint64(rid))
		if err != nil {
			return err
		}
		for outCol, tableCol := range columnIDs {
			if v := row[tableCol]; v == nil {
				out.Columns[outCol].SetNull(i)
			} else {
				out.Columns[outCol].SetValue(i, v)
			}
		}
	}
	out.SetCardinality(len(rowIDs))
	return nil
}
