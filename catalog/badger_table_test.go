package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/txn"
	"github.com/wbrown/vecjoin/vector"
)

// openTestBadgerDB opens a real, temp-directory-backed Badger database,
// mirroring the teacher's badger_store_test.go setup.
func openTestBadgerDB(t *testing.T) *badger.DB {
	dir, err := os.MkdirTemp("", "badger-table-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestBadgerTable(t *testing.T) *BadgerTable {
	db := openTestBadgerDB(t)
	tbl, err := OpenBadgerTable(db, 'w', "widgets", []vector.TypeTag{vector.TypeInt64, vector.TypeString})
	require.NoError(t, err)

	require.NoError(t, tbl.AppendRow(int64(5), "a"))
	require.NoError(t, tbl.AppendRow(int64(15), "b"))
	require.NoError(t, tbl.AppendRow(int64(25), "c"))
	require.NoError(t, tbl.AppendRow(int64(35), nil))
	return tbl
}

func TestBadgerTableScanAllRows(t *testing.T) {
	tbl := newTestBadgerTable(t)
	require.Equal(t, int64(4), tbl.RowCount())

	tx := txn.NewBadgerTxn(tbl.db, 1)
	defer tx.Discard()

	state, err := tbl.InitializeScan(tx, []int{0, 1}, nil)
	require.NoError(t, err)

	out := vector.NewChunk([]vector.TypeTag{vector.TypeInt64, vector.TypeString})
	require.NoError(t, tbl.Scan(tx, out, state, []int{0, 1}, nil))
	require.Equal(t, 4, out.Size())
	require.Equal(t, int64(5), out.Columns[0].Get(0))
	require.Equal(t, "a", out.Columns[1].Get(0))
	require.True(t, out.Columns[1].IsNull(3))

	require.NoError(t, tbl.Scan(tx, out, state, []int{0, 1}, nil))
	require.Equal(t, 0, out.Size())
}

func TestBadgerTableScanWithFilter(t *testing.T) {
	tbl := newTestBadgerTable(t)
	tx := txn.NewBadgerTxn(tbl.db, 1)
	defer tx.Discard()

	filters := []exec.Comparison{{
		Left:  exec.ColumnRef{Index: 0, T: vector.TypeInt64},
		Op:    exec.Gt,
		Right: exec.Const{Value: int64(15), T: vector.TypeInt64},
	}}

	state, err := tbl.InitializeScan(tx, []int{0}, filters)
	require.NoError(t, err)

	out := vector.NewChunk([]vector.TypeTag{vector.TypeInt64})
	require.NoError(t, tbl.Scan(tx, out, state, []int{0}, filters))
	require.Equal(t, 2, out.Size())
	require.Equal(t, int64(25), out.Columns[0].Get(0))
	require.Equal(t, int64(35), out.Columns[0].Get(1))
}

func TestBadgerTableParallelScanCoversWholeTable(t *testing.T) {
	tbl := newTestBadgerTable(t)

	var states []ScanState
	err := tbl.InitializeParallelScan(context.Background(), []int{0}, nil, func(st ScanState) {
		states = append(states, st)
	})
	require.NoError(t, err)
	require.NotEmpty(t, states)

	tx := txn.NewBadgerTxn(tbl.db, 1)
	defer tx.Discard()

	seen := map[int64]bool{}
	for _, st := range states {
		out := vector.NewChunk([]vector.TypeTag{vector.TypeInt64})
		for {
			require.NoError(t, tbl.Scan(tx, out, st, []int{0}, nil))
			if out.Size() == 0 {
				break
			}
			for i := 0; i < out.Size(); i++ {
				seen[out.Columns[0].Get(i).(int64)] = true
			}
		}
	}
	require.Len(t, seen, 4)
}

func TestBadgerTableFetch(t *testing.T) {
	tbl := newTestBadgerTable(t)
	tx := txn.NewBadgerTxn(tbl.db, 1)
	defer tx.Discard()

	out := vector.NewChunk([]vector.TypeTag{vector.TypeInt64, vector.TypeString})
	require.NoError(t, tbl.Fetch(tx, out, []int{0, 1}, []int64{2, 0}, nil))
	require.Equal(t, 2, out.Size())
	require.Equal(t, int64(25), out.Columns[0].Get(0))
	require.Equal(t, "c", out.Columns[1].Get(0))
	require.Equal(t, int64(5), out.Columns[0].Get(1))
}

func TestBadgerTableAddIndexRegistersIndex(t *testing.T) {
	tbl := newTestBadgerTable(t)
	tbl.AddIndex(NewSortedIndex(
		"idx_x",
		exec.ColumnRef{Index: 0, T: vector.TypeInt64},
		func(a, b interface{}) bool { return a.(int64) < b.(int64) },
		[]interface{}{int64(5), int64(15), int64(25), int64(35)},
		[]int64{0, 1, 2, 3},
	))
	require.Len(t, tbl.Indexes(), 1)
}

func TestBadgerTxnDiscardIsIdempotentAndBlocksFurtherUse(t *testing.T) {
	db := openTestBadgerDB(t)
	tx := txn.NewBadgerTxn(db, 7)
	require.Equal(t, uint64(7), tx.ID())

	inner, err := tx.Inner()
	require.NoError(t, err)
	require.NotNil(t, inner)

	tx.Discard()
	tx.Discard() // safe to call twice

	_, err = tx.Inner()
	require.Error(t, err)
}
