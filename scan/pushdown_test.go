package scan

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/vecjoin/catalog"
	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/txn"
	"github.com/wbrown/vecjoin/vector"
)

func lessInt64(a, b interface{}) bool { return a.(int64) < b.(int64) }

func newIndexedWidgets() *catalog.MemTable {
	tbl := newWidgets()
	idx := catalog.NewSortedIndex(
		"idx_x",
		exec.ColumnRef{Index: 0, T: vector.TypeInt64},
		lessInt64,
		[]interface{}{int64(5), int64(15), int64(25), int64(35)},
		[]int64{0, 1, 2, 3},
	)
	tbl.AddIndex(idx)
	return tbl
}

func TestIndexPushdownEquality(t *testing.T) {
	tbl := newIndexedWidgets()
	tx := txn.NewMemTxn(1)
	bind := &BindData{
		Table:   tbl,
		Columns: []int{0},
		Filters: []exec.Comparison{{
			Left:  exec.ColumnRef{Index: 0, T: vector.TypeInt64},
			Op:    exec.Eq,
			Right: exec.Const{Value: int64(25), T: vector.TypeInt64},
		}},
	}

	ok, err := RewriteIndexPushdown(tx, bind)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, bind.IsIndexScan)
	require.Equal(t, []int64{2}, bind.ResultIDs)

	f := NewFunction(Options{})
	require.False(t, f.FilterPushdown(bind))

	state, err := f.Init(tx, bind, nil)
	require.NoError(t, err)
	chunks := drainFunction(t, f, state, []vector.TypeTag{vector.TypeInt64})
	require.Len(t, chunks, 1)
	require.Equal(t, 1, chunks[0].Size())
	require.Equal(t, int64(25), chunks[0].Columns[0].Get(0))
}

func TestIndexPushdownRange(t *testing.T) {
	tbl := newIndexedWidgets()
	tx := txn.NewMemTxn(1)
	bind := &BindData{
		Table:   tbl,
		Columns: []int{0},
		Filters: []exec.Comparison{
			{
				Left:  exec.ColumnRef{Index: 0, T: vector.TypeInt64},
				Op:    exec.Gte,
				Right: exec.Const{Value: int64(10), T: vector.TypeInt64},
			},
			{
				Left:  exec.ColumnRef{Index: 0, T: vector.TypeInt64},
				Op:    exec.Lt,
				Right: exec.Const{Value: int64(30), T: vector.TypeInt64},
			},
		},
	}

	ok, err := RewriteIndexPushdown(tx, bind)
	require.NoError(t, err)
	require.True(t, ok)
	require.ElementsMatch(t, []int64{1, 2}, bind.ResultIDs)

	f := NewFunction(Options{})
	state, err := f.Init(tx, bind, nil)
	require.NoError(t, err)
	chunks := drainFunction(t, f, state, []vector.TypeTag{vector.TypeInt64})
	require.Len(t, chunks, 1)
	require.Equal(t, 2, chunks[0].Size())
}

func TestIndexPushdownConstantOnLeftIsFlipped(t *testing.T) {
	tbl := newIndexedWidgets()
	tx := txn.NewMemTxn(1)
	bind := &BindData{
		Table:   tbl,
		Columns: []int{0},
		Filters: []exec.Comparison{{
			Left:  exec.Const{Value: int64(20), T: vector.TypeInt64},
			Op:    exec.Lt, // 20 < x  ==  x > 20, flipped to Gt
			Right: exec.ColumnRef{Index: 0, T: vector.TypeInt64},
		}},
	}

	ok, err := RewriteIndexPushdown(tx, bind)
	require.NoError(t, err)
	require.True(t, ok)
	require.ElementsMatch(t, []int64{2, 3}, bind.ResultIDs)
}

func TestIndexPushdownSkipsUnprojectedColumn(t *testing.T) {
	tbl := newIndexedWidgets()
	tx := txn.NewMemTxn(1)
	// Index is on table column 0, but this scan only projects column 1 —
	// the rewrite can't match the index expression onto it.
	bind := &BindData{
		Table:   tbl,
		Columns: []int{1},
		Filters: []exec.Comparison{{
			Left:  exec.ColumnRef{Index: 0, T: vector.TypeInt64},
			Op:    exec.Eq,
			Right: exec.Const{Value: int64(25), T: vector.TypeInt64},
		}},
	}

	ok, err := RewriteIndexPushdown(tx, bind)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, bind.IsIndexScan)
}

func TestIndexPushdownNoMatchingFilterLeavesSeqScan(t *testing.T) {
	tbl := newIndexedWidgets()
	tx := txn.NewMemTxn(1)
	bind := &BindData{Table: tbl, Columns: []int{0}}

	ok, err := RewriteIndexPushdown(tx, bind)
	require.NoError(t, err)
	require.False(t, ok)
}
