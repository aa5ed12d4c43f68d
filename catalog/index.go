package catalog

import (
	"sort"

	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/txn"
)

// IndexScanState is opaque per-index scan state returned by
// InitializeScanSinglePredicate/InitializeScanTwoPredicates and consumed by
// Scan.
type IndexScanState interface{}

// Index is a single-column index over a table, usable by the index-pushdown
// rewrite when a scan's filters bound it. Multi-column indexes are out of
// scope (spec.md §4.7 skips them explicitly).
type Index interface {
	Name() string
	// Expression is the index's unbound key expression, referencing the
	// indexed table's column by position — a bare exec.ColumnRef for a
	// simple column index.
	Expression() exec.Expr

	InitializeScanSinglePredicate(tx txn.Txn, value interface{}, cmp exec.Comparator) (IndexScanState, error)
	InitializeScanTwoPredicates(tx txn.Txn, lo interface{}, loCmp exec.Comparator, hi interface{}, hiCmp exec.Comparator) (IndexScanState, error)

	// Scan fetches up to max row ids into outRowIDs, returning how many were
	// written and whether the index is now exhausted.
	Scan(tx txn.Txn, state IndexScanState, max int, outRowIDs []int64) (n int, done bool, err error)
}

// sortedEntry is one (key, row id) pair in a SortedIndex's ordered key list.
type sortedEntry struct {
	key   interface{}
	rowID int64
}

// SortedIndex is a reference Index implementation: an in-memory array of
// (key, row id) pairs kept sorted by key, binary-searched for bounds.
type SortedIndex struct {
	name    string
	expr    exec.Expr
	entries []sortedEntry
	less    func(a, b interface{}) bool
}

// NewSortedIndex builds a SortedIndex over the given (key, row id) pairs,
// sorting them by less.
func NewSortedIndex(name string, expr exec.Expr, less func(a, b interface{}) bool, keys []interface{}, rowIDs []int64) *SortedIndex {
	entries := make([]sortedEntry, len(keys))
	for i := range keys {
		entries[i] = sortedEntry{key: keys[i], rowID: rowIDs[i]}
	}
	sort.Slice(entries, func(i, j int) bool { return less(entries[i].key, entries[j].key) })
	return &SortedIndex{name: name, expr: expr, entries: entries, less: less}
}

func (idx *SortedIndex) Name() string        { return idx.name }
func (idx *SortedIndex) Expression() exec.Expr { return idx.expr }

type sortedIndexScanState struct {
	entries []sortedEntry
	pos     int
}

// InitializeScanSinglePredicate positions the scan at the first entry
// satisfying cmp(key, value), and bounds it to the contiguous run that
// still satisfies it (the index is sorted, so that run is a single slice).
func (idx *SortedIndex) InitializeScanSinglePredicate(_ txn.Txn, value interface{}, cmp exec.Comparator) (IndexScanState, error) {
	lo, hi := idx.boundsFor(value, cmp)
	return &sortedIndexScanState{entries: idx.entries[lo:hi]}, nil
}

// InitializeScanTwoPredicates intersects the lo/hi bounds into a single
// contiguous run (lo and hi are expected to be a lower and upper bound
// respectively, per spec.md §4.7 step 3's accumulation rule).
func (idx *SortedIndex) InitializeScanTwoPredicates(_ txn.Txn, lo interface{}, loCmp exec.Comparator, hi interface{}, hiCmp exec.Comparator) (IndexScanState, error) {
	loStart, _ := idx.boundsFor(lo, loCmp)
	_, hiEnd := idx.boundsFor(hi, hiCmp)
	if loStart > hiEnd {
		loStart = hiEnd
	}
	return &sortedIndexScanState{entries: idx.entries[loStart:hiEnd]}, nil
}

// boundsFor returns the [lo, hi) slice bounds of entries satisfying
// cmp(key, value) for Eq, Lt, Lte, Gt and Gte. Any other comparator (Neq)
// gets the bounds of the whole index, equal keys included.
func (idx *SortedIndex) boundsFor(value interface{}, cmp exec.Comparator) (int, int) {
	n := len(idx.entries)
	switch cmp {
	case exec.Eq:
		lo := sort.Search(n, func(i int) bool { return !idx.less(idx.entries[i].key, value) })
		hi := sort.Search(n, func(i int) bool { return idx.less(value, idx.entries[i].key) })
		return lo, hi
	case exec.Gte:
		lo := sort.Search(n, func(i int) bool { return !idx.less(idx.entries[i].key, value) })
		return lo, n
	case exec.Gt:
		hi := sort.Search(n, func(i int) bool { return idx.less(value, idx.entries[i].key) })
		return hi, n
	case exec.Lte:
		hi := sort.Search(n, func(i int) bool { return idx.less(value, idx.entries[i].key) })
		return 0, hi
	case exec.Lt:
		lo := sort.Search(n, func(i int) bool { return !idx.less(idx.entries[i].key, value) })
		return 0, lo
	default:
		return 0, n
	}
}

// Scan drains up to max row ids from the bounded run, in key order.
func (idx *SortedIndex) Scan(_ txn.Txn, state IndexScanState, max int, outRowIDs []int64) (int, bool, error) {
	st := state.(*sortedIndexScanState)
	n := 0
	for n < max && st.pos < len(st.entries) {
		outRowIDs[n] = st.entries[st.pos].rowID
		st.pos++
		n++
	}
	return n, st.pos >= len(st.entries), nil
}
