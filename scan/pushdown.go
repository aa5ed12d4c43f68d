package scan

import (
	"fmt"

	"github.com/wbrown/vecjoin/catalog"
	"github.com/wbrown/vecjoin/catalog/tuplekey"
	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/txn"
	"github.com/wbrown/vecjoin/vector"
)

// RewriteIndexPushdown attempts to convert bind's sequential scan into a
// single-range or point index scan, per spec.md §4.7. It tries each of the
// table's indexes in turn (skipping ones whose expression doesn't rewrite
// onto the scan's projected columns) and commits to the first one that
// yields a bound. On success it sets bind.IsIndexScan/bind.ResultIDs and
// returns true; FilterPushdown is then disabled for this bind data (see
// Function.FilterPushdown).
func RewriteIndexPushdown(tx txn.Txn, bind *BindData) (bool, error) {
	if bind.IsIndexScan {
		return false, nil
	}

	for _, idx := range bind.Table.Indexes() {
		rewritten, ok := rewriteForProjection(idx.Expression(), bind.Columns)
		if !ok {
			continue // a column reference failed to rewrite; skip this index
		}

		haveEq, haveLow, haveHigh := false, false, false
		var eqVal, lowVal, highVal interface{}
		var lowCmp, highCmp exec.Comparator

		for _, f := range bind.Filters {
			op, constant, matched := exec.MatchComparison(rewritten, f)
			if !matched {
				continue
			}
			if op == exec.Eq {
				haveEq, eqVal = true, constant
				break // equality short-circuits further matching for this index
			}
			if op.IsLowerBound() && !haveLow {
				haveLow, lowVal, lowCmp = true, constant, op
			} else if op.IsUpperBound() && !haveHigh {
				haveHigh, highVal, highCmp = true, constant, op
			}
		}

		state, ok, err := initIndexScan(tx, idx, haveEq, eqVal, haveLow, lowVal, lowCmp, haveHigh, highVal, highCmp)
		if err != nil {
			return false, err
		}
		if !ok {
			continue // no bound found on this index; try the next
		}

		resultIDs, err := drainIndexScan(tx, idx, state)
		if err != nil {
			return false, err
		}

		bind.IsIndexScan = true
		bind.ResultIDs = resultIDs
		return true, nil
	}
	return false, nil
}

// initIndexScan selects the predicate form per spec.md §4.7 step 4: single
// predicate for equality or a lone bound, two-predicate for a range.
func initIndexScan(
	tx txn.Txn, idx catalog.Index,
	haveEq bool, eqVal interface{},
	haveLow bool, lowVal interface{}, lowCmp exec.Comparator,
	haveHigh bool, highVal interface{}, highCmp exec.Comparator,
) (catalog.IndexScanState, bool, error) {
	var state catalog.IndexScanState
	var err error
	switch {
	case haveEq:
		state, err = idx.InitializeScanSinglePredicate(tx, eqVal, exec.Eq)
	case haveLow && haveHigh:
		state, err = idx.InitializeScanTwoPredicates(tx, lowVal, lowCmp, highVal, highCmp)
	case haveLow:
		state, err = idx.InitializeScanSinglePredicate(tx, lowVal, lowCmp)
	case haveHigh:
		state, err = idx.InitializeScanSinglePredicate(tx, highVal, highCmp)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("scan: index pushdown: %w", err)
	}
	return state, true, nil
}

// drainIndexScan pulls row ids from idx until it reports exhaustion or the
// accumulator reaches STANDARD_VECTOR_SIZE rows (spec.md §4.7 step 4),
// deduplicating against a hash set the way the storage layer's hash-join
// matchers dedupe a build side.
func drainIndexScan(tx txn.Txn, idx catalog.Index, state catalog.IndexScanState) ([]int64, error) {
	seen := tuplekey.NewSet(vector.StandardVectorSize)
	result := make([]int64, 0, vector.StandardVectorSize)
	buf := make([]int64, 256)

	for len(result) < vector.StandardVectorSize {
		want := vector.StandardVectorSize - len(result)
		if want > len(buf) {
			want = len(buf)
		}
		n, done, err := idx.Scan(tx, state, want, buf)
		if err != nil {
			return nil, fmt.Errorf("scan: index pushdown: %w", err)
		}
		for i := 0; i < n; i++ {
			if seen.Add(buf[i]) {
				result = append(result, buf[i])
			}
		}
		if done || n == 0 {
			break
		}
	}
	return result, nil
}

// rewriteForProjection rewrites expr's column reference from a raw table
// column id onto its position within columns, failing if the column isn't
// projected by this scan. Only a single bare column reference is rewritten;
// any other expression fails, so the caller skips that index.
func rewriteForProjection(expr exec.Expr, columns []int) (exec.Expr, bool) {
	cr, ok := expr.(exec.ColumnRef)
	if !ok {
		return nil, false
	}
	for pos, tableCol := range columns {
		if tableCol == cr.Index {
			return exec.ColumnRef{Index: pos, T: cr.T}, true
		}
	}
	return nil, false
}
