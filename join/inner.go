package join

import (
	"github.com/wbrown/vecjoin/vector"
)

// InnerKernel performs a resumable nested-loop match of left condition
// chunk L against right condition chunk R, per spec.md §4.3.
//
// li, ri are the cursor positions to resume at (0,0 to start). It iterates
// li from its current value to L.Size()-1; for each li, ri from its
// current value to R.Size()-1; on a match of every comparator it appends
// (li, ri) to the output. Output order is (left-outer, right-inner)
// lexicographic: all matches for a given li are emitted contiguously in
// increasing ri.
//
// The kernel stops and returns early once lvec/rvec reach capacity,
// reporting the (li, ri) pair to resume at on the next call. A NULL value
// on either side of a comparator makes that comparator FALSE.
func InnerKernel(li, ri int, l, r *vector.Chunk, conds []Condition, lvec, rvec []int) (matchCount, nextLi, nextRi int, err error) {
	capacity := len(lvec)
	lSize := l.Size()
	rSize := r.Size()

	for li < lSize {
		for ri < rSize {
			ok, evalErr := matchRow(l, li, r, ri, conds)
			if evalErr != nil {
				return 0, li, ri, evalErr
			}
			if ok {
				// lvec/rvec carry physical storage indices (not logical
				// cursor positions) so they can be installed directly as
				// a selection vector over the unselected LHS/RHS data
				// chunks during result construction.
				lvec[matchCount] = l.PhysicalIndex(li)
				rvec[matchCount] = r.PhysicalIndex(ri)
				matchCount++
				if matchCount == capacity {
					ri++
					if ri >= rSize {
						ri = 0
						li++
					}
					return matchCount, li, ri, nil
				}
			}
			ri++
		}
		ri = 0
		li++
	}
	return matchCount, li, ri, nil
}

// matchRow evaluates the conjunction of every condition's comparator on
// (l[li], r[ri]).
func matchRow(l *vector.Chunk, li int, r *vector.Chunk, ri int, conds []Condition) (bool, error) {
	for i, cond := range conds {
		lv := l.Columns[i]
		rv := r.Columns[i]
		if lv.IsNull(li) || rv.IsNull(ri) {
			// A NULL operand makes this comparator FALSE for inner-join
			// purposes (spec.md §4.3).
			return false, nil
		}
		ok, err := cond.Comparator.Apply(lv.Get(li), rv.Get(ri))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
