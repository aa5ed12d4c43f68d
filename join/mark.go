package join

import (
	"github.com/wbrown/vecjoin/vector"
)

// MarkKernel computes, for each row li in L, whether some row across the
// entire materialized right collection R* matches all comparators — per
// spec.md §4.4. found must be pre-sized to at least L.Size() and is
// initialized to all-false by this call. Short-circuits: once a left row
// is matched, subsequent right rows are skipped for it.
func MarkKernel(l *vector.Chunk, rChunks []*vector.Chunk, conds []Condition, found []bool) error {
	n := l.Size()
	for i := 0; i < n; i++ {
		found[i] = false
	}
	remaining := n

	for _, r := range rChunks {
		if remaining == 0 {
			break
		}
		rSize := r.Size()
		for ri := 0; ri < rSize && remaining > 0; ri++ {
			for li := 0; li < n; li++ {
				if found[li] {
					continue
				}
				ok, err := matchRow(l, li, r, ri, conds)
				if err != nil {
					return err
				}
				if ok {
					found[li] = true
					remaining--
				}
			}
		}
	}
	return nil
}
