package vector

import "fmt"

// Chunk is a fixed-maximum-width horizontal batch of rows: an ordered
// sequence of columns (Vectors) sharing a common logical row count and an
// optional selection vector.
type Chunk struct {
	Columns []*Vector
	sel     []int
	count   int
}

// NewChunk allocates an empty chunk with one zero-length vector per type.
func NewChunk(types []TypeTag) *Chunk {
	cols := make([]*Vector, len(types))
	for i, t := range types {
		cols[i] = NewVector(t, StandardVectorSize)
	}
	return &Chunk{Columns: cols}
}

// Size returns the chunk's logical row count after selection.
func (c *Chunk) Size() int { return c.count }

// SetCardinality sets the logical row count shared by every column, clearing
// any selection vector (the caller is expected to have filled storage
// contiguously from index 0).
func (c *Chunk) SetCardinality(n int) {
	c.count = n
	c.sel = nil
	for _, v := range c.Columns {
		v.sel = nil
		v.count = n
	}
}

// Reset clears the chunk back to zero rows, ready for reuse by the next
// produce_chunk call. Column storage capacity is retained.
func (c *Chunk) Reset() {
	c.sel = nil
	c.count = 0
	for _, v := range c.Columns {
		v.sel = nil
		v.count = 0
	}
}

// SetSelection installs a shared selection vector across every column.
func (c *Chunk) SetSelection(sel []int) {
	c.sel = sel
	c.count = len(sel)
	for _, v := range c.Columns {
		v.SetSelection(sel)
	}
}

// Selection returns the chunk's shared selection vector, or nil.
func (c *Chunk) Selection() []int { return c.sel }

// PhysicalIndex translates a logical row position into the chunk-wide
// storage index it resolves to, independent of any particular column —
// useful when a chunk carries zero columns (e.g. a trivial-TRUE join
// condition with no comparators) but still needs a row-index mapping.
func (c *Chunk) PhysicalIndex(logical int) int {
	if c.sel != nil {
		return c.sel[logical]
	}
	return logical
}

// Flatten materializes every column's selection into contiguous storage and
// clears the chunk's selection vector.
func Flatten(c *Chunk) {
	if c.sel == nil {
		return
	}
	for _, v := range c.Columns {
		v.Flatten()
	}
	c.sel = nil
}

// ReferenceColumns makes dst's i-th column alias src's i-th column for each i
// in 0..n-1, adopting src's selection and row count.
func ReferenceColumns(dst, src *Chunk, n int) {
	for i := 0; i < n; i++ {
		Reference(dst.Columns[i], src.Columns[i])
	}
	dst.sel = src.sel
	dst.count = src.count
}

// RemoveNulls ORs the null masks of every column, builds a selection vector
// of the rows where the combined mask is unset, and installs it on the
// chunk. Returns true iff at least one row was filtered out. Idempotent:
// calling it again on an already-filtered chunk re-derives the same
// selection (no rows are newly non-null) and returns false.
func RemoveNulls(c *Chunk) bool {
	if len(c.Columns) == 0 || c.count == 0 {
		return false
	}
	combined := &NullMask{}
	for _, v := range c.Columns {
		combined.Or(v.NullMaskRef())
	}

	notNull := make([]int, 0, c.count)
	Exec(c.Columns[0], func(physical, logical int) {
		if !combined[physical] {
			notNull = append(notNull, physical)
		}
	})

	if len(notNull) == c.count {
		return false
	}
	c.SetSelection(notNull)
	return true
}

// Verify checks the chunk's structural invariants: every column shares the
// chunk's logical row count and selection-vector pointer. Intended for use
// under debug builds and tests; panics on violation (an Invariant-class
// error per the error taxonomy).
func Verify(c *Chunk) {
	for i, v := range c.Columns {
		if v.count != c.count {
			panic(fmt.Sprintf("vector.Verify: column %d has size %d, chunk has size %d", i, v.count, c.count))
		}
		if !sameSelection(v.sel, c.sel) {
			panic(fmt.Sprintf("vector.Verify: column %d selection vector does not match chunk selection vector", i))
		}
	}
}

func sameSelection(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	// Columns share the same backing selection slice by construction
	// (SetSelection installs it on every column); compare identity first.
	return &a[0] == &b[0] || equalInts(a, b)
}

func equalInts(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
