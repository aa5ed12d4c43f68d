package vector

// Collection is a resizable ordered container of chunks with a cumulative
// row count, used to buffer a materialized join build side. Appending a
// chunk copies rows into the last chunk until full, then allocates a new
// one — mirroring the teacher's chunked-append-and-iterate storage buffers.
type Collection struct {
	Chunks []*Chunk
	types  []TypeTag
	count  int
}

// NewCollection creates an empty collection over the given column types.
func NewCollection(types []TypeTag) *Collection {
	return &Collection{types: append([]TypeTag{}, types...)}
}

// Count returns the cumulative row count across all chunks.
func (col *Collection) Count() int { return col.count }

// Append copies every row of src into the collection, filling the current
// tail chunk before allocating a new one. src is expected to be flattened
// (no selection vector) by the caller; Append flattens a copy defensively.
func (col *Collection) Append(src *Chunk) {
	if src.Size() == 0 {
		return
	}
	work := &Chunk{Columns: make([]*Vector, len(src.Columns))}
	for i, v := range src.Columns {
		cp := &Vector{Type: v.Type}
		Reference(cp, v)
		cp.Flatten()
		work.Columns[i] = cp
	}
	work.count = src.Size()

	remaining := work.Size()
	srcOffset := 0
	for remaining > 0 {
		tail := col.tailOrNew()
		space := StandardVectorSize - tail.Size()
		take := remaining
		if take > space {
			take = space
		}
		appendRows(tail, work, srcOffset, take)
		remaining -= take
		srcOffset += take
		col.count += take
	}
}

func (col *Collection) tailOrNew() *Chunk {
	if len(col.Chunks) > 0 {
		tail := col.Chunks[len(col.Chunks)-1]
		if tail.Size() < StandardVectorSize {
			return tail
		}
	}
	fresh := NewChunk(col.types)
	col.Chunks = append(col.Chunks, fresh)
	return fresh
}

// appendRows copies n rows starting at srcOffset from src into dst, starting
// at dst's current size, growing dst's logical row count.
func appendRows(dst, src *Chunk, srcOffset, n int) {
	base := dst.Size()
	for i, dstCol := range dst.Columns {
		srcCol := src.Columns[i]
		for k := 0; k < n; k++ {
			p := base + k
			if srcCol.IsNull(srcOffset + k) {
				dstCol.SetNull(p)
			} else {
				dstCol.SetValue(p, srcCol.Get(srcOffset+k))
			}
		}
	}
	dst.SetCardinality(base + n)
}
