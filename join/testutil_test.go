package join

import "github.com/wbrown/vecjoin/vector"

// makeChunk builds a single-column int64 chunk; nil entries become NULL.
func makeChunk(values []interface{}) *vector.Chunk {
	c := vector.NewChunk([]vector.TypeTag{vector.TypeInt64})
	col := c.Columns[0]
	for i, v := range values {
		if v == nil {
			col.SetNull(i)
		} else {
			col.SetValue(i, v.(int64))
		}
	}
	c.SetCardinality(len(values))
	return c
}

// sliceChild is a fixed-content Child used to drive join tests: it serves
// one pre-built chunk per call, then EOF.
type sliceChild struct {
	types  []vector.TypeTag
	chunks []*vector.Chunk
}

func (c *sliceChild) GetTypes() []vector.TypeTag { return c.types }

func (c *sliceChild) GetOperatorState() ChildState {
	return &sliceChildState{chunks: c.chunks}
}

type sliceChildState struct {
	chunks []*vector.Chunk
	idx    int
}

func (s *sliceChildState) ProduceChunk(out *vector.Chunk) error {
	out.Reset()
	if s.idx >= len(s.chunks) {
		return nil
	}
	src := s.chunks[s.idx]
	s.idx++
	for i, col := range src.Columns {
		for r := 0; r < src.Size(); r++ {
			if col.IsNull(r) {
				out.Columns[i].SetNull(r)
			} else {
				out.Columns[i].SetValue(r, col.Get(r))
			}
		}
	}
	out.SetCardinality(src.Size())
	return nil
}

func newSingleColChild(values []interface{}) *sliceChild {
	return &sliceChild{
		types:  []vector.TypeTag{vector.TypeInt64},
		chunks: []*vector.Chunk{makeChunk(values)},
	}
}

func drainAll(state *State) ([]*vector.Chunk, error) {
	var out []*vector.Chunk
	for {
		c := vector.NewChunk(state.op.GetTypes())
		if err := state.ProduceChunk(c); err != nil {
			return out, err
		}
		if c.Size() == 0 {
			return out, nil
		}
		out = append(out, c)
	}
}
