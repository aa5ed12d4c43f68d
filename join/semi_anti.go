package join

import "github.com/wbrown/vecjoin/vector"

// produceSemiAnti implements SEMI and ANTI by reusing the mark kernel's
// found array, per spec.md §9's Open Question ("SEMI/ANTI stubs may reuse
// the mark kernel's found array; not specified here"). SEMI keeps LHS rows
// with a match; ANTI keeps LHS rows without one. Unlike MARK, these
// variants use plain boolean existence (no three-valued NULL marker) since
// spec.md leaves their null handling undefined and this package's LHS rows
// have already had NULL-bearing condition rows stripped in
// pullNextLeftChunk (any join type but MARK).
func (s *State) produceSemiAnti(out *vector.Chunk) error {
	found := make([]bool, s.leftJoinCondition.Size())
	if err := MarkKernel(s.leftJoinCondition, s.rightChunks.Chunks, s.op.Conditions, found); err != nil {
		return err
	}

	want := s.op.JoinType == Semi
	sel := make([]int, 0, len(found))
	for i, f := range found {
		if f == want {
			sel = append(sel, s.leftJoinCondition.PhysicalIndex(i))
		}
	}

	if len(sel) == 0 {
		out.SetCardinality(0)
	} else {
		for i, col := range s.childChunk.Columns {
			vector.Reference(out.Columns[i], col)
			out.Columns[i].SetSelection(sel)
			out.Columns[i].Flatten()
		}
		out.SetCardinality(len(sel))
	}

	s.rightChunkIdx = len(s.rightChunks.Chunks) // next call pulls a new LHS chunk
	return nil
}
