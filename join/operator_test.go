package join

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/vector"
)

func colRef() exec.Expr { return exec.ColumnRef{Index: 0, T: vector.TypeInt64} }

func vals(xs ...interface{}) []interface{} { return xs }

func i64(v int64) interface{} { return v }

func TestInnerCrossJoin(t *testing.T) {
	left := newSingleColChild(vals(i64(1), i64(2), i64(3)))
	right := newSingleColChild(vals(i64(10), i64(20)))

	op := NewOperator(left, right, nil, Inner, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	out := chunks[0]
	require.Equal(t, 6, out.Size())

	wantL := []int64{1, 1, 2, 2, 3, 3}
	wantR := []int64{10, 20, 10, 20, 10, 20}
	for i := 0; i < 6; i++ {
		require.Equal(t, wantL[i], out.Columns[0].Get(i))
		require.Equal(t, wantR[i], out.Columns[1].Get(i))
	}
}

func TestInnerEquiJoinDropsNulls(t *testing.T) {
	left := newSingleColChild(vals(i64(1), i64(2), i64(3), nil))
	right := newSingleColChild(vals(i64(2), i64(3), i64(3), nil))

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Inner, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	out := chunks[0]
	require.Equal(t, 3, out.Size())

	wantL := []int64{2, 3, 3}
	wantR := []int64{2, 3, 3}
	for i := 0; i < 3; i++ {
		require.Equal(t, wantL[i], out.Columns[0].Get(i))
		require.Equal(t, wantR[i], out.Columns[1].Get(i))
	}
}

func TestMarkJoin(t *testing.T) {
	left := newSingleColChild(vals(i64(1), i64(2), i64(3), nil))
	right := newSingleColChild(vals(i64(2), i64(3)))

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Mark, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	out := chunks[0]
	require.Equal(t, 4, out.Size())

	mark := out.Columns[1]
	require.False(t, mark.Get(0).(bool))
	require.True(t, mark.Get(1).(bool))
	require.True(t, mark.Get(2).(bool))
	require.True(t, mark.IsNull(3))
}

func TestMarkJoinWithNullRHS(t *testing.T) {
	left := newSingleColChild(vals(i64(1), i64(2)))
	right := newSingleColChild(vals(i64(2), nil))

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Mark, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	out := chunks[0]

	mark := out.Columns[1]
	require.True(t, mark.IsNull(0)) // row 1: no match, but RHS had a null -> NULL
	require.True(t, mark.Get(1).(bool))
}

func TestInnerEmptyRHSYieldsZeroRows(t *testing.T) {
	left := newSingleColChild(vals(i64(1), i64(2)))
	right := &sliceChild{types: []vector.TypeTag{vector.TypeInt64}} // zero chunks

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Inner, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestMarkEmptyRHSAllFalseOrNull(t *testing.T) {
	left := newSingleColChild(vals(i64(1), nil))
	right := &sliceChild{types: []vector.TypeTag{vector.TypeInt64}}

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Mark, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	mark := chunks[0].Columns[1]
	require.False(t, mark.Get(0).(bool))
	require.True(t, mark.IsNull(1)) // left row itself null -> NULL, not false
}

func TestAntiEmptyRHSYieldsAllLHSRows(t *testing.T) {
	left := newSingleColChild(vals(i64(1), i64(2), i64(3)))
	right := &sliceChild{types: []vector.TypeTag{vector.TypeInt64}}

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Anti, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 3, chunks[0].Size())
}

func TestSemiJoinKeepsOnlyMatches(t *testing.T) {
	left := newSingleColChild(vals(i64(1), i64(2), i64(3)))
	right := newSingleColChild(vals(i64(2), i64(3)))

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Semi, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 2, chunks[0].Size())
	require.Equal(t, int64(2), chunks[0].Columns[0].Get(0))
	require.Equal(t, int64(3), chunks[0].Columns[0].Get(1))
}

func TestAntiJoinKeepsOnlyNonMatches(t *testing.T) {
	left := newSingleColChild(vals(i64(1), i64(2), i64(3)))
	right := newSingleColChild(vals(i64(2), i64(3)))

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Anti, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 1, chunks[0].Size())
	require.Equal(t, int64(1), chunks[0].Columns[0].Get(0))
}

func TestInnerKernelOverflowsAcrossStandardVectorSize(t *testing.T) {
	// One full-width LHS chunk against two matching RHS rows: 2*n matches,
	// more than one output chunk holds, so the kernel must stop and resume.
	n := vector.StandardVectorSize
	leftVals := make([]interface{}, n)
	for i := range leftVals {
		leftVals[i] = i64(1)
	}
	left := newSingleColChild(leftVals)
	right := newSingleColChild(vals(i64(1), i64(1)))

	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}
	op := NewOperator(left, right, cond, Inner, Options{})
	state := op.GetOperatorState()

	chunks, err := drainAll(state)
	require.NoError(t, err)
	total := 0
	for _, c := range chunks {
		total += c.Size()
		require.LessOrEqual(t, c.Size(), vector.StandardVectorSize)
	}
	require.Equal(t, 2*n, total)
	require.Greater(t, len(chunks), 1, "overflow should split into multiple output chunks")
}

func TestLeftAndSingleAreNotImplemented(t *testing.T) {
	left := newSingleColChild(vals(i64(1)))
	right := newSingleColChild(vals(i64(1)))
	cond := []Condition{{Left: colRef(), Right: colRef(), Comparator: exec.Eq}}

	for _, jt := range []Type{Left, Single} {
		op := NewOperator(left, right, cond, jt, Options{})
		state := op.GetOperatorState()
		err := state.ProduceChunk(vector.NewChunk(op.GetTypes()))
		require.ErrorIs(t, err, ErrNotImplemented)
	}
}
