package join

import (
	"fmt"
	"sync"

	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/vector"
)

const defaultCapacity = vector.StandardVectorSize

// Child is the operator contract a join's left/right input satisfies,
// mirroring the "consumed" operator interface of spec.md §6.
type Child interface {
	GetTypes() []vector.TypeTag
	GetOperatorState() ChildState
}

// ChildState drives a child operator one chunk at a time; out.Size()==0
// signals EOF. Implementations reset out at entry and fill it.
type ChildState interface {
	ProduceChunk(out *vector.Chunk) error
}

// Operator is a nested-loop join: a streaming left / materialized right
// join with INNER, MARK, SEMI, and ANTI variants.
type Operator struct {
	Left, Right Child
	Conditions  []Condition
	JoinType    Type
	Opts        Options
}

// NewOperator constructs a nested-loop join operator. LEFT and SINGLE are
// accepted at construction (spec.md leaves their semantics undefined) but
// State.ProduceChunk's probe dispatch returns ErrNotImplemented for them.
func NewOperator(left, right Child, conditions []Condition, joinType Type, opts Options) *Operator {
	return &Operator{Left: left, Right: right, Conditions: conditions, JoinType: joinType, Opts: opts}
}

// GetTypes returns the operator's output schema: LHS columns, then either a
// single trailing bool (MARK) or the RHS columns (INNER); SEMI/ANTI output
// only LHS columns.
func (op *Operator) GetTypes() []vector.TypeTag {
	left := append([]vector.TypeTag{}, op.Left.GetTypes()...)
	switch op.JoinType {
	case Mark:
		return append(left, vector.TypeBool)
	case Semi, Anti:
		return left
	default:
		return append(left, op.Right.GetTypes()...)
	}
}

// GetOperatorState allocates fresh, per-execution operator state. The RHS
// build is lazy: it happens on the first ProduceChunk call.
func (op *Operator) GetOperatorState() *State {
	condTypes := conditionTypes(op.Conditions)
	return &State{
		op:                op,
		leftState:         op.Left.GetOperatorState(),
		leftJoinCondition: vector.NewChunk(condTypes),
		childChunk:        vector.NewChunk(op.Left.GetTypes()),
		condTypes:         condTypes,
		lvec:              make([]int, op.Opts.capacity()),
		rvec:              make([]int, op.Opts.capacity()),
	}
}

// State is the nested-loop join's per-execution operator state: the
// materialized RHS, the current LHS condition/input chunks, and cursor
// positions resumed across ProduceChunk calls.
type State struct {
	op *Operator

	leftState ChildState

	buildOnce   sync.Once
	buildErr    error
	rightData   *vector.Collection
	rightChunks *vector.Collection
	hasNull     bool

	condTypes         []vector.TypeTag
	leftJoinCondition *vector.Chunk
	childChunk        *vector.Chunk

	rightChunkIdx int
	rightTuple    int
	leftTuple     int

	lvec, rvec []int
}

// ensureBuilt performs the lazy, once-only RHS materialization: drain the
// right child to EOF, evaluating each condition's right expression into a
// condition chunk per RHS chunk, then strip NULL-bearing rows from every
// condition chunk.
func (s *State) ensureBuilt() error {
	s.buildOnce.Do(func() {
		rightState := s.op.Right.GetOperatorState()
		rightTypes := s.op.Right.GetTypes()

		rightData := vector.NewCollection(rightTypes)
		rightChunks := vector.NewCollection(s.condTypes)

		for {
			rc := vector.NewChunk(rightTypes)
			if err := rightState.ProduceChunk(rc); err != nil {
				s.buildErr = fmt.Errorf("join: build phase: %w", err)
				return
			}
			if rc.Size() == 0 {
				break
			}
			cc := vector.NewChunk(s.condTypes)
			ex := exec.NewExecutor(rc)
			if err := ex.Execute(cc, rightExprFunc(s.op.Conditions), len(s.op.Conditions)); err != nil {
				s.buildErr = fmt.Errorf("join: build phase: %w", err)
				return
			}
			rightData.Append(rc)
			rightChunks.Append(cc)
		}

		for _, cc := range rightChunks.Chunks {
			if vector.RemoveNulls(cc) {
				s.hasNull = true
			}
		}

		s.rightData = rightData
		s.rightChunks = rightChunks
		// Start with the RHS cursor past the end so the first probe call
		// pulls an LHS chunk before dispatching.
		s.rightChunkIdx = len(rightChunks.Chunks)
	})
	return s.buildErr
}

func leftExprFunc(conds []Condition) func(int) exec.Expr {
	return func(i int) exec.Expr { return conds[i].Left }
}

func rightExprFunc(conds []Condition) func(int) exec.Expr {
	return func(i int) exec.Expr { return conds[i].Right }
}

// ProduceChunk pulls the next batch of join output. out.Size()==0 signals
// EOF. Errors propagate unchanged; out is left reset on error (no partial
// chunks are ever returned), per spec.md §7.
func (s *State) ProduceChunk(out *vector.Chunk) error {
	out.Reset()

	if s.op.Opts.cancelled() {
		return ErrCancelled
	}
	if err := s.ensureBuilt(); err != nil {
		return err
	}

	if err := s.produceChunk(out); err != nil {
		return err
	}
	if s.op.Opts.Debug {
		vector.VerifyChunk(out)
		vector.DebugSummary(fmt.Sprintf("join(%s)", s.op.JoinType), out.Size())
	}
	return nil
}

// produceChunk is ProduceChunk's body, split out so the Debug-gated
// verify/summary pair in ProduceChunk covers every return path below.
func (s *State) produceChunk(out *vector.Chunk) error {
	if len(s.rightChunks.Chunks) == 0 {
		return s.produceDegenerate(out)
	}

	for {
		if s.op.Opts.cancelled() {
			out.Reset()
			return ErrCancelled
		}

		if s.rightChunkIdx >= len(s.rightChunks.Chunks) ||
			s.rightTuple >= s.rightChunks.Chunks[s.rightChunkIdx].Size() {
			if s.rightChunkIdx < len(s.rightChunks.Chunks) {
				s.rightChunkIdx++
			}
			if s.rightChunkIdx >= len(s.rightChunks.Chunks) {
				if err := s.pullNextLeftChunk(); err != nil {
					out.Reset()
					return err
				}
				if s.childChunk.Size() == 0 {
					return nil // EOF
				}
				s.rightChunkIdx = 0
			}
			s.leftTuple = 0
			s.rightTuple = 0
		}

		switch s.op.JoinType {
		case Mark:
			if err := s.produceMark(out); err != nil {
				out.Reset()
				return err
			}
			return nil
		case Semi, Anti:
			if err := s.produceSemiAnti(out); err != nil {
				out.Reset()
				return err
			}
			if out.Size() == 0 {
				// No LHS rows qualified from this chunk; pull the next one.
				s.rightChunkIdx = len(s.rightChunks.Chunks)
				continue
			}
			return nil
		case Inner:
			produced, err := s.produceInner(out)
			if err != nil {
				out.Reset()
				return err
			}
			if !produced {
				continue
			}
			return nil
		default:
			return fmt.Errorf("join: %s: %w", s.op.JoinType, ErrNotImplemented)
		}
	}
}

// pullNextLeftChunk pulls and prepares the next LHS chunk: flattens it,
// evaluates the left condition expressions, and (for every type but MARK)
// drops NULL-bearing rows immediately.
func (s *State) pullNextLeftChunk() error {
	if err := s.leftState.ProduceChunk(s.childChunk); err != nil {
		return fmt.Errorf("join: probe phase: %w", err)
	}
	if s.childChunk.Size() == 0 {
		return nil
	}
	vector.Flatten(s.childChunk)

	s.leftJoinCondition.Reset()
	ex := exec.NewExecutor(s.childChunk)
	if err := ex.Execute(s.leftJoinCondition, leftExprFunc(s.op.Conditions), len(s.op.Conditions)); err != nil {
		return fmt.Errorf("join: probe phase: %w", err)
	}
	if s.op.JoinType != Mark {
		// We don't do this for MARK: the tuple is still output, just with
		// a NULL marker (spec.md §4.5 step 1).
		vector.RemoveNulls(s.leftJoinCondition)
	}
	return nil
}

func (s *State) produceInner(out *vector.Chunk) (bool, error) {
	rchunk := s.rightChunks.Chunks[s.rightChunkIdx]
	rdata := s.rightData.Chunks[s.rightChunkIdx]

	m, nextLi, nextRi, err := InnerKernel(s.leftTuple, s.rightTuple, s.leftJoinCondition, rchunk, s.op.Conditions, s.lvec, s.rvec)
	if err != nil {
		return false, err
	}
	s.leftTuple, s.rightTuple = nextLi, nextRi

	if m == 0 {
		s.rightTuple = rchunk.Size() // force advance to next RHS chunk
		return false, nil
	}

	constructInnerResult(out, s.childChunk, rdata, s.lvec[:m], s.rvec[:m])
	return true, nil
}

// constructInnerResult builds out from LHS columns referenced via lvec and
// RHS columns referenced via rvec, each flattened, per spec.md §4.5 step 2.
func constructInnerResult(out *vector.Chunk, left *vector.Chunk, right *vector.Chunk, lvec, rvec []int) {
	n := len(left.Columns)
	for i, col := range left.Columns {
		vector.Reference(out.Columns[i], col)
		out.Columns[i].SetSelection(lvec)
		out.Columns[i].Flatten()
	}
	for i, col := range right.Columns {
		vector.Reference(out.Columns[n+i], col)
		out.Columns[n+i].SetSelection(rvec)
		out.Columns[n+i].Flatten()
	}
	out.SetCardinality(len(lvec))
}

func (s *State) produceMark(out *vector.Chunk) error {
	found := make([]bool, s.leftJoinCondition.Size())
	if err := MarkKernel(s.leftJoinCondition, s.rightChunks.Chunks, s.op.Conditions, found); err != nil {
		return err
	}
	constructMarkResult(s.childChunk, s.leftJoinCondition, out, found, s.hasNull)
	s.rightChunkIdx = len(s.rightChunks.Chunks) // next call pulls a new LHS chunk
	return nil
}

// constructMarkResult builds the mark join's result: every LHS column plus
// a trailing boolean column encoding SQL's three-valued IN/EXISTS
// semantics, per spec.md §4.5 step 2.
func constructMarkResult(left *vector.Chunk, leftCond *vector.Chunk, out *vector.Chunk, found []bool, hasNull bool) {
	n := len(left.Columns)
	for i, col := range left.Columns {
		vector.Reference(out.Columns[i], col)
	}
	mark := out.Columns[n]
	for i := 0; i < left.Size(); i++ {
		switch {
		case found[i]:
			mark.SetValue(i, true)
		case !hasNull && !leftRowHasNull(leftCond, i):
			mark.SetValue(i, false)
		default:
			mark.SetNull(i)
		}
	}
	mark.SetLen(left.Size())
	out.SetCardinality(left.Size())
}

func leftRowHasNull(leftCond *vector.Chunk, row int) bool {
	for _, col := range leftCond.Columns {
		if col.IsNull(row) {
			return true
		}
	}
	return false
}

// produceDegenerate handles the case where the right child produced zero
// chunks at all: INNER/SEMI produce zero rows forever; MARK/ANTI still
// iterate the LHS (spec.md §4.5 "Build phase").
func (s *State) produceDegenerate(out *vector.Chunk) error {
	switch s.op.JoinType {
	case Inner, Semi:
		return nil // EOF: no RHS means no rows will ever qualify
	case Mark, Anti:
		if err := s.pullNextLeftChunk(); err != nil {
			return err
		}
		if s.childChunk.Size() == 0 {
			return nil
		}
		if s.op.JoinType == Mark {
			found := make([]bool, s.leftJoinCondition.Size())
			constructMarkResult(s.childChunk, s.leftJoinCondition, out, found, false)
		} else {
			// ANTI with no RHS rows: every LHS row qualifies.
			vector.ReferenceColumns(out, s.childChunk, len(s.childChunk.Columns))
		}
		return nil
	default:
		return fmt.Errorf("join: %s: %w", s.op.JoinType, ErrNotImplemented)
	}
}
