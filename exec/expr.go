// Package exec provides the bound-expression executor and comparison
// matcher consumed by the join and scan operators. The join/scan operators
// themselves receive already-bound expression trees (per spec.md's scope);
// this package supplies a minimal, concrete tree sufficient to exercise
// them end-to-end.
package exec

import (
	"fmt"

	"github.com/wbrown/vecjoin/vector"
)

// Expr is a bound, side-specific expression evaluated over one row of an
// input chunk.
type Expr interface {
	// Eval returns the expression's value at the given logical row, and
	// whether that value is SQL NULL.
	Eval(chunk *vector.Chunk, row int) (value interface{}, isNull bool)
	// Type is the expression's declared return type.
	Type() vector.TypeTag
	// Equal reports structural equality, used by the index-pushdown
	// rewrite to recognize "this filter targets the same expression the
	// index is built on".
	Equal(other Expr) bool
}

// ColumnRef references a column of the input chunk by position.
type ColumnRef struct {
	Index int
	T     vector.TypeTag
}

func (c ColumnRef) Eval(chunk *vector.Chunk, row int) (interface{}, bool) {
	col := chunk.Columns[c.Index]
	if col.IsNull(row) {
		return nil, true
	}
	return col.Get(row), false
}

func (c ColumnRef) Type() vector.TypeTag { return c.T }

func (c ColumnRef) Equal(other Expr) bool {
	o, ok := other.(ColumnRef)
	return ok && o.Index == c.Index
}

func (c ColumnRef) String() string { return fmt.Sprintf("#%d", c.Index) }

// Const is a bound constant value.
type Const struct {
	Value interface{}
	T     vector.TypeTag
}

func (c Const) Eval(chunk *vector.Chunk, row int) (interface{}, bool) {
	return c.Value, c.Value == nil
}

func (c Const) Type() vector.TypeTag { return c.T }

func (c Const) Equal(other Expr) bool {
	o, ok := other.(Const)
	return ok && o.Value == c.Value
}

func (c Const) String() string { return fmt.Sprintf("%v", c.Value) }

// Executor evaluates bound expressions over a fixed input chunk, writing
// results into an output chunk. Deterministic; never mutates the input.
type Executor struct {
	Input *vector.Chunk
	Ctx   Context
}

// NewExecutor constructs an Executor over the given input chunk.
func NewExecutor(input *vector.Chunk) *Executor {
	return &Executor{Input: input, Ctx: NoopContext{}}
}

// Execute evaluates n expressions — the i-th obtained via f(i) — writing
// results into out.Columns[i] for every row of the input chunk. out's
// column count must be at least n; Execute sets out's cardinality to the
// input's row count.
func (e *Executor) Execute(out *vector.Chunk, f func(i int) Expr, n int) error {
	size := e.Input.Size()
	e.Ctx.EvaluateBegin(n, size)
	for i := 0; i < n; i++ {
		expr := f(i)
		col := out.Columns[i]
		for row := 0; row < size; row++ {
			val, isNull := expr.Eval(e.Input, row)
			if isNull {
				col.SetNull(row)
			} else {
				if !typeMatches(col.Type, val) {
					return fmt.Errorf("exec: expression %v produced %T, expected %s", expr, val, col.Type)
				}
				col.SetValue(row, val)
			}
		}
		col.SetLen(size)
	}
	out.SetCardinality(size)
	e.Ctx.EvaluateEnd(n, size, nil)
	return nil
}

func typeMatches(t vector.TypeTag, v interface{}) bool {
	switch t {
	case vector.TypeInt64:
		_, ok := v.(int64)
		return ok
	case vector.TypeFloat64:
		_, ok := v.(float64)
		return ok
	case vector.TypeString:
		_, ok := v.(string)
		return ok
	case vector.TypeBool:
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}
