package exec

import (
	"fmt"

	"github.com/wbrown/vecjoin/vector"
)

// Comparator is one of the six SQL scalar comparison operators a join
// condition or scan filter may use.
type Comparator int

const (
	Eq Comparator = iota
	Neq
	Lt
	Lte
	Gt
	Gte
)

func (c Comparator) String() string {
	switch c {
	case Eq:
		return "="
	case Neq:
		return "<>"
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	default:
		return "?"
	}
}

// Flip returns the comparator with its operands reversed, e.g. Gt.Flip() ==
// Lt (used when a constant appears on the left of a matched comparison).
func (c Comparator) Flip() Comparator {
	switch c {
	case Lt:
		return Gt
	case Lte:
		return Gte
	case Gt:
		return Lt
	case Gte:
		return Lte
	default:
		return c
	}
}

// IsLowerBound reports whether c expresses "value > bound" / "value >=
// bound" semantics, i.e. a low bound on a range.
func (c Comparator) IsLowerBound() bool { return c == Gt || c == Gte }

// IsUpperBound reports whether c expresses "value < bound" / "value <=
// bound" semantics, i.e. a high bound on a range.
func (c Comparator) IsUpperBound() bool { return c == Lt || c == Lte }

// Apply evaluates the comparator against two non-NULL values. Callers must
// check nullness themselves: per spec.md §4.3, a NULL operand makes the
// comparator FALSE, it is never evaluated here with a NULL operand.
func (c Comparator) Apply(a, b interface{}) (bool, error) {
	cmp, err := compareValues(a, b)
	if err != nil {
		return false, err
	}
	switch c {
	case Eq:
		return cmp == 0, nil
	case Neq:
		return cmp != 0, nil
	case Lt:
		return cmp < 0, nil
	case Lte:
		return cmp <= 0, nil
	case Gt:
		return cmp > 0, nil
	case Gte:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("exec: unknown comparator %d", c)
	}
}

// compareValues orders two scalar values of the same underlying type,
// returning <0, 0, >0.
func compareValues(a, b interface{}) (int, error) {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, fmt.Errorf("exec: cannot compare int64 with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, fmt.Errorf("exec: cannot compare float64 with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("exec: cannot compare string with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("exec: cannot compare bool with %T", b)
		}
		if av == bv {
			return 0, nil
		}
		if !av && bv {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("exec: unsupported comparison operand type %T", a)
	}
}

// Comparison is a bound scalar filter: left OP right. Used as a scan filter
// (matched by the index-pushdown rewrite) and as a boolean Expr. Join
// conditions do not use it: they carry a bare Comparator, which the join
// kernels apply directly to already-computed condition vectors.
type Comparison struct {
	Left  Expr
	Op    Comparator
	Right Expr
}

func (c Comparison) Eval(chunk *vector.Chunk, row int) (interface{}, bool) {
	lv, lNull := c.Left.Eval(chunk, row)
	rv, rNull := c.Right.Eval(chunk, row)
	if lNull || rNull {
		return nil, true
	}
	ok, err := c.Op.Apply(lv, rv)
	if err != nil {
		return nil, true
	}
	return ok, false
}

func (c Comparison) Type() vector.TypeTag { return vector.TypeBool }

func (c Comparison) Equal(other Expr) bool {
	o, ok := other.(Comparison)
	return ok && o.Op == c.Op && o.Left.Equal(c.Left) && o.Right.Equal(c.Right)
}
