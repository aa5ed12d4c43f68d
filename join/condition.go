// Package join implements the nested-loop join operator: a streaming left /
// materialized right join with inner, mark, semi, and anti variants,
// including SQL three-valued-logic treatment of nulls.
package join

import (
	"errors"

	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/vector"
)

// Type is a join variant. This package implements INNER, MARK, SEMI, and
// ANTI; LEFT and SINGLE are deferred per spec.md §9 ("implementers should
// not infer their semantics from this excerpt").
type Type int

const (
	Inner Type = iota
	Left
	Mark
	Semi
	Anti
	Single
)

func (t Type) String() string {
	switch t {
	case Inner:
		return "INNER"
	case Left:
		return "LEFT"
	case Mark:
		return "MARK"
	case Semi:
		return "SEMI"
	case Anti:
		return "ANTI"
	case Single:
		return "SINGLE"
	default:
		return "UNKNOWN"
	}
}

// Condition is one (left expression, right expression, comparator) triple.
// Both expressions are bound and share a return type.
type Condition struct {
	Left       exec.Expr
	Right      exec.Expr
	Comparator exec.Comparator
}

// ErrNotImplemented is returned when the dispatch reaches a join type with
// no kernel wired up — fatal for the query, per spec.md §7.
var ErrNotImplemented = errors.New("join: type not implemented")

// ErrCancelled is returned when a caller-supplied cancellation token was
// observed set on entry to ProduceChunk.
var ErrCancelled = errors.New("join: cancelled")

// conditionTypes returns the shared return type of every condition, in
// order, used to allocate condition chunks.
func conditionTypes(conds []Condition) []vector.TypeTag {
	types := make([]vector.TypeTag, len(conds))
	for i, c := range conds {
		types[i] = c.Left.Type()
		if c.Left.Type() != c.Right.Type() {
			// Both sides of a join condition are bound to share a return
			// type (spec.md §3); mismatches are a binder bug upstream.
			panic("join: condition left/right types disagree")
		}
	}
	return types
}
