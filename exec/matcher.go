package exec

// MatchComparison attempts to match filter as comparison(indexExpr,
// constant) using an unordered match: either side of the comparison may be
// the index expression, with the other side a Const. On match it returns
// the comparator (flipped so indexExpr is always logically on the left,
// per spec.md §4.7 step 2) and the constant value.
//
// Grounded on the C++ table_scan.cpp ComparisonExpressionMatcher /
// ExpressionEqualityMatcher / ConstantExpressionMatcher combination, with
// SetMatcher::Policy::UNORDERED — reimplemented here as a direct two-way
// check since the bound expression tree is small and fully concrete.
func MatchComparison(indexExpr Expr, filter Comparison) (op Comparator, constant interface{}, ok bool) {
	if rc, isConst := filter.Right.(Const); isConst && filter.Left.Equal(indexExpr) {
		return filter.Op, rc.Value, true
	}
	if lc, isConst := filter.Left.(Const); isConst && filter.Right.Equal(indexExpr) {
		// constant is on the left: flip so the result reads
		// "indexExpr OP constant"
		return filter.Op.Flip(), lc.Value, true
	}
	return 0, nil, false
}
