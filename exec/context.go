package exec

// Context provides zero-overhead annotation points for expression
// evaluation, mirroring the teacher's executor.Context design: a narrow
// interface with a no-op default, so instrumentation never costs anything
// unless a caller opts in.
type Context interface {
	EvaluateBegin(exprCount, rowCount int)
	EvaluateEnd(exprCount, rowCount int, err error)
}

// NoopContext is the zero-cost default Context.
type NoopContext struct{}

func (NoopContext) EvaluateBegin(int, int)      {}
func (NoopContext) EvaluateEnd(int, int, error) {}
