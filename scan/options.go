package scan

// Options configures a scan Function, threaded through its constructor the
// same way join.Options is threaded through join.NewOperator.
type Options struct {
	// Debug enables verbose diagnostics via vector.DebugSummary.
	Debug bool

	// Cancel, when non-nil, is polled at the start of every Function call;
	// a closed channel signals cooperative cancellation.
	Cancel <-chan struct{}
}

func (o Options) cancelled() bool {
	if o.Cancel == nil {
		return false
	}
	select {
	case <-o.Cancel:
		return true
	default:
		return false
	}
}
