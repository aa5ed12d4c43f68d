package join

// Options configures a join Operator, threaded through the operator
// constructor the way the teacher threads executor.ExecutorOptions through
// HashJoin — a plain struct, no global config or flag parsing.
type Options struct {
	// ChunkCapacity overrides vector.StandardVectorSize for output batch
	// width; 0 means use the default.
	ChunkCapacity int

	// Debug enables verbose diagnostics via vector.DebugSummary.
	Debug bool

	// Cancel, when non-nil, is polled at the start of every ProduceChunk
	// call; a closed channel signals cooperative cancellation.
	Cancel <-chan struct{}
}

func (o Options) capacity() int {
	if o.ChunkCapacity > 0 {
		return o.ChunkCapacity
	}
	return defaultCapacity
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
