// Package scan implements the table-scan table function: operator-state
// initialization, per-chunk production, parallel task seeding, cardinality
// estimation, and the index-pushdown filter rewrite (pushdown.go).
package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/wbrown/vecjoin/catalog"
	"github.com/wbrown/vecjoin/exec"
	"github.com/wbrown/vecjoin/txn"
	"github.com/wbrown/vecjoin/vector"
)

// ErrCancelled is returned when a caller-supplied cancellation token was
// observed set on entry to Function.
var ErrCancelled = errors.New("scan: cancelled")

// BindData is the table function's per-scan binding: the target table, the
// requested projection and filters, and — once the pushdown rewrite has
// run — the precomputed index-scan result.
type BindData struct {
	Table   catalog.DataTable
	Columns []int
	Filters []exec.Comparison

	// IsIndexScan and ResultIDs are set by RewriteIndexPushdown; once set,
	// Init/Function switch to the index-scan variant and FilterPushdown is
	// disabled for this bind data.
	IsIndexScan bool
	ResultIDs   []int64
}

// TaskInfo wraps one parallel partition's scan state, delivered to the
// caller's callback by ParallelTasks and adopted by Init on the worker side.
type TaskInfo struct {
	State catalog.ScanState
}

// Function is the seq_scan table function. Stateless; one instance can
// serve any number of concurrent scans via independent OperatorStates.
type Function struct {
	Opts Options
}

// NewFunction constructs a seq_scan table function.
func NewFunction(opts Options) *Function { return &Function{Opts: opts} }

// ProjectionPushdown and FilterPushdown report the function's capability
// flags, per spec.md §4.6.
func (f *Function) ProjectionPushdown() bool { return true }
func (f *Function) FilterPushdown(bind *BindData) bool {
	return !bind.IsIndexScan
}

// OperatorState is the scan's per-execution state.
type OperatorState struct {
	bind      *BindData
	tx        txn.Txn
	scanState catalog.ScanState

	isIndexScan  bool
	indexFetched bool
}

// Init allocates operator state per spec.md §4.6's "Operator-state init":
// a parallel task's scan_state is adopted verbatim; otherwise a fresh
// scan_state is requested from storage, unless the bind data has already
// been rewritten into an index scan (in which case no scan_state is
// needed — Function calls Fetch directly).
func (f *Function) Init(tx txn.Txn, bind *BindData, task *TaskInfo) (*OperatorState, error) {
	st := &OperatorState{bind: bind, tx: tx, isIndexScan: bind.IsIndexScan}
	if bind.IsIndexScan {
		return st, nil
	}
	if task != nil {
		st.scanState = task.State
		return st, nil
	}
	scanState, err := bind.Table.InitializeScan(tx, bind.Columns, bind.Filters)
	if err != nil {
		return nil, fmt.Errorf("scan: init: %w", err)
	}
	st.scanState = scanState
	return st, nil
}

// Function produces the next chunk; out.Size()==0 signals EOF.
func (f *Function) Function(out *vector.Chunk, state *OperatorState) error {
	out.Reset()
	if f.Opts.cancelled() {
		return ErrCancelled
	}

	if err := f.function(out, state); err != nil {
		return err
	}
	if f.Opts.Debug {
		vector.VerifyChunk(out)
		vector.DebugSummary(fmt.Sprintf("scan(%s)", state.bind.Table.Name()), out.Size())
	}
	return nil
}

// function is Function's body, split out so the Debug-gated verify/summary
// pair in Function covers both the index-scan and sequential-scan paths.
func (f *Function) function(out *vector.Chunk, state *OperatorState) error {
	if state.isIndexScan {
		if state.indexFetched {
			return nil // EOF: the index-scan variant fetches exactly once
		}
		if err := state.bind.Table.Fetch(state.tx, out, state.bind.Columns, state.bind.ResultIDs, nil); err != nil {
			return fmt.Errorf("scan: index fetch: %w", err)
		}
		state.indexFetched = true
		return nil
	}

	if err := state.bind.Table.Scan(state.tx, out, state.scanState, state.bind.Columns, state.bind.Filters); err != nil {
		return fmt.Errorf("scan: function: %w", err)
	}
	return nil
}

// ParallelTasks partitions the table into scan tasks and delivers one
// TaskInfo per partition to emit. The caller is responsible for dispatching
// each task to a worker and calling Init/Function with it.
func (f *Function) ParallelTasks(ctx context.Context, bind *BindData, emit func(*TaskInfo)) error {
	if bind.IsIndexScan {
		// The index-scan variant's single Fetch call is cheap and
		// inherently sequential; no partitioning to offer.
		emit(&TaskInfo{})
		return nil
	}
	return bind.Table.InitializeParallelScan(ctx, bind.Columns, bind.Filters, func(st catalog.ScanState) {
		emit(&TaskInfo{State: st})
	})
}

// Dependency contributes the table's catalog entry to the set of objects
// that must remain live for the query's duration.
func (f *Function) Dependency(entries map[string]struct{}, bind *BindData) {
	entries[bind.Table.Name()] = struct{}{}
}

// Cardinality returns the table's estimated row count.
func (f *Function) Cardinality(bind *BindData) int64 {
	return bind.Table.RowCount()
}

// ToString renders the scan's string form, per spec.md §4.6.
func (f *Function) ToString(bind *BindData) string {
	return fmt.Sprintf("SEQ_SCAN(%s)", bind.Table.Name())
}
