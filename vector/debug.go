package vector

import (
	"os"

	"github.com/fatih/color"
)

// Debug gates the extra assertions and colored diagnostics that
// produce_chunk callers may enable during development; off by default so
// Verify stays a no-op cost in production builds.
var Debug = false

// VerifyChunk runs Verify when Debug is set, printing a red diagnostic
// before re-panicking so the failure is visible even when output is
// otherwise piped.
func VerifyChunk(c *Chunk) {
	if !Debug {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "chunk invariant violated: %v\n", r)
			panic(r)
		}
	}()
	Verify(c)
}

// DebugSummary prints a one-line colored summary of a produce_chunk call,
// used by cmd/vecjoin when -verbose is set.
func DebugSummary(label string, size int) {
	if !Debug {
		return
	}
	if size == 0 {
		color.New(color.FgYellow).Printf("%s: EOF\n", label)
		return
	}
	color.New(color.FgGreen).Printf("%s: %d rows\n", label, size)
}
