package console

import (
	"fmt"
	"io"
	"sync"

	"spreport/domain/report"
)

// ProgressReporter prints report progress to a console stream, one line per
// update. Workers report concurrently, so writes are serialized.
type ProgressReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewProgressReporter creates a console progress reporter writing to out.
func NewProgressReporter(out io.Writer) *ProgressReporter {
	return &ProgressReporter{out: out}
}

func (r *ProgressReporter) ReportProgress(stage, description string, percentage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%3d%%] %s: %s\n", percentage, stage, description)
}

func (r *ProgressReporter) ReportItemProgress(stage, description string, percentage, itemsDone, itemsTotal int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%3d%%] %s: %s (%d/%d)\n", percentage, stage, description, itemsDone, itemsTotal)
}

var _ report.ProgressReporter = (*ProgressReporter)(nil)
