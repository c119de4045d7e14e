package reporting

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// CsvWriter appends CSV rows to an output sink. Every field is double-quoted
// with embedded quotes doubled, matching the report format consumers expect.
// WriteRow is safe to call concurrently: each row is a single atomic append,
// so rows from different workers may interleave but never corrupt each other.
type CsvWriter struct {
	mu sync.Mutex
	bw *bufio.Writer
}

// NewCsvWriter wraps an output sink in a CSV row writer.
func NewCsvWriter(w io.Writer) *CsvWriter {
	return &CsvWriter{bw: bufio.NewWriter(w)}
}

// WriteHeader writes the header row. Call once, before any data rows.
func (w *CsvWriter) WriteHeader(columns []string) error {
	return w.WriteRow(columns)
}

// WriteRow appends one CSV-formatted line.
func (w *CsvWriter) WriteRow(fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteField(f)
	}
	line := strings.Join(quoted, ",") + "\n"

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.bw.WriteString(line); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	// Flush per row so completed rows survive a later worker failure
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("flush csv row: %w", err)
	}
	return nil
}

// Flush forces any buffered output to the sink.
func (w *CsvWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bw.Flush()
}

// quoteField double-quotes a field, doubling embedded quotes.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
