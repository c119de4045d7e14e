package collectors

import (
	"sync"
	"time"

	"spreport/logging"
)

// RunMetrics tracks performance data for one report run. Workers update it
// concurrently, so all recording goes through the internal mutex.
type RunMetrics struct {
	mu sync.Mutex

	// Timing metrics
	DiscoveryDuration time.Duration
	ScanDuration      time.Duration
	TotalDuration     time.Duration

	// Throughput metrics
	TopFoldersProcessed int
	FoldersScanned      int64
	FilesScanned        int64
	BytesSeen           int64
	RowsWritten         int64

	// Error metrics
	ErrorsEncountered   int
	WarningsEncountered int
}

// NewRunMetrics creates a new metrics collection instance
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{}
}

// StartTiming begins timing for a specific operation
func (m *RunMetrics) StartTiming() time.Time {
	return time.Now()
}

// RecordDiscovery records top-level folder discovery timing
func (m *RunMetrics) RecordDiscovery(start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DiscoveryDuration = time.Since(start)
}

// RecordScan records subtree scanning timing and the number of completed workers
func (m *RunMetrics) RecordScan(start time.Time, topFolders int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanDuration = time.Since(start)
	m.TopFoldersProcessed = topFolders
}

// RecordFolder tallies one scanned subfolder
func (m *RunMetrics) RecordFolder() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FoldersScanned++
}

// RecordFile tallies one scanned file and its size
func (m *RunMetrics) RecordFile(size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesScanned++
	m.BytesSeen += size
}

// RecordRow increments the written row counter
func (m *RunMetrics) RecordRow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RowsWritten++
}

// RecordError increments the error counter
func (m *RunMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorsEncountered++
}

// RecordWarning increments the warning counter
func (m *RunMetrics) RecordWarning() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarningsEncountered++
}

// CalculateTotalDuration calculates and stores the total duration
func (m *RunMetrics) CalculateTotalDuration(start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalDuration = time.Since(start)
}

// Rows returns the number of rows written so far.
func (m *RunMetrics) Rows() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RowsWritten
}

// Errors returns the number of errors recorded so far.
func (m *RunMetrics) Errors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ErrorsEncountered
}

// LogMetrics outputs run metrics at completion
func (m *RunMetrics) LogMetrics(logger *logging.Logger, siteURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Info("=== Report Run Metrics ===",
		"site_url", siteURL,
		"total_duration_ms", m.TotalDuration.Milliseconds(),
		"total_duration_human", m.TotalDuration.Round(time.Millisecond).String())

	logger.Info("Timing Breakdown",
		"discovery_ms", m.DiscoveryDuration.Milliseconds(),
		"scan_ms", m.ScanDuration.Milliseconds())

	logger.Info("Throughput Metrics",
		"top_folders_processed", m.TopFoldersProcessed,
		"folders_scanned", m.FoldersScanned,
		"files_scanned", m.FilesScanned,
		"bytes_seen", m.BytesSeen,
		"rows_written", m.RowsWritten)

	logger.Info("Operation Counts",
		"errors", m.ErrorsEncountered,
		"warnings", m.WarningsEncountered)
}
