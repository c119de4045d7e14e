package sharepoint

import "math"

const (
	bytesPerMB = 1 << 20
	bytesPerGB = 1 << 30
)

// FolderAggregate accumulates statistics for one top-level folder's entire
// subtree. It is owned by a single worker during traversal: counters only
// grow, and the value is emitted exactly once when the traversal completes.
type FolderAggregate struct {
	TopFolder      string
	FolderPath     string
	FileCount      int64
	SubfolderCount int64
	SizeBytes      int64
}

// NewFolderAggregate creates an empty aggregate for a top-level folder. The
// path label equals the folder name since only top-level folders are reported.
func NewFolderAggregate(name string) *FolderAggregate {
	return &FolderAggregate{
		TopFolder:  name,
		FolderPath: name,
	}
}

// AddFile tallies one descendant file
func (a *FolderAggregate) AddFile(size int64) {
	a.FileCount++
	a.SizeBytes += size
}

// AddSubfolder tallies one descendant folder. The top-level folder itself is
// never counted.
func (a *FolderAggregate) AddSubfolder() {
	a.SubfolderCount++
}

// SizeMB returns the total size in mebibytes rounded to 2 decimals
func (a *FolderAggregate) SizeMB() float64 {
	return math.Round(float64(a.SizeBytes)/bytesPerMB*100) / 100
}

// SizeGB returns the total size in gibibytes rounded to 4 decimals
func (a *FolderAggregate) SizeGB() float64 {
	return math.Round(float64(a.SizeBytes)/bytesPerGB*10000) / 10000
}
