package helpers

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"spreport/domain/sharepoint"
	"spreport/test/mocks"
)

// LibraryRootURL is the document library root used by the synthetic trees.
const LibraryRootURL = "/sites/contoso/Shared Documents"

// BuildReportsScenario populates the fake client with the canonical test
// tree: a Reports top-level folder holding three files (100, 200, 300 bytes)
// and an Archive subfolder holding two 50-byte files. It returns the Reports
// folder entry for use as a top-level folder.
func BuildReportsScenario(f *mocks.FakeSharePointClient) sharepoint.TreeEntry {
	reports := f.AddFolder(LibraryRootURL, "Reports")
	f.AddFile(reports.ServerRelativeURL, "q1.xlsx", 100)
	f.AddFile(reports.ServerRelativeURL, "q2.xlsx", 200)
	f.AddFile(reports.ServerRelativeURL, "q3.xlsx", 300)
	archive := f.AddFolder(reports.ServerRelativeURL, "Archive")
	f.AddFile(archive.ServerRelativeURL, "old1.xlsx", 50)
	f.AddFile(archive.ServerRelativeURL, "old2.xlsx", 50)
	return reports
}

// DocumentLibrary returns a visible document library rooted at LibraryRootURL.
func DocumentLibrary(id, title string, itemCount int) *sharepoint.List {
	return &sharepoint.List{
		ID:           id,
		Title:        title,
		URL:          LibraryRootURL,
		BaseTemplate: 101,
		ItemCount:    itemCount,
	}
}

// ParseReport parses CSV report output into records, header included.
func ParseReport(t *testing.T, output string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	require.NoError(t, err, "report output must be valid CSV")
	return records
}
