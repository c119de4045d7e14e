package reporting

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreport/domain/sharepoint"
)

func TestCsvWriter_HeaderFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewCsvWriter(&buf)

	require.NoError(t, w.WriteHeader(FolderStatsColumns))
	require.NoError(t, w.Flush())

	assert.Equal(t,
		`"TopFolder","FolderPath","FileCount","SubfolderCount","SizeBytes","SizeMB","SizeGB"`+"\n",
		buf.String())
}

func TestCsvWriter_AllFieldsQuoted(t *testing.T) {
	var buf bytes.Buffer
	w := NewCsvWriter(&buf)

	require.NoError(t, w.WriteRow([]string{"Reports", "Reports", "5", "1", "700", "0.00", "0.0000"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, `"Reports","Reports","5","1","700","0.00","0.0000"`+"\n", buf.String())
}

func TestCsvWriter_EscapesEmbeddedQuotesAndCommas(t *testing.T) {
	var buf bytes.Buffer
	w := NewCsvWriter(&buf)

	require.NoError(t, w.WriteRow([]string{`Quarterly "Final" Reports`, "a,b", ""}))
	require.NoError(t, w.Flush())

	assert.Equal(t, `"Quarterly ""Final"" Reports","a,b",""`+"\n", buf.String())
}

func TestCsvWriter_ConcurrentRowsStayIntact(t *testing.T) {
	var buf bytes.Buffer
	w := NewCsvWriter(&buf)

	const writers = 8
	const rowsPerWriter = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < rowsPerWriter; j++ {
				_ = w.WriteRow([]string{fmt.Sprintf("folder-%d", id), fmt.Sprintf("%d", j)})
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, writers*rowsPerWriter)
	for _, line := range lines {
		// Every line must be one complete, well-formed row
		assert.Regexp(t, `^"folder-\d+","\d+"$`, line)
	}
}

func TestFolderStatsRow_Formatting(t *testing.T) {
	agg := sharepoint.NewFolderAggregate("Reports")
	agg.AddFile(100)
	agg.AddFile(200)
	agg.AddFile(300)
	agg.AddSubfolder()
	agg.AddFile(50)
	agg.AddFile(50)

	assert.Equal(t,
		[]string{"Reports", "Reports", "5", "1", "700", "0.00", "0.0000"},
		FolderStatsRow(agg))
}

func TestFolderStatsRow_LargeSizes(t *testing.T) {
	agg := sharepoint.NewFolderAggregate("Media")
	agg.AddFile(5 * 1024 * 1024 * 1024) // 5 GiB

	row := FolderStatsRow(agg)
	assert.Equal(t, "5368709120", row[4])
	assert.Equal(t, "5120.00", row[5])
	assert.Equal(t, "5.0000", row[6])
}

func TestPermissionRow(t *testing.T) {
	row := PermissionRow("jdoe@contoso.com", "Library", "Documents", "Library", "Documents", "/sites/x/Documents", "Read;Contribute")
	assert.Equal(t, []string{"jdoe@contoso.com", "Library", "Documents", "Library", "Documents", "/sites/x/Documents", "Read;Contribute"}, row)
}
