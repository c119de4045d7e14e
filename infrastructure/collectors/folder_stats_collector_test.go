package collectors_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreport/domain/report"
	"spreport/domain/sharepoint"
	"spreport/infrastructure/collectors"
	"spreport/infrastructure/spclient"
	"spreport/test/helpers"
	"spreport/test/mocks"
)

// captureAppender records rows in memory for assertions.
type captureAppender struct {
	mu   sync.Mutex
	rows [][]string
}

func (c *captureAppender) WriteRow(fields []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, append([]string(nil), fields...))
	return nil
}

func (c *captureAppender) Rows() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

func sharedClientFactory(fake *mocks.FakeSharePointClient) collectors.ClientFactory {
	return func() (spclient.SharePointClient, error) {
		return fake, nil
	}
}

func testParameters(concurrency int) *report.ReportParameters {
	params := report.DefaultParameters()
	params.Concurrency = concurrency
	return params
}

func TestFolderStatsCollector_ReportsScenario(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	reports := helpers.BuildReportsScenario(fake)

	appender := &captureAppender{}
	collector := collectors.NewFolderStatsCollector(testParameters(1), sharedClientFactory(fake), appender, nil)

	failures, err := collector.CollectFolderStats(context.Background(), []sharepoint.TreeEntry{reports})
	require.NoError(t, err)
	assert.Empty(t, failures)

	assert.Equal(t, [][]string{
		{"Reports", "Reports", "5", "1", "700", "0.00", "0.0000"},
	}, appender.Rows())
}

func TestFolderStatsCollector_EmptyTopFolderYieldsZeroRow(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	empty := fake.AddFolder(helpers.LibraryRootURL, "Empty")

	appender := &captureAppender{}
	collector := collectors.NewFolderStatsCollector(testParameters(1), sharedClientFactory(fake), appender, nil)

	failures, err := collector.CollectFolderStats(context.Background(), []sharepoint.TreeEntry{empty})
	require.NoError(t, err)
	assert.Empty(t, failures)

	assert.Equal(t, [][]string{
		{"Empty", "Empty", "0", "0", "0", "0.00", "0.0000"},
	}, appender.Rows())
}

func TestFolderStatsCollector_DeepNesting(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	top := fake.AddFolder(helpers.LibraryRootURL, "Deep")

	parent := top.ServerRelativeURL
	for i := 0; i < 29; i++ {
		fake.AddFile(parent, fmt.Sprintf("file-%d.txt", i), 10)
		child := fake.AddFolder(parent, fmt.Sprintf("level-%d", i))
		parent = child.ServerRelativeURL
	}
	fake.AddFile(parent, "leaf.txt", 10)

	appender := &captureAppender{}
	collector := collectors.NewFolderStatsCollector(testParameters(1), sharedClientFactory(fake), appender, nil)

	failures, err := collector.CollectFolderStats(context.Background(), []sharepoint.TreeEntry{top})
	require.NoError(t, err)
	assert.Empty(t, failures)

	require.Len(t, appender.Rows(), 1)
	row := appender.Rows()[0]
	assert.Equal(t, "30", row[2])  // files
	assert.Equal(t, "29", row[3])  // subfolders
	assert.Equal(t, "300", row[4]) // bytes
}

func TestFolderStatsCollector_SameRowsRegardlessOfConcurrency(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()

	var topFolders []sharepoint.TreeEntry
	for i := 0; i < 12; i++ {
		top := fake.AddFolder(helpers.LibraryRootURL, fmt.Sprintf("Dept-%02d", i))
		for j := 0; j <= i; j++ {
			fake.AddFile(top.ServerRelativeURL, fmt.Sprintf("doc-%d.docx", j), int64(100*(j+1)))
		}
		if i%3 == 0 {
			sub := fake.AddFolder(top.ServerRelativeURL, "Archive")
			fake.AddFile(sub.ServerRelativeURL, "old.docx", 50)
		}
		topFolders = append(topFolders, top)
	}

	run := func(concurrency int) [][]string {
		appender := &captureAppender{}
		collector := collectors.NewFolderStatsCollector(testParameters(concurrency), sharedClientFactory(fake), appender, nil)
		failures, err := collector.CollectFolderStats(context.Background(), topFolders)
		require.NoError(t, err)
		require.Empty(t, failures)
		return appender.Rows()
	}

	serial := run(1)
	parallel := run(8)

	require.Len(t, serial, len(topFolders))
	assert.ElementsMatch(t, serial, parallel)
}

func TestFolderStatsCollector_FailedFolderDoesNotStopSiblings(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	reports := helpers.BuildReportsScenario(fake)
	broken := fake.AddFolder(helpers.LibraryRootURL, "Broken")
	fake.FailFolders[broken.ServerRelativeURL] = fmt.Errorf("503 service unavailable")

	appender := &captureAppender{}
	collector := collectors.NewFolderStatsCollector(testParameters(4), sharedClientFactory(fake), appender, nil)

	failures, err := collector.CollectFolderStats(context.Background(), []sharepoint.TreeEntry{reports, broken})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 folders failed")
	assert.Contains(t, err.Error(), "Broken")

	require.Len(t, failures, 1)
	assert.Equal(t, "Broken", failures[0].Folder)
	assert.ErrorContains(t, failures[0].Err, "503")

	// The healthy sibling still produced its row
	assert.Equal(t, [][]string{
		{"Reports", "Reports", "5", "1", "700", "0.00", "0.0000"},
	}, appender.Rows())
}

func TestFolderStatsCollector_CanceledContextFailsAllFolders(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	reports := helpers.BuildReportsScenario(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	appender := &captureAppender{}
	collector := collectors.NewFolderStatsCollector(testParameters(2), sharedClientFactory(fake), appender, nil)

	failures, err := collector.CollectFolderStats(ctx, []sharepoint.TreeEntry{reports})
	require.Error(t, err)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, context.Canceled)
	assert.Empty(t, appender.Rows())
}

func TestFolderStatsCollector_NilFactory(t *testing.T) {
	collector := collectors.NewFolderStatsCollector(testParameters(1), nil, &captureAppender{}, nil)
	_, err := collector.CollectFolderStats(context.Background(), nil)
	assert.ErrorContains(t, err, "client factory")
}

func TestFolderStatsCollector_MetricsTrackProgress(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	reports := helpers.BuildReportsScenario(fake)

	appender := &captureAppender{}
	collector := collectors.NewFolderStatsCollector(testParameters(1), sharedClientFactory(fake), appender, nil)

	_, err := collector.CollectFolderStats(context.Background(), []sharepoint.TreeEntry{reports})
	require.NoError(t, err)

	metrics := collector.Metrics()
	assert.Equal(t, int64(1), metrics.Rows())
	assert.Equal(t, 0, metrics.Errors())
}
