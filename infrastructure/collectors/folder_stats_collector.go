package collectors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"spreport/domain/report"
	"spreport/domain/sharepoint"
	"spreport/infrastructure/spclient"
	"spreport/logging"
	"spreport/reporting"
)

// RowAppender is the output sink for completed report rows. Appends must be
// atomic at row granularity since workers call it concurrently.
type RowAppender interface {
	WriteRow(fields []string) error
}

// ClientFactory builds a fresh SharePoint client. Each worker calls it once
// at task start so every worker owns its connection state for the lifetime of
// its folder's traversal.
type ClientFactory func() (spclient.SharePointClient, error)

// FolderFailure records one top-level folder whose aggregation did not complete.
type FolderFailure struct {
	Folder string
	Err    error
}

// FolderStatsCollector aggregates file count, subfolder count, and total byte
// size for each top-level folder of a document library, fanning out one
// worker per folder with a bounded concurrency limit.
type FolderStatsCollector struct {
	parameters *report.ReportParameters
	newClient  ClientFactory
	appender   RowAppender
	progress   report.ProgressReporter
	metrics    *RunMetrics
	logger     *logging.Logger
}

// NewFolderStatsCollector creates a folder statistics collector.
func NewFolderStatsCollector(
	parameters *report.ReportParameters,
	newClient ClientFactory,
	appender RowAppender,
	progress report.ProgressReporter,
) *FolderStatsCollector {
	if progress == nil {
		progress = report.NewNoOpProgressReporter()
	}
	return &FolderStatsCollector{
		parameters: parameters,
		newClient:  newClient,
		appender:   appender,
		progress:   progress,
		metrics:    NewRunMetrics(),
		logger:     logging.Default().WithComponent("folder_stats_collector"),
	}
}

// Metrics exposes the run metrics for logging and persistence.
func (c *FolderStatsCollector) Metrics() *RunMetrics {
	return c.metrics
}

// CollectFolderStats runs one aggregation task per top-level folder with at
// most Concurrency workers in flight, appending each folder's row to the
// output as its traversal completes. A failing folder does not stop its
// siblings: failures are collected and reported together once all workers
// have finished. The returned failures list pairs each failed folder name
// with its cause.
func (c *FolderStatsCollector) CollectFolderStats(ctx context.Context, topFolders []sharepoint.TreeEntry) ([]FolderFailure, error) {
	if c.newClient == nil {
		return nil, fmt.Errorf("client factory cannot be nil")
	}
	if c.appender == nil {
		return nil, fmt.Errorf("row appender cannot be nil")
	}

	scanStart := c.metrics.StartTiming()
	defer c.metrics.RecordScan(scanStart, len(topFolders))

	concurrency := c.parameters.GetEffectiveConcurrency()
	c.logger.Info("Starting folder statistics scan",
		"top_folders", len(topFolders),
		"concurrency", concurrency,
		"page_size", c.parameters.GetEffectivePageSize())

	var (
		mu       sync.Mutex
		failures []FolderFailure
		done     int
	)

	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, top := range topFolders {
		top := top
		g.Go(func() error {
			agg, err := c.aggregateFolder(ctx, top)
			if err != nil {
				c.metrics.RecordError()
				c.logger.Error("Folder aggregation failed",
					"folder", top.Name,
					"error", err.Error())
				mu.Lock()
				failures = append(failures, FolderFailure{Folder: top.Name, Err: err})
				mu.Unlock()
				return nil // isolate: siblings keep running
			}

			// Append the row as soon as this folder completes, not batched
			if err := c.appender.WriteRow(reporting.FolderStatsRow(agg)); err != nil {
				c.metrics.RecordError()
				mu.Lock()
				failures = append(failures, FolderFailure{Folder: top.Name, Err: fmt.Errorf("write row: %w", err)})
				mu.Unlock()
				return nil
			}
			c.metrics.RecordRow()

			mu.Lock()
			done++
			current := done
			mu.Unlock()

			percentage := current * 100 / len(topFolders)
			c.progress.ReportItemProgress(report.StandardStages.FolderScan,
				fmt.Sprintf("Completed folder %s (%d files, %d subfolders)", top.Name, agg.FileCount, agg.SubfolderCount),
				percentage, current, len(topFolders))
			return nil
		})
	}

	// Workers never return errors; failures are collected above
	_ = g.Wait()

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Folder < failures[j].Folder })
		names := make([]string, len(failures))
		for i, f := range failures {
			names[i] = f.Folder
		}
		return failures, fmt.Errorf("%d of %d folders failed: %s", len(failures), len(topFolders), strings.Join(names, ", "))
	}

	return nil, nil
}

// aggregateFolder performs the iterative subtree traversal for one top-level
// folder, accumulating counts and bytes into a fresh aggregate. The work set
// is an explicit LIFO stack of folder entries so depth never hits the call
// stack; each folder is fetched and expanded exactly once, which guarantees
// termination for any finite tree. Sibling order does not matter because the
// aggregate is a commutative sum.
func (c *FolderStatsCollector) aggregateFolder(ctx context.Context, top sharepoint.TreeEntry) (*sharepoint.FolderAggregate, error) {
	client, err := c.newClient()
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	agg := sharepoint.NewFolderAggregate(top.Name)
	pageSize := c.parameters.GetEffectivePageSize()

	stack := []sharepoint.TreeEntry{top}
	for len(stack) > 0 {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("context canceled during traversal of %s: %w", top.Name, ctx.Err())
		}

		folder := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// The top folder itself is never counted
		if folder.ServerRelativeURL != top.ServerRelativeURL {
			agg.AddSubfolder()
			c.metrics.RecordFolder()
		}

		err := client.FetchFolderChildren(ctx, folder.ServerRelativeURL, pageSize, func(child sharepoint.TreeEntry) error {
			if child.IsFolder {
				stack = append(stack, child)
				return nil
			}
			agg.AddFile(child.Size)
			c.metrics.RecordFile(child.Size)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fetch children of %s: %w", folder.ServerRelativeURL, err)
		}
	}

	return agg, nil
}
