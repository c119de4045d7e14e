package application

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"spreport/domain/contracts"
	"spreport/domain/report"
	"spreport/domain/sharepoint"
	"spreport/infrastructure/collectors"
	"spreport/infrastructure/spclient"
	"spreport/logging"
	"spreport/reporting"
)

// Document libraries carry a hidden configuration folder at their root that
// is not report-relevant.
const formsFolderName = "Forms"

// ReportService orchestrates report runs: target resolution, traversal
// fan-out, output writing, and run-history persistence.
type ReportService struct {
	parameters *report.ReportParameters
	spClient   spclient.SharePointClient
	newClient  collectors.ClientFactory
	runRepo    contracts.RunRepository // nil disables run history
	progress   report.ProgressReporter
	logger     *logging.Logger
}

// NewReportService creates a report service. runRepo may be nil when run
// history is disabled.
func NewReportService(
	parameters *report.ReportParameters,
	spClient spclient.SharePointClient,
	newClient collectors.ClientFactory,
	runRepo contracts.RunRepository,
	progress report.ProgressReporter,
) *ReportService {
	if parameters == nil {
		parameters = report.DefaultParameters()
	}
	if progress == nil {
		progress = report.NewNoOpProgressReporter()
	}
	return &ReportService{
		parameters: parameters,
		spClient:   spClient,
		newClient:  newClient,
		runRepo:    runRepo,
		progress:   progress,
		logger:     logging.Default().WithComponent("report_service"),
	}
}

// ListLibraries returns the web's document libraries, honoring the hidden
// filter, sorted by title.
func (s *ReportService) ListLibraries(ctx context.Context) ([]*sharepoint.List, error) {
	lists, err := s.spClient.GetWebLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("get lists: %w", err)
	}

	libraries := make([]*sharepoint.List, 0, len(lists))
	for _, l := range lists {
		if !l.IsDocumentLibrary() {
			continue
		}
		if s.parameters.SkipHidden && l.Hidden {
			continue
		}
		libraries = append(libraries, l)
	}
	sort.Slice(libraries, func(i, j int) bool { return libraries[i].Title < libraries[j].Title })
	return libraries, nil
}

// RunFolderStats produces the per-top-level-folder statistics report for one
// document library, writing CSV rows to out as workers complete. siteURL and
// outputPath are recorded in run history only.
func (s *ReportService) RunFolderStats(ctx context.Context, siteURL, libraryTitle string, out io.Writer, outputPath string) error {
	if err := s.parameters.ValidateAndSetDefaults(nil); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}

	run, err := s.startRun(ctx, "folder_stats", siteURL, libraryTitle, outputPath)
	if err != nil {
		return err
	}

	s.progress.ReportProgress(report.StandardStages.LibraryDiscovery, "Resolving document library", 5)
	libraries, err := s.ListLibraries(ctx)
	if err != nil {
		return err
	}
	library, err := resolveLibrary(libraries, libraryTitle)
	if err != nil {
		return err
	}

	s.logger.Report("Resolved document library", siteURL)
	s.progress.ReportProgress(report.StandardStages.FolderDiscovery, "Enumerating top-level folders", 10)

	overallStart := time.Now()
	discoveryStart := time.Now()
	topFolders, err := s.discoverTopFolders(ctx, library)
	if err != nil {
		return err
	}

	if s.parameters.FolderFilter != "" {
		topFolders, err = filterTopFolders(topFolders, s.parameters.FolderFilter)
		if err != nil {
			return err
		}
	}

	// Header first so zero folders still yields a valid report
	writer := reporting.NewCsvWriter(out)
	if err := writer.WriteHeader(reporting.FolderStatsColumns); err != nil {
		return err
	}

	if len(topFolders) == 0 {
		s.logger.Report("No top-level folders found, report contains header only", siteURL)
		s.finishRun(ctx, run, 0, 0, nil)
		return writer.Flush()
	}

	collector := collectors.NewFolderStatsCollector(s.parameters, s.newClient, writer, s.progress)
	metrics := collector.Metrics()
	metrics.RecordDiscovery(discoveryStart)

	failures, scanErr := collector.CollectFolderStats(ctx, topFolders)

	metrics.CalculateTotalDuration(overallStart)
	metrics.LogMetrics(s.logger, siteURL)

	s.finishRun(ctx, run, metrics.Rows(), int64(len(failures)), failures)

	if flushErr := writer.Flush(); flushErr != nil && scanErr == nil {
		scanErr = flushErr
	}
	return scanErr
}

// RunUserPermissions produces the user permission assignment report across
// the web's document libraries.
func (s *ReportService) RunUserPermissions(ctx context.Context, siteURL, user string, out io.Writer, outputPath string) error {
	if err := s.parameters.ValidateAndSetDefaults(nil); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}

	run, err := s.startRun(ctx, "user_permissions", siteURL, user, outputPath)
	if err != nil {
		return err
	}

	writer := reporting.NewCsvWriter(out)
	if err := writer.WriteHeader(reporting.PermissionColumns); err != nil {
		return err
	}

	collector := collectors.NewPermissionReportCollector(s.parameters, s.spClient, writer, s.progress)
	metrics := collector.Metrics()
	overallStart := metrics.StartTiming()

	scanErr := collector.CollectUserPermissions(ctx, user)

	metrics.CalculateTotalDuration(overallStart)
	metrics.LogMetrics(s.logger, siteURL)

	s.finishRun(ctx, run, metrics.Rows(), int64(metrics.Errors()), nil)

	if flushErr := writer.Flush(); flushErr != nil && scanErr == nil {
		scanErr = flushErr
	}
	return scanErr
}

// discoverTopFolders lists folder children of the library root, excluding
// the Forms configuration folder.
func (s *ReportService) discoverTopFolders(ctx context.Context, library *sharepoint.List) ([]sharepoint.TreeEntry, error) {
	var topFolders []sharepoint.TreeEntry
	err := s.spClient.FetchFolderChildren(ctx, library.URL, s.parameters.GetEffectivePageSize(), func(entry sharepoint.TreeEntry) error {
		if entry.IsFolder && entry.Name != formsFolderName {
			topFolders = append(topFolders, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate top-level folders of %s: %w", library.Title, err)
	}
	return topFolders, nil
}

// resolveLibrary finds a document library by title, case-insensitively.
// An unknown title fails fast with the available alternatives.
func resolveLibrary(libraries []*sharepoint.List, title string) (*sharepoint.List, error) {
	for _, l := range libraries {
		if strings.EqualFold(l.Title, title) {
			return l, nil
		}
	}

	titles := make([]string, len(libraries))
	for i, l := range libraries {
		titles[i] = l.Title
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", contracts.ErrLibraryNotFound, title, strings.Join(titles, ", "))
}

// filterTopFolders narrows the folder set to those matching the filter:
// exact name match first, then wildcard-style match (* and ?). An unmatched
// filter fails fast with the available folder names.
func filterTopFolders(folders []sharepoint.TreeEntry, filter string) ([]sharepoint.TreeEntry, error) {
	for _, f := range folders {
		if strings.EqualFold(f.Name, filter) {
			return []sharepoint.TreeEntry{f}, nil
		}
	}

	var matched []sharepoint.TreeEntry
	pattern := strings.ToLower(filter)
	for _, f := range folders {
		if ok, err := path.Match(pattern, strings.ToLower(f.Name)); err != nil {
			return nil, fmt.Errorf("invalid folder filter %q: %w", filter, err)
		} else if ok {
			matched = append(matched, f)
		}
	}
	if len(matched) > 0 {
		return matched, nil
	}

	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", contracts.ErrFolderNotFound, filter, strings.Join(names, ", "))
}

// startRun opens a run-history record when persistence is enabled.
func (s *ReportService) startRun(ctx context.Context, kind, siteURL, target, outputPath string) (*contracts.ReportRun, error) {
	if s.runRepo == nil {
		return nil, nil
	}
	run := &contracts.ReportRun{
		Kind:       kind,
		SiteURL:    siteURL,
		Target:     target,
		OutputPath: outputPath,
	}
	if err := s.runRepo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run record: %w", err)
	}
	return run, nil
}

// finishRun closes the run-history record, recording counters and failures.
// Persistence errors are logged, never fatal: the report itself already
// succeeded or failed on its own terms.
func (s *ReportService) finishRun(ctx context.Context, run *contracts.ReportRun, rows, errorCount int64, failures []collectors.FolderFailure) {
	if s.runRepo == nil || run == nil {
		return
	}

	for _, f := range failures {
		failure := &contracts.RunFailure{RunID: run.ID, Name: f.Folder, Reason: f.Err.Error()}
		if err := s.runRepo.SaveFailure(ctx, failure); err != nil {
			s.logger.Warn("Failed to save run failure", "folder", f.Folder, "error", err.Error())
		}
	}

	if err := s.runRepo.CompleteRun(ctx, run.ID, rows, errorCount); err != nil {
		s.logger.Warn("Failed to complete run record", "run_id", run.ID, "error", err.Error())
	}
}
