package collectors

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/koltyakov/gosip/api"

	"spreport/domain/report"
	"spreport/domain/sharepoint"
	"spreport/infrastructure/spclient"
	"spreport/logging"
	"spreport/reporting"
)

// PermissionReportCollector walks a site's document libraries and their items
// looking for unique role assignments held by one target user, appending one
// report row per match.
type PermissionReportCollector struct {
	parameters *report.ReportParameters
	spClient   spclient.SharePointClient
	appender   RowAppender
	progress   report.ProgressReporter
	metrics    *RunMetrics
	logger     *logging.Logger
}

// NewPermissionReportCollector creates a permission report collector.
func NewPermissionReportCollector(
	parameters *report.ReportParameters,
	spClient spclient.SharePointClient,
	appender RowAppender,
	progress report.ProgressReporter,
) *PermissionReportCollector {
	if progress == nil {
		progress = report.NewNoOpProgressReporter()
	}
	return &PermissionReportCollector{
		parameters: parameters,
		spClient:   spClient,
		appender:   appender,
		progress:   progress,
		metrics:    NewRunMetrics(),
		logger:     logging.Default().WithComponent("permission_report_collector"),
	}
}

// Metrics exposes the run metrics for logging and persistence.
func (pc *PermissionReportCollector) Metrics() *RunMetrics {
	return pc.metrics
}

// CollectUserPermissions scans the web, every visible document library, and
// every item with unique assignments for permissions granted to the target
// user. Failures on a single library or item are logged and skipped so the
// rest of the walk continues.
func (pc *PermissionReportCollector) CollectUserPermissions(ctx context.Context, user string) error {
	if user == "" {
		return fmt.Errorf("target user cannot be empty")
	}

	overallStart := pc.metrics.StartTiming()
	defer pc.metrics.CalculateTotalDuration(overallStart)

	web, err := pc.spClient.GetSiteWeb(ctx)
	if err != nil {
		return fmt.Errorf("get web: %w", err)
	}

	pc.progress.ReportProgress(report.StandardStages.PermissionScan, "Checking site permissions", 5)
	if web.HasUnique {
		if err := pc.reportObjectRoles(ctx, user, spclient.PermissionTarget{ObjectType: sharepoint.ObjectTypeWeb}, "Site", "", "", web.URL); err != nil {
			pc.metrics.RecordWarning()
			pc.logger.Warn("Failed to collect web role assignments", "error", err.Error())
		}
	}

	lists, err := pc.spClient.GetWebLists(ctx)
	if err != nil {
		return fmt.Errorf("get lists: %w", err)
	}

	libraries := make([]*sharepoint.List, 0, len(lists))
	for _, list := range lists {
		if !list.IsDocumentLibrary() {
			continue
		}
		if pc.parameters.SkipHidden && list.Hidden {
			pc.logger.Debug("Skipping hidden library", "library", list.Title)
			continue
		}
		libraries = append(libraries, list)
	}

	pc.logger.Info("Scanning document libraries for user permissions",
		"user", user,
		"libraries", len(libraries))

	for i, library := range libraries {
		if ctx.Err() != nil {
			return fmt.Errorf("context canceled during library scan: %w", ctx.Err())
		}

		percentage := 10 + (i+1)*85/len(libraries)
		pc.progress.ReportItemProgress(report.StandardStages.PermissionScan,
			fmt.Sprintf("Scanning library: %s", library.Title),
			percentage, i+1, len(libraries))

		if err := pc.scanLibrary(ctx, user, library); err != nil {
			pc.metrics.RecordError()
			pc.logger.Warn("Failed to scan library",
				"library", library.Title,
				"error", err.Error())
			continue
		}
	}

	pc.progress.ReportProgress(report.StandardStages.Finalization, "Permission scan complete", 100)
	return nil
}

// scanLibrary reports the library's own unique assignments, then pages
// through its items and reports items carrying unique assignments for the user.
func (pc *PermissionReportCollector) scanLibrary(ctx context.Context, user string, library *sharepoint.List) error {
	hasUnique, err := pc.spClient.CheckUniquePermissions(ctx, spclient.PermissionTarget{
		ObjectType: sharepoint.ObjectTypeList,
		ObjectID:   library.ID,
	})
	if err != nil {
		return fmt.Errorf("check library unique assignments: %w", err)
	}

	if hasUnique {
		target := spclient.PermissionTarget{ObjectType: sharepoint.ObjectTypeList, ObjectID: library.ID}
		if err := pc.reportObjectRoles(ctx, user, target, "Library", library.Title, library.Title, library.URL); err != nil {
			pc.metrics.RecordWarning()
			pc.logger.Warn("Failed to collect library role assignments", "library", library.Title, "error", err.Error())
		}
	}

	if library.IsEmpty() {
		return nil
	}

	itemsQuery := pc.spClient.CreateListItemsQuery(ctx, library.ID, pc.parameters.GetEffectivePageSize())
	processed := 0

	err = pc.walkListItems(ctx, itemsQuery, func(itemResp api.ItemResp) error {
		item, err := pc.spClient.ConvertItemResponse(itemResp, library.ID)
		if err != nil {
			pc.metrics.RecordWarning()
			pc.logger.Warn("Failed to process item response", "library", library.Title, "error", err.Error())
			return nil // Continue processing other items
		}

		processed++
		if processed%500 == 0 {
			pc.logger.Debug("Item scan progress", "library", library.Title, "items_processed", processed)
		}

		hasUnique, err := pc.spClient.CheckUniquePermissions(ctx, spclient.PermissionTarget{
			ObjectType: sharepoint.ObjectTypeItem,
			ObjectID:   library.ID,
			ListItemID: item.ID,
		})
		if err != nil {
			pc.metrics.RecordWarning()
			pc.logger.Warn("Failed to check item unique assignments", "item", item.GetDisplayName(), "error", err.Error())
			return nil
		}
		if !hasUnique {
			return nil
		}

		target := spclient.PermissionTarget{
			ObjectType: sharepoint.ObjectTypeItem,
			ObjectID:   library.ID,
			ListItemID: item.ID,
		}
		itemType := "Item"
		switch {
		case item.IsFile:
			itemType = "File"
		case item.IsFolder:
			itemType = "Folder"
		}
		if err := pc.reportObjectRoles(ctx, user, target, itemType, library.Title, item.GetDisplayName(), item.URL); err != nil {
			pc.metrics.RecordWarning()
			pc.logger.Warn("Failed to collect item role assignments", "item", item.GetDisplayName(), "error", err.Error())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk items of library %s: %w", library.Title, err)
	}

	pc.logger.Info("Completed library scan", "library", library.Title, "items_processed", processed)
	return nil
}

// reportObjectRoles fetches one object's role assignments and appends a row
// if any of them belong to the target user.
func (pc *PermissionReportCollector) reportObjectRoles(ctx context.Context, user string, target spclient.PermissionTarget, itemType, library, itemName, itemURL string) error {
	assignments, principals, err := pc.spClient.GetObjectRoleAssignments(ctx, target)
	if err != nil {
		return fmt.Errorf("get role assignments: %w", err)
	}

	roles := MatchUserRoles(assignments, principals, user)
	if len(roles) == 0 {
		return nil
	}

	scope := itemType
	if itemType == "File" || itemType == "Folder" || itemType == "Item" {
		scope = "Item"
	}

	row := reporting.PermissionRow(user, scope, library, itemType, itemName, itemURL, strings.Join(roles, ";"))
	if err := pc.appender.WriteRow(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	pc.metrics.RecordRow()
	return nil
}

// walkListItems iterates through all items in a SharePoint list using Gosip's
// native pagination, calling onItem for each individual item found.
func (pc *PermissionReportCollector) walkListItems(ctx context.Context, items *api.Items, onItem func(api.ItemResp) error) error {
	if items == nil {
		return fmt.Errorf("items query cannot be nil")
	}

	page, err := items.GetPaged()
	if err != nil {
		return err
	}
	if page == nil { // empty list
		return nil
	}

	for p := page; ; {
		if ctx.Err() != nil {
			return fmt.Errorf("context canceled during pagination: %w", ctx.Err())
		}

		if p.Items == nil {
			pc.logger.Warn("Page has nil Items collection, skipping")
			break
		}

		for _, ir := range p.Items.Data() { // ir: api.ItemResp
			if ctx.Err() != nil {
				return fmt.Errorf("context canceled during item processing: %w", ctx.Err())
			}
			if err := onItem(ir); err != nil {
				return err
			}
		}

		if !p.HasNextPage() {
			return nil
		}

		p, err = p.GetNextPage()
		if err != nil {
			return err
		}
	}

	return nil
}

// MatchUserRoles resolves the role names granted to the target user within a
// set of assignments. Role names are deduplicated and sorted for stable output.
func MatchUserRoles(assignments []*sharepoint.RoleAssignment, principals []*sharepoint.Principal, user string) []string {
	matched := make(map[int64]bool, len(principals))
	for _, p := range principals {
		if p.MatchesUser(user) {
			matched[p.ID] = true
		}
	}
	if len(matched) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var roles []string
	for _, a := range assignments {
		if !matched[a.PrincipalID] || a.RoleName == "" || seen[a.RoleName] {
			continue
		}
		seen[a.RoleName] = true
		roles = append(roles, a.RoleName)
	}
	sort.Strings(roles)
	return roles
}
