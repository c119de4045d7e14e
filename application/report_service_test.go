package application

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spreport/domain/contracts"
	"spreport/domain/report"
	"spreport/domain/sharepoint"
	"spreport/infrastructure/spclient"
	"spreport/test/helpers"
	"spreport/test/mocks"
)

const testSiteURL = "https://contoso.sharepoint.com/sites/team"

func newTestService(fake *mocks.FakeSharePointClient, runRepo contracts.RunRepository) *ReportService {
	factory := func() (spclient.SharePointClient, error) { return fake, nil }
	return NewReportService(report.DefaultParameters(), fake, factory, runRepo, nil)
}

func TestRunFolderStats_ReportsScenario(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	fake.Lists = []*sharepoint.List{helpers.DocumentLibrary("lib-1", "Documents", 6)}
	helpers.BuildReportsScenario(fake)
	// The library-root Forms folder is configuration, never a report row
	fake.AddFolder(helpers.LibraryRootURL, "Forms")

	var buf bytes.Buffer
	svc := newTestService(fake, nil)

	// Title resolution is case-insensitive
	err := svc.RunFolderStats(context.Background(), testSiteURL, "documents", &buf, "")
	require.NoError(t, err)

	records := helpers.ParseReport(t, buf.String())
	require.Len(t, records, 2)
	assert.Equal(t, []string{"TopFolder", "FolderPath", "FileCount", "SubfolderCount", "SizeBytes", "SizeMB", "SizeGB"}, records[0])
	assert.Equal(t, []string{"Reports", "Reports", "5", "1", "700", "0.00", "0.0000"}, records[1])
}

func TestRunFolderStats_UnknownLibraryListsAlternatives(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	fake.Lists = []*sharepoint.List{
		helpers.DocumentLibrary("lib-1", "Documents", 0),
		helpers.DocumentLibrary("lib-2", "Site Assets", 0),
	}

	var buf bytes.Buffer
	svc := newTestService(fake, nil)

	err := svc.RunFolderStats(context.Background(), testSiteURL, "Docs", &buf, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrLibraryNotFound)
	assert.Contains(t, err.Error(), "Documents")
	assert.Contains(t, err.Error(), "Site Assets")
	assert.Empty(t, buf.String(), "no output on resolution failure")
}

func TestRunFolderStats_NoFoldersWritesHeaderOnly(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	fake.Lists = []*sharepoint.List{helpers.DocumentLibrary("lib-1", "Documents", 0)}
	fake.Tree[helpers.LibraryRootURL] = nil

	var buf bytes.Buffer
	svc := newTestService(fake, nil)

	err := svc.RunFolderStats(context.Background(), testSiteURL, "Documents", &buf, "")
	require.NoError(t, err)

	assert.Equal(t,
		`"TopFolder","FolderPath","FileCount","SubfolderCount","SizeBytes","SizeMB","SizeGB"`+"\n",
		buf.String())
}

func TestRunFolderStats_FolderFilter(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	fake.Lists = []*sharepoint.List{helpers.DocumentLibrary("lib-1", "Documents", 6)}
	helpers.BuildReportsScenario(fake)
	other := fake.AddFolder(helpers.LibraryRootURL, "Projects")
	fake.AddFile(other.ServerRelativeURL, "plan.docx", 10)

	var buf bytes.Buffer
	svc := newTestService(fake, nil)
	svc.parameters.FolderFilter = "reports"

	err := svc.RunFolderStats(context.Background(), testSiteURL, "Documents", &buf, "")
	require.NoError(t, err)

	records := helpers.ParseReport(t, buf.String())
	require.Len(t, records, 2)
	assert.Equal(t, "Reports", records[1][0])
}

func TestRunFolderStats_UnmatchedFilterListsFolders(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	fake.Lists = []*sharepoint.List{helpers.DocumentLibrary("lib-1", "Documents", 6)}
	helpers.BuildReportsScenario(fake)

	var buf bytes.Buffer
	svc := newTestService(fake, nil)
	svc.parameters.FolderFilter = "Nonexistent"

	err := svc.RunFolderStats(context.Background(), testSiteURL, "Documents", &buf, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrFolderNotFound)
	assert.Contains(t, err.Error(), "Reports")
}

func TestRunFolderStats_RecordsRunHistory(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	fake.Lists = []*sharepoint.List{helpers.DocumentLibrary("lib-1", "Documents", 6)}
	helpers.BuildReportsScenario(fake)

	runRepo := &mocks.MockRunRepository{}
	runRepo.On("CreateRun", mock.Anything, mock.AnythingOfType("*contracts.ReportRun")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*contracts.ReportRun).ID = 42
		}).
		Return(nil)
	runRepo.On("CompleteRun", mock.Anything, int64(42), int64(1), int64(0)).Return(nil)

	var buf bytes.Buffer
	svc := newTestService(fake, runRepo)

	err := svc.RunFolderStats(context.Background(), testSiteURL, "Documents", &buf, "/tmp/out.csv")
	require.NoError(t, err)

	runRepo.AssertExpectations(t)
}

func TestRunUserPermissions_WritesHeaderAndRows(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	fake.Web = &sharepoint.Web{ID: "web-1", URL: testSiteURL, HasUnique: true}
	fake.Lists = []*sharepoint.List{helpers.DocumentLibrary("lib-1", "Documents", 0)}
	fake.RoleData["web:"] = mocks.RoleGrant{
		Assignments: []*sharepoint.RoleAssignment{{PrincipalID: 3, RoleName: "Read"}},
		Principals: []*sharepoint.Principal{
			{ID: 3, LoginName: "i:0#.f|membership|jdoe@contoso.com", Email: "jdoe@contoso.com"},
		},
	}

	var buf bytes.Buffer
	svc := newTestService(fake, nil)

	err := svc.RunUserPermissions(context.Background(), testSiteURL, "jdoe@contoso.com", &buf, "")
	require.NoError(t, err)

	records := helpers.ParseReport(t, buf.String())
	require.Len(t, records, 2)
	assert.Equal(t, []string{"User", "Scope", "Library", "ItemType", "ItemName", "ItemURL", "Roles"}, records[0])
	assert.Equal(t, []string{"jdoe@contoso.com", "Site", "", "Site", "", testSiteURL, "Read"}, records[1])
}

func TestListLibraries_FiltersAndSorts(t *testing.T) {
	fake := mocks.NewFakeSharePointClient()
	fake.Lists = []*sharepoint.List{
		helpers.DocumentLibrary("lib-2", "Zebra Files", 0),
		helpers.DocumentLibrary("lib-1", "Documents", 0),
		{ID: "hidden-1", Title: "Style Library", BaseTemplate: 101, Hidden: true},
		{ID: "generic-1", Title: "Announcements", BaseTemplate: 104},
	}

	svc := newTestService(fake, nil)

	libraries, err := svc.ListLibraries(context.Background())
	require.NoError(t, err)

	titles := make([]string, len(libraries))
	for i, l := range libraries {
		titles[i] = l.Title
	}
	assert.Equal(t, []string{"Documents", "Zebra Files"}, titles)
}

func TestResolveLibrary(t *testing.T) {
	libraries := []*sharepoint.List{
		{Title: "Documents"},
		{Title: "Site Assets"},
	}

	found, err := resolveLibrary(libraries, "DOCUMENTS")
	require.NoError(t, err)
	assert.Equal(t, "Documents", found.Title)

	_, err = resolveLibrary(libraries, "Missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrLibraryNotFound)
	assert.Contains(t, err.Error(), "Documents, Site Assets")
}

func TestFilterTopFolders(t *testing.T) {
	folders := []sharepoint.TreeEntry{
		{Name: "Reports"},
		{Name: "Reports 2024"},
		{Name: "Projects"},
	}

	t.Run("exact match wins over wildcard", func(t *testing.T) {
		matched, err := filterTopFolders(folders, "reports")
		require.NoError(t, err)
		require.Len(t, matched, 1)
		assert.Equal(t, "Reports", matched[0].Name)
	})

	t.Run("wildcard matches multiple folders", func(t *testing.T) {
		matched, err := filterTopFolders(folders, "Reports*")
		require.NoError(t, err)
		require.Len(t, matched, 2)
	})

	t.Run("unmatched filter lists available names", func(t *testing.T) {
		_, err := filterTopFolders(folders, "Archive")
		require.Error(t, err)
		assert.ErrorIs(t, err, contracts.ErrFolderNotFound)
		assert.Contains(t, err.Error(), "Reports, Reports 2024, Projects")
	})
}
