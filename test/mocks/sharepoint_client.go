package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/koltyakov/gosip/api"

	"spreport/domain/sharepoint"
	"spreport/infrastructure/spclient"
)

// FakeSharePointClient is an in-memory SharePointClient backed by a synthetic
// folder tree. It is safe for concurrent use so collector tests can exercise
// real worker fan-out against it.
type FakeSharePointClient struct {
	mu sync.Mutex

	Web   *sharepoint.Web
	Lists []*sharepoint.List

	// Tree maps a folder's server-relative URL to its direct children.
	Tree map[string][]sharepoint.TreeEntry

	// FailFolders makes FetchFolderChildren fail for specific folder URLs.
	FailFolders map[string]error

	// UniquePerms and RoleData drive the permission operations, both keyed
	// by "<objectType>:<objectID>".
	UniquePerms map[string]bool
	RoleData    map[string]RoleGrant

	fetchCalls []string
}

// RoleGrant pairs the assignments and principals returned for one object.
type RoleGrant struct {
	Assignments []*sharepoint.RoleAssignment
	Principals  []*sharepoint.Principal
}

func NewFakeSharePointClient() *FakeSharePointClient {
	return &FakeSharePointClient{
		Tree:        map[string][]sharepoint.TreeEntry{},
		FailFolders: map[string]error{},
		UniquePerms: map[string]bool{},
		RoleData:    map[string]RoleGrant{},
	}
}

// AddFolder registers a folder entry under its parent and gives it an empty
// child list of its own.
func (f *FakeSharePointClient) AddFolder(parentURL, name string) sharepoint.TreeEntry {
	entry := sharepoint.TreeEntry{
		ID:                name,
		Name:              name,
		ServerRelativeURL: parentURL + "/" + name,
		IsFolder:          true,
	}
	f.Tree[parentURL] = append(f.Tree[parentURL], entry)
	if _, ok := f.Tree[entry.ServerRelativeURL]; !ok {
		f.Tree[entry.ServerRelativeURL] = nil
	}
	return entry
}

// AddFile registers a file entry under its parent folder.
func (f *FakeSharePointClient) AddFile(parentURL, name string, size int64) sharepoint.TreeEntry {
	entry := sharepoint.TreeEntry{
		ID:                name,
		Name:              name,
		ServerRelativeURL: parentURL + "/" + name,
		Size:              size,
	}
	f.Tree[parentURL] = append(f.Tree[parentURL], entry)
	return entry
}

// FetchCalls returns the folder URLs fetched so far, in call order.
func (f *FakeSharePointClient) FetchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetchCalls...)
}

func (f *FakeSharePointClient) GetSiteWeb(ctx context.Context) (*sharepoint.Web, error) {
	if f.Web == nil {
		return nil, fmt.Errorf("no web configured")
	}
	return f.Web, nil
}

func (f *FakeSharePointClient) GetWebLists(ctx context.Context) ([]*sharepoint.List, error) {
	return f.Lists, nil
}

func (f *FakeSharePointClient) FetchFolderChildren(ctx context.Context, folderURL string, pageSize int, onEntry func(sharepoint.TreeEntry) error) error {
	f.mu.Lock()
	f.fetchCalls = append(f.fetchCalls, folderURL)
	failErr := f.FailFolders[folderURL]
	children, known := f.Tree[folderURL]
	f.mu.Unlock()

	if failErr != nil {
		return failErr
	}
	if !known {
		return fmt.Errorf("folder not found: %s", folderURL)
	}
	for _, child := range children {
		if err := onEntry(child); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeSharePointClient) GetObjectRoleAssignments(ctx context.Context, target spclient.PermissionTarget) ([]*sharepoint.RoleAssignment, []*sharepoint.Principal, error) {
	grant := f.RoleData[target.ObjectType+":"+target.ObjectID]
	return grant.Assignments, grant.Principals, nil
}

func (f *FakeSharePointClient) CheckUniquePermissions(ctx context.Context, target spclient.PermissionTarget) (bool, error) {
	return f.UniquePerms[target.ObjectType+":"+target.ObjectID], nil
}

func (f *FakeSharePointClient) CreateListItemsQuery(ctx context.Context, listID string, pageSize int) *api.Items {
	return nil
}

func (f *FakeSharePointClient) ConvertItemResponse(itemResp interface{}, listID string) (*sharepoint.Item, error) {
	return nil, fmt.Errorf("not supported by fake client")
}

var _ spclient.SharePointClient = (*FakeSharePointClient)(nil)
