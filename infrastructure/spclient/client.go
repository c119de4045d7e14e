package spclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"spreport/domain/report"
	"spreport/domain/sharepoint"
	"spreport/logging"

	"github.com/koltyakov/gosip"
	"github.com/koltyakov/gosip/api"
)

// SharePointClient interface abstracts SharePoint REST API operations for
// report data collection. Provides high-level methods for retrieving site
// structure, folder trees, and permissions while handling authentication and
// API response parsing.
type SharePointClient interface {
	// Site Structure Operations
	GetSiteWeb(ctx context.Context) (*sharepoint.Web, error)
	GetWebLists(ctx context.Context) ([]*sharepoint.List, error)

	// Folder Tree Operations
	// FetchFolderChildren pages through the children of a folder, invoking
	// onEntry for every file and subfolder in server order. It follows the
	// continuation reference until the collection is exhausted, holding one
	// page at a time. Errors abort the fetch and propagate.
	FetchFolderChildren(ctx context.Context, folderURL string, pageSize int, onEntry func(sharepoint.TreeEntry) error) error

	// Permission Operations
	GetObjectRoleAssignments(ctx context.Context, target PermissionTarget) ([]*sharepoint.RoleAssignment, []*sharepoint.Principal, error)
	CheckUniquePermissions(ctx context.Context, target PermissionTarget) (bool, error)

	// List Item Batch Operations (for permission scanning)
	CreateListItemsQuery(ctx context.Context, listID string, pageSize int) *api.Items
	ConvertItemResponse(itemResp interface{}, listID string) (*sharepoint.Item, error)
}

// PermissionTarget represents a SharePoint object that can have role assignments.
type PermissionTarget struct {
	ObjectType string // SharePoint object type: "web", "list", or "item"
	ObjectID   string // Primary identifier: web ID, list ID, or item GUID
	ListItemID int    // Required for items: SharePoint list item integer ID
}

// SharePoint FileSystemObjectType constants
const (
	SharePointFile   = 0 // File object
	SharePointFolder = 1 // Folder object
)

// SharePoint OData field selectors for consistent API queries
const (
	WebFields    = `Id,Title,Url,WebTemplate`
	ListFields   = `Id,Title,Hidden,ItemCount,BaseTemplate,RootFolder/ServerRelativeUrl`
	ItemFields   = `Id,GUID,FileSystemObjectType,File/ServerRelativeUrl,Folder/ServerRelativeUrl,FileLeafRef,Title`
	FolderFields = `UniqueId,Name,ServerRelativeUrl,ItemCount`
	FileFields   = `UniqueId,Name,ServerRelativeUrl,Length`

	RoleAssignmentFields = `
		RoleAssignments/Member/Id,
		RoleAssignments/Member/Title,
		RoleAssignments/Member/LoginName,
		RoleAssignments/Member/PrincipalType,
		RoleAssignments/Member/Email,
		RoleAssignments/RoleDefinitionBindings/Id,
		RoleAssignments/RoleDefinitionBindings/Name
	`
)

// SharePointClientImpl wraps the Gosip API client to provide SharePoint operations.
type SharePointClientImpl struct {
	gosipAPI      *api.SP                  // Primary Gosip API client for SharePoint operations
	authClient    *gosip.SPClient          // Authentication client for direct HTTP calls
	defaultConfig *api.RequestConfig       // Default request configuration
	cachedWebURL  string                   // Cached web URL for constructing absolute URLs
	logger        *logging.Logger          // Component logger
	parameters    *report.ReportParameters // Report parameters for page sizes, timeouts, etc.
}

// NewSharePointClient creates a new SharePoint client implementation.
// The Gosip API client handles most operations, while the auth client is used
// for direct HTTP calls to endpoints not covered by Gosip (the folder-children
// pager).
func NewSharePointClient(gosipAPI *api.SP, authClient *gosip.SPClient, parameters *report.ReportParameters) SharePointClient {
	if parameters == nil {
		parameters = report.DefaultParameters()
	}

	return &SharePointClientImpl{
		gosipAPI:      gosipAPI,
		authClient:    authClient,
		defaultConfig: &api.RequestConfig{},
		logger:        logging.Default().WithComponent("sharepoint_client"),
		parameters:    parameters,
	}
}

// createRequestConfig creates a RequestConfig with the provided context,
// inheriting default configuration.
func (c *SharePointClientImpl) createRequestConfig(ctx context.Context) *api.RequestConfig {
	config := *c.defaultConfig // Copy default config
	config.Context = ctx       // Override with per-request context
	return &config
}

// GetSiteWeb retrieves web (site) information including basic metadata and
// permission inheritance status. This is typically the first call made to
// establish the site context.
func (c *SharePointClientImpl) GetSiteWeb(ctx context.Context) (*sharepoint.Web, error) {
	sp := c.gosipAPI.Conf(c.createRequestConfig(ctx))
	res, err := sp.Web().Select(WebFields).Get()
	if err != nil {
		return nil, fmt.Errorf("get web: %w", err)
	}

	var webData struct {
		Id          string
		Title       string
		Url         string
		WebTemplate string
	}
	if err := json.Unmarshal(res.Normalized(), &webData); err != nil {
		return nil, fmt.Errorf("decode web: %w", err)
	}

	c.cachedWebURL = webData.Url

	hasUnique, err := c.CheckUniquePermissions(ctx, PermissionTarget{ObjectType: sharepoint.ObjectTypeWeb})
	if err != nil {
		c.logger.Debug("Failed to check web unique assignments", "error", err.Error())
		hasUnique = false
	}

	return &sharepoint.Web{
		ID:        webData.Id,
		URL:       webData.Url,
		Title:     webData.Title,
		Template:  webData.WebTemplate,
		HasUnique: hasUnique,
	}, nil
}

// GetWebLists retrieves all lists for the web, including metadata and hidden
// status. This provides the foundation for library resolution and scanning.
func (c *SharePointClientImpl) GetWebLists(ctx context.Context) ([]*sharepoint.List, error) {
	sp := c.gosipAPI.Conf(c.createRequestConfig(ctx))
	res, err := sp.Web().Lists().Select(ListFields).Expand(`RootFolder`).Get()
	if err != nil {
		return nil, fmt.Errorf("get lists: %w", err)
	}

	var listsData []struct {
		Id           string
		Title        string
		Hidden       bool
		ItemCount    int
		BaseTemplate int
		RootFolder   struct{ ServerRelativeUrl string }
	}
	if err := json.Unmarshal(res.Normalized(), &listsData); err != nil {
		return nil, fmt.Errorf("decode lists: %w", err)
	}

	lists := make([]*sharepoint.List, 0, len(listsData))
	for _, l := range listsData {
		lists = append(lists, &sharepoint.List{
			ID:           l.Id,
			Title:        l.Title,
			URL:          l.RootFolder.ServerRelativeUrl,
			BaseTemplate: l.BaseTemplate,
			ItemCount:    l.ItemCount,
			Hidden:       l.Hidden,
		})
	}

	return lists, nil
}

// FetchFolderChildren pages through a folder's subfolders and files using
// SharePoint's folder API via direct HTTP calls. Subfolders are surfaced
// before files; within each collection, entries arrive in server order. The
// continuation reference returned by the API is followed to exhaustion so at
// most one page is buffered at a time.
func (c *SharePointClientImpl) FetchFolderChildren(ctx context.Context, folderURL string, pageSize int, onEntry func(sharepoint.TreeEntry) error) error {
	if c.authClient == nil {
		return fmt.Errorf("no auth client available for folder listing %s", folderURL)
	}
	if pageSize <= 0 {
		pageSize = c.parameters.GetEffectivePageSize()
	}

	siteURL := strings.TrimRight(c.authClient.AuthCnfg.GetSiteURL(), "/")
	escaped := escapeODataString(folderURL)

	foldersEndpoint := fmt.Sprintf(
		"%s/_api/web/GetFolderByServerRelativeUrl('%s')/Folders?$select=%s&$top=%d",
		siteURL, escaped, FolderFields, pageSize,
	)
	err := c.walkCollection(ctx, foldersEndpoint, func(raw json.RawMessage) error {
		var f folderApiData
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("decode folder entry: %w", err)
		}
		return onEntry(sharepoint.TreeEntry{
			ID:                f.UniqueId,
			Name:              f.Name,
			ServerRelativeURL: f.ServerRelativeUrl,
			IsFolder:          true,
		})
	})
	if err != nil {
		return fmt.Errorf("list subfolders of %s: %w", folderURL, err)
	}

	filesEndpoint := fmt.Sprintf(
		"%s/_api/web/GetFolderByServerRelativeUrl('%s')/Files?$select=%s&$top=%d",
		siteURL, escaped, FileFields, pageSize,
	)
	err = c.walkCollection(ctx, filesEndpoint, func(raw json.RawMessage) error {
		var f fileApiData
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("decode file entry: %w", err)
		}
		return onEntry(sharepoint.TreeEntry{
			ID:                f.UniqueId,
			Name:              f.Name,
			ServerRelativeURL: f.ServerRelativeUrl,
			IsFolder:          false,
			Size:              int64(f.Length),
		})
	})
	if err != nil {
		return fmt.Errorf("list files of %s: %w", folderURL, err)
	}

	return nil
}

// walkCollection follows a paged collection endpoint until no continuation
// reference remains, invoking onRaw for each entry of each page.
func (c *SharePointClientImpl) walkCollection(ctx context.Context, endpoint string, onRaw func(json.RawMessage) error) error {
	httpClient := api.NewHTTPClient(c.authClient)

	for endpoint != "" {
		if ctx.Err() != nil {
			return fmt.Errorf("context canceled during pagination: %w", ctx.Err())
		}

		data, err := httpClient.Get(endpoint, &api.RequestConfig{Context: ctx})
		if err != nil {
			return err
		}

		entries, next, err := decodeCollectionPage(data)
		if err != nil {
			return err
		}

		for _, raw := range entries {
			if err := onRaw(raw); err != nil {
				return err
			}
		}

		endpoint = next
	}

	return nil
}

// CreateListItemsQuery creates a Gosip query object for efficient pagination
// of list items. Returns an *api.Items query that can be used with GetPaged()
// for continuous iteration.
func (c *SharePointClientImpl) CreateListItemsQuery(ctx context.Context, listID string, pageSize int) *api.Items {
	if pageSize <= 0 {
		pageSize = c.parameters.GetEffectivePageSize()
	}

	// Clamp page size to SharePoint API limits
	constraints := report.DefaultApiConstraints()
	if pageSize < constraints.MinPageSize {
		pageSize = constraints.MinPageSize
	} else if pageSize > constraints.MaxPageSize {
		pageSize = constraints.MaxPageSize
	}

	sp := c.gosipAPI.Conf(c.createRequestConfig(ctx))
	return sp.Web().Lists().GetByID(listID).Items().
		Select(ItemFields).
		Expand("File,Folder").
		Top(pageSize)
}

// ConvertItemResponse processes a single SharePoint list item response from
// Gosip pagination, converting api.ItemResp raw bytes into a domain Item.
func (c *SharePointClientImpl) ConvertItemResponse(itemResp interface{}, listID string) (*sharepoint.Item, error) {
	ir, ok := itemResp.(api.ItemResp)
	if !ok {
		return nil, fmt.Errorf("itemResp is not api.ItemResp type, got: %T", itemResp)
	}

	var it ListItemApiResponse
	if err := json.Unmarshal(ir.Normalized(), &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	var (
		isFile   bool
		isFolder bool
		itemURL  string
	)

	switch it.FileSystemObjectType {
	case SharePointFile:
		isFile = true
		if it.File != nil {
			itemURL = joinURL(c.cachedWebURL, it.File.ServerRelativeUrl)
		}
	case SharePointFolder:
		isFolder = true
		if it.Folder != nil {
			itemURL = joinURL(c.cachedWebURL, it.Folder.ServerRelativeUrl)
		}
	}

	name := it.FileLeafRef
	if name == "" && it.Title != "" {
		name = it.Title // Fallback to Title if FileLeafRef is empty
	}

	return &sharepoint.Item{
		GUID:     it.GUID,
		ListID:   listID,
		ID:       it.ID,
		URL:      itemURL,
		Name:     name,
		IsFile:   isFile,
		IsFolder: isFolder,
	}, nil
}

// CheckUniquePermissions checks if a SharePoint object has unique role
// assignments. Items without unique permissions inherit from their parent and
// don't need individual permission queries.
func (c *SharePointClientImpl) CheckUniquePermissions(ctx context.Context, target PermissionTarget) (bool, error) {
	sp := c.gosipAPI.Conf(c.createRequestConfig(ctx))
	switch target.ObjectType {
	case sharepoint.ObjectTypeWeb:
		return sp.Web().Roles().HasUniqueAssignments()
	case sharepoint.ObjectTypeList:
		return sp.Web().Lists().GetByID(target.ObjectID).Roles().HasUniqueAssignments()
	case sharepoint.ObjectTypeItem:
		return sp.Web().Lists().GetByID(target.ObjectID).Items().GetByID(target.ListItemID).Roles().HasUniqueAssignments()
	default:
		return false, fmt.Errorf("unknown target type: %s", target.ObjectType)
	}
}

// GetObjectRoleAssignments retrieves role assignments (permissions) for a
// specific SharePoint object. Returns both the role assignments and the
// principals (users/groups) involved.
func (c *SharePointClientImpl) GetObjectRoleAssignments(ctx context.Context, target PermissionTarget) ([]*sharepoint.RoleAssignment, []*sharepoint.Principal, error) {
	sp := c.gosipAPI.Conf(c.createRequestConfig(ctx))
	var normalizedData []byte

	switch target.ObjectType {
	case sharepoint.ObjectTypeWeb:
		webRes, webErr := sp.Web().
			Select(RoleAssignmentFields).
			Expand(`
				RoleAssignments,
				RoleAssignments/Member,
				RoleAssignments/RoleDefinitionBindings
			`).
			Conf(c.createRequestConfig(ctx)).
			Get()
		if webErr != nil {
			return nil, nil, fmt.Errorf("get web role assignments: %w", webErr)
		}
		normalizedData = webRes.Normalized()

	case sharepoint.ObjectTypeList:
		listRes, listErr := sp.Web().Lists().GetByID(target.ObjectID).
			Select(RoleAssignmentFields).
			Expand(`
				RoleAssignments,
				RoleAssignments/Member,
				RoleAssignments/RoleDefinitionBindings
			`).
			Conf(c.createRequestConfig(ctx)).
			Get()
		if listErr != nil {
			return nil, nil, fmt.Errorf("get list role assignments: %w", listErr)
		}
		normalizedData = listRes.Normalized()

	case sharepoint.ObjectTypeItem:
		itemRes, itemErr := sp.Web().Lists().GetByID(target.ObjectID).Items().GetByID(target.ListItemID).
			Select(RoleAssignmentFields).
			Expand(`
				RoleAssignments,
				RoleAssignments/Member,
				RoleAssignments/RoleDefinitionBindings
			`).
			Conf(c.createRequestConfig(ctx)).
			Get()
		if itemErr != nil {
			return nil, nil, fmt.Errorf("get item role assignments: %w", itemErr)
		}
		normalizedData = itemRes.Normalized()

	default:
		return nil, nil, fmt.Errorf("unknown target type: %s", target.ObjectType)
	}

	return parseRoleAssignments(target.ObjectType, target.ObjectID, normalizedData)
}

// parseRoleAssignments converts SharePoint role assignment JSON to domain
// models. Handles both wrapped and direct JSON response formats from the API.
func parseRoleAssignments(objectType, objectKey string, data []byte) ([]*sharepoint.RoleAssignment, []*sharepoint.Principal, error) {
	type roleAssignmentData struct {
		Member *struct {
			Id            int
			Title         string
			LoginName     string
			PrincipalType int
			Email         string
		}
		RoleDefinitionBindings []*struct {
			Id   int
			Name string
		}
	}
	type assignmentPayload struct {
		RoleAssignments []*roleAssignmentData
	}

	var payload assignmentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		// Fallback: array directly
		var rs []*roleAssignmentData
		if err2 := json.Unmarshal(data, &rs); err2 != nil {
			return nil, nil, fmt.Errorf("decode role assignments: %v / %v", err, err2)
		}
		payload.RoleAssignments = rs
	}

	var assignments []*sharepoint.RoleAssignment
	principalMap := make(map[int64]*sharepoint.Principal)

	for _, ra := range payload.RoleAssignments {
		if ra == nil || ra.Member == nil {
			continue
		}

		principalID := int64(ra.Member.Id)
		if _, exists := principalMap[principalID]; !exists {
			principalMap[principalID] = &sharepoint.Principal{
				ID:            principalID,
				PrincipalType: int64(ra.Member.PrincipalType),
				Title:         strings.TrimSpace(ra.Member.Title),
				LoginName:     ra.Member.LoginName,
				Email:         ra.Member.Email,
			}
		}

		for _, rd := range ra.RoleDefinitionBindings {
			if rd == nil {
				continue
			}

			assignments = append(assignments, &sharepoint.RoleAssignment{
				ObjectType:  objectType,
				ObjectKey:   objectKey,
				PrincipalID: principalID,
				RoleDefID:   int64(rd.Id),
				RoleName:    rd.Name,
			})
		}
	}

	principals := make([]*sharepoint.Principal, 0, len(principalMap))
	for _, principal := range principalMap {
		principals = append(principals, principal)
	}

	return assignments, principals, nil
}
