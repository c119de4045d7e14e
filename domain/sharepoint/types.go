package sharepoint

import "strings"

// Object type identifiers for permission targets
const (
	ObjectTypeWeb  = "web"
	ObjectTypeList = "list"
	ObjectTypeItem = "item"
)

// Web represents a SharePoint web/subsite
type Web struct {
	ID        string
	URL       string
	Title     string
	Template  string
	HasUnique bool
}

// List represents a SharePoint list or document library
type List struct {
	ID           string
	WebID        string
	Title        string
	URL          string
	BaseTemplate int
	ItemCount    int
	Hidden       bool
	HasUnique    bool
}

// IsEmpty returns true if the list has no items
func (l *List) IsEmpty() bool {
	return l.ItemCount == 0
}

// IsDocumentLibrary returns true if this is a document library (BaseTemplate 101)
func (l *List) IsDocumentLibrary() bool {
	return l.BaseTemplate == 101
}

// TreeEntry is one item returned by a folder-children listing: a file or a
// subfolder. Entries are transient fetch results and are never cached across
// runs.
type TreeEntry struct {
	ID                string // UniqueId GUID
	Name              string
	ServerRelativeURL string
	IsFolder          bool
	Size              int64 // file byte length; zero for folders
}

// Item represents a SharePoint list item, file, or folder
type Item struct {
	GUID      string
	ListID    string
	ID        int
	URL       string
	Name      string
	IsFile    bool
	IsFolder  bool
	HasUnique bool
}

// IsListItem returns true if this is neither a file nor folder (regular list item)
func (i *Item) IsListItem() bool {
	return !i.IsFile && !i.IsFolder
}

// GetDisplayName returns a user-friendly name for the item
func (i *Item) GetDisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.GUID // Fallback to GUID if no name
}

// Principal represents a user or group holding role assignments
type Principal struct {
	ID            int64
	PrincipalType int64
	Title         string
	LoginName     string
	Email         string
}

// MatchesUser reports whether this principal is the given user. SharePoint
// login names are claims-encoded (i|0#.f|membership|user@tenant), so the
// comparison accepts a suffix match on the login name or an exact email
// match, case-insensitively.
func (p *Principal) MatchesUser(user string) bool {
	if user == "" {
		return false
	}
	u := strings.ToLower(user)
	if login := strings.ToLower(p.LoginName); login != "" {
		if login == u || strings.HasSuffix(login, "|"+u) {
			return true
		}
	}
	return strings.EqualFold(p.Email, user)
}

// RoleDefinition defines a permission level (e.g. "Full Control", "Read")
type RoleDefinition struct {
	ID          int64
	Name        string
	Description string
}

// RoleAssignment binds a principal to a role definition on one object
type RoleAssignment struct {
	ObjectType  string // "web", "list", or "item"
	ObjectKey   string // web ID, list ID, or item GUID
	PrincipalID int64
	RoleDefID   int64
	RoleName    string
}

// FileSystemObjectType constants
const (
	FileSystemObjectTypeFile   = 0
	FileSystemObjectTypeFolder = 1
	FileSystemObjectTypeItem   = 2
)
