package reporting

import (
	"strconv"

	"spreport/domain/sharepoint"
)

// FolderStatsColumns is the header row of the folder statistics report.
var FolderStatsColumns = []string{
	"TopFolder", "FolderPath", "FileCount", "SubfolderCount", "SizeBytes", "SizeMB", "SizeGB",
}

// FolderStatsRow formats one completed aggregate as report fields.
func FolderStatsRow(a *sharepoint.FolderAggregate) []string {
	return []string{
		a.TopFolder,
		a.FolderPath,
		strconv.FormatInt(a.FileCount, 10),
		strconv.FormatInt(a.SubfolderCount, 10),
		strconv.FormatInt(a.SizeBytes, 10),
		strconv.FormatFloat(a.SizeMB(), 'f', 2, 64),
		strconv.FormatFloat(a.SizeGB(), 'f', 4, 64),
	}
}

// PermissionColumns is the header row of the user permissions report.
var PermissionColumns = []string{
	"User", "Scope", "Library", "ItemType", "ItemName", "ItemURL", "Roles",
}

// PermissionRow formats one permission assignment as report fields.
func PermissionRow(user, scope, library, itemType, itemName, itemURL, roles string) []string {
	return []string{user, scope, library, itemType, itemName, itemURL, roles}
}
