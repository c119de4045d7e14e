package contracts

import "errors"

// Common errors for domain contracts
var (
	// ErrLibraryNotFound occurs when the requested document library does not exist in the web
	ErrLibraryNotFound = errors.New("document library not found")

	// ErrFolderNotFound occurs when the requested top-level folder does not exist in the library
	ErrFolderNotFound = errors.New("top-level folder not found")
)
