package report

import (
	"fmt"
)

// ReportParameters represents user-configurable report behavior.
// This is a domain value object that encapsulates business rules for report execution.
type ReportParameters struct {
	// Report scope and behavior
	SkipHidden   bool   // Skip hidden lists
	FolderFilter string // Optional single top-level folder filter (exact, then wildcard)

	// Performance parameters
	Concurrency int // Number of parallel folder workers
	PageSize    int // Page size for folder-children and item requests
	Timeout     int // Overall report timeout in seconds
}

// DefaultParameters returns sensible default report parameters.
func DefaultParameters() *ReportParameters {
	return &ReportParameters{
		SkipHidden:  true,
		Concurrency: 4,   // Matches the recommended worker throttle
		PageSize:    500, // Standard default page size
		Timeout:     1800,
	}
}

// SharePointApiConstraints defines the technical limits imposed by SharePoint APIs.
// These are infrastructure concerns, not user preferences.
type SharePointApiConstraints struct {
	MinPageSize    int // Minimum valid page size (1)
	MaxPageSize    int // SharePoint REST API limit (5000)
	MaxConcurrency int // Ceiling to keep throttling at bay
	MinTimeout     int // Minimum timeout for SharePoint operations (60 seconds)
	MaxTimeout     int // Maximum reasonable timeout (2 hours)
}

// DefaultApiConstraints returns SharePoint API technical limits.
func DefaultApiConstraints() *SharePointApiConstraints {
	return &SharePointApiConstraints{
		MinPageSize:    1,
		MaxPageSize:    5000, // SharePoint REST API limit
		MaxConcurrency: 32,
		MinTimeout:     60,
		MaxTimeout:     7200,
	}
}

// Validate checks the report parameters against SharePoint API constraints.
func (p *ReportParameters) Validate(constraints *SharePointApiConstraints) error {
	if p == nil {
		return fmt.Errorf("report parameters cannot be nil")
	}
	if constraints == nil {
		constraints = DefaultApiConstraints()
	}

	if p.PageSize < constraints.MinPageSize {
		return fmt.Errorf("page_size must be at least %d, got: %d", constraints.MinPageSize, p.PageSize)
	}
	if p.PageSize > constraints.MaxPageSize {
		return fmt.Errorf("page_size cannot exceed %d (SharePoint API limit), got: %d", constraints.MaxPageSize, p.PageSize)
	}

	if p.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got: %d", p.Concurrency)
	}
	if p.Concurrency > constraints.MaxConcurrency {
		return fmt.Errorf("concurrency cannot exceed %d, got: %d", constraints.MaxConcurrency, p.Concurrency)
	}

	if p.Timeout < constraints.MinTimeout {
		return fmt.Errorf("timeout must be at least %d seconds for SharePoint operations, got: %d seconds", constraints.MinTimeout, p.Timeout)
	}
	if p.Timeout > constraints.MaxTimeout {
		return fmt.Errorf("timeout cannot exceed %d seconds, got: %d seconds", constraints.MaxTimeout, p.Timeout)
	}

	return nil
}

// ValidateAndSetDefaults validates parameters and sets defaults for zero values.
func (p *ReportParameters) ValidateAndSetDefaults(constraints *SharePointApiConstraints) error {
	if p == nil {
		return fmt.Errorf("report parameters cannot be nil")
	}
	if constraints == nil {
		constraints = DefaultApiConstraints()
	}

	if p.Concurrency == 0 {
		p.Concurrency = 4
	}
	if p.PageSize == 0 {
		p.PageSize = 500
	}
	if p.Timeout == 0 {
		p.Timeout = 1800
	}

	return p.Validate(constraints)
}

// SetPageSize sets the page size with automatic clamping to valid limits.
func (p *ReportParameters) SetPageSize(pageSize int, constraints *SharePointApiConstraints) {
	if constraints == nil {
		constraints = DefaultApiConstraints()
	}

	if pageSize < constraints.MinPageSize {
		p.PageSize = constraints.MinPageSize
	} else if pageSize > constraints.MaxPageSize {
		p.PageSize = constraints.MaxPageSize
	} else {
		p.PageSize = pageSize
	}
}

// GetEffectivePageSize returns the page size to use, with fallback to default if not set
func (p *ReportParameters) GetEffectivePageSize() int {
	if p.PageSize <= 0 {
		return 500
	}
	return p.PageSize
}

// GetEffectiveConcurrency returns the worker bound to use, with fallback to default if not set
func (p *ReportParameters) GetEffectiveConcurrency() int {
	if p.Concurrency <= 0 {
		return 4
	}
	return p.Concurrency
}
