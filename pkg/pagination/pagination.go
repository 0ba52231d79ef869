package pagination

import "github.com/libreria-dev/libreria-backend/pkg/types"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page/limit pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps the requested page to 1 or above.
func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// Normalize applies both clamps and returns the sanitized params.
func (p Params) Normalize() Params {
	return Params{
		Page:  NormalizePage(p.Page),
		Limit: NormalizeLimit(p.Limit),
	}
}

// Offset converts the normalized params into a SQL offset.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Envelope builds the response metadata for a page of totalItems rows.
func (p Params) Envelope(totalItems int64) types.Pagination {
	n := p.Normalize()
	totalPages := int(totalItems) / n.Limit
	if int(totalItems)%n.Limit != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	return types.Pagination{
		CurrentPage:  n.Page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: n.Limit,
	}
}
