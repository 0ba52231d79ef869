package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Pagination is the list-envelope metadata returned by paged endpoints.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// PagedEnvelope wraps a page of results plus its pagination metadata.
type PagedEnvelope struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
