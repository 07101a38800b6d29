package dto

// ErrorResponse is the error body for every non-2xx response. Details holds
// per-field validation messages keyed by the JSON field name.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// PaginatedResponse wraps the register listings (risks, strategies, KPIs,
// loss events, reviews). Total counts rows within the caller's scope, not
// the whole table.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

// PaginationParams come from the page/per_page query parameters.
type PaginationParams struct {
	Page    int
	PerPage int
}

// Normalize clamps the parameters to sane bounds: page >= 1, per-page
// defaulting to 20 and capped at 100.
func (p *PaginationParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 20
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
}

func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}
