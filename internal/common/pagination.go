package common

import (
	"net/http"
	"strconv"
)

// Pagination is echoed back on paginated list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination reads the page and limit query parameters. Values that are
// absent, non-numeric, or not positive fall back to page 1 and defaultPerPage;
// callers apply their own upper bounds.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	q := r.URL.Query()
	page = positiveOr(q.Get("page"), 1)
	perPage = positiveOr(q.Get("limit"), defaultPerPage)
	return page, perPage
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
