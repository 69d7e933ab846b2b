package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within int for every allowed limit.
	MaxPage = math.MaxInt/MaxLimit + 1
)

// Params holds page/limit query parameters and the derived skip count.
type Params struct {
	Page  int
	Limit int
	Skip  int
}

// DefaultParams returns page 1 with the default limit.
func DefaultParams() Params {
	return Params{Page: DefaultPage, Limit: DefaultLimit}
}

// FromRequest reads `page` and `limit` from the query string. Values that are
// missing, non-numeric or below 1 fall back to the defaults; limits above
// MaxLimit are clamped.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	return New(atoiOr(q.Get("page"), DefaultPage), atoiOr(q.Get("limit"), DefaultLimit))
}

// New normalizes page and limit and computes Skip. Pages beyond MaxPage are
// clamped to it and simply come back empty.
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Skip: (page - 1) * limit}
}

// TotalPages returns ceil(total/limit), or 0 when there is nothing to page.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	l := int64(limit)
	return int((total + l - 1) / l)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
