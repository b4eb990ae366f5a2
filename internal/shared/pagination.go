package shared

import (
	"math"
	"strconv"
)

const defaultPerPage = 50

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata. Non-positive page and perPage
// fall back to the first page of defaultPerPage items.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// ParsePagination reads page and per_page query values. Unparseable values
// count as absent.
func ParsePagination(page, perPage string, total int) Pagination {
	p, _ := strconv.Atoi(page)
	pp, _ := strconv.Atoi(perPage)
	return NewPagination(p, pp, total)
}

// Bounds returns the half-open slice range of the page, clamped to Total.
func (p Pagination) Bounds() (start, end int) {
	start = (p.Page - 1) * p.PerPage
	if start > p.Total {
		start = p.Total
	}
	end = start + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return start, end
}
