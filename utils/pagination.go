package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Pagination represents pagination parameters
type Pagination struct {
	Page    int
	PerPage int
	Offset  int
}

// NewPagination reads page and limit from the query string, clamping limit
// to MaxPaginationLimit.
func NewPagination(c *gin.Context) Pagination {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPaginationLimit)))
	if err != nil || limit < 1 {
		limit = DefaultPaginationLimit
	}
	if limit > MaxPaginationLimit {
		limit = MaxPaginationLimit
	}

	return Pagination{
		Page:    page,
		PerPage: limit,
		Offset:  (page - 1) * limit,
	}
}

// TotalPages returns the number of pages needed for total items
func (p Pagination) TotalPages(total int64) int64 {
	if p.PerPage <= 0 {
		return 0
	}
	return (total + int64(p.PerPage) - 1) / int64(p.PerPage)
}
