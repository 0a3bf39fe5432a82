package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paginationFor(query string) Pagination {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/payments?"+query, nil)
	return NewPagination(c)
}

func TestNewPagination(t *testing.T) {
	p := paginationFor("")
	assert.Equal(t, Pagination{Page: 1, PerPage: DefaultPaginationLimit, Offset: 0}, p)

	p = paginationFor("page=3&limit=20")
	assert.Equal(t, Pagination{Page: 3, PerPage: 20, Offset: 40}, p)

	p = paginationFor("page=-2&limit=abc")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPaginationLimit, p.PerPage)

	p = paginationFor("limit=1000")
	assert.Equal(t, MaxPaginationLimit, p.PerPage)
}

func TestTotalPages(t *testing.T) {
	p := Pagination{Page: 1, PerPage: 10}
	assert.EqualValues(t, 0, p.TotalPages(0))
	assert.EqualValues(t, 1, p.TotalPages(10))
	assert.EqualValues(t, 3, p.TotalPages(21))
}

func TestBodySizeLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BodySizeLimitMiddleware(8))
	r.POST("/echo", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small")))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("much too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
