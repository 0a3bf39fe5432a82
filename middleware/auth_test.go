package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-0123456789"

func newRouter(st store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret, st), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.Email)
	})
	r.GET("/admin", AuthMiddleware(testSecret, st), AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, u.ID, u.Email, u.IsAdmin, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	st := store.NewMemoryStore()
	user := models.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, st.CreateUser(context.Background(), &user))
	r := newRouter(st)

	w := get(r, "/me", tokenFor(t, user))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "garbage").Code)

	ghost := models.User{ID: "deleted-user", Email: "ghost@example.com"}
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", tokenFor(t, ghost)).Code)
}

func TestAdminMiddleware(t *testing.T) {
	st := store.NewMemoryStore()
	user := models.User{Name: "Ada", Email: "ada@example.com"}
	admin := models.User{Name: "Root", Email: "root@example.com", IsAdmin: true}
	require.NoError(t, st.CreateUser(context.Background(), &user))
	require.NoError(t, st.CreateUser(context.Background(), &admin))
	r := newRouter(st)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", tokenFor(t, user)).Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", tokenFor(t, admin)).Code)

	// The admin flag comes from the stored user, not the token.
	forged := user
	forged.IsAdmin = true
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", tokenFor(t, forged)).Code)
}
