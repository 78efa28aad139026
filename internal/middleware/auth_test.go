package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jucity/ai-manager-backend/internal/logger"
)

func adminRouter(t *testing.T, apiKey string) *gin.Engine {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	admin := router.Group("/v1/admin")
	admin.Use(NewAdminAuthMiddleware(log, apiKey).RequireAdminKey())
	admin.GET("/parks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRequireAdminKeyUnconfigured(t *testing.T) {
	router := adminRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/parks", nil)
	req.Header.Set("X-Admin-Api-Key", "whatever")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=%d got=%d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestRequireAdminKeyRejectsBadKey(t *testing.T) {
	router := adminRouter(t, "secret")

	for _, key := range []string{"", "wrong"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/parks", nil)
		if key != "" {
			req.Header.Set("X-Admin-Api-Key", key)
		}
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("key %q status: want=%d got=%d", key, http.StatusUnauthorized, w.Code)
		}
	}
}

func TestRequireAdminKeyAccepts(t *testing.T) {
	router := adminRouter(t, "secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/parks", nil)
	req.Header.Set("X-Admin-Api-Key", "secret")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, w.Code)
	}
}
