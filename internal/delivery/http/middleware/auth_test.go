package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func protectedRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(secret).RequireServiceToken())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("service_subject"))
	})
	return r
}

func request(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireServiceToken(t *testing.T) {
	const secret = "service-secret"
	r := protectedRouter(secret)

	token, err := SignServiceToken(secret, "scheduler", time.Minute)
	if err != nil {
		t.Fatalf("SignServiceToken failed: %v", err)
	}

	t.Run("valid token passes and exposes the subject", func(t *testing.T) {
		w := request(r, "Bearer "+token)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if w.Body.String() != "scheduler" {
			t.Errorf("subject = %q, want scheduler", w.Body.String())
		}
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		if w := request(r, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("missing bearer prefix is rejected", func(t *testing.T) {
		if w := request(r, token); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		forged, err := SignServiceToken("other-secret", "scheduler", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if w := request(r, "Bearer "+forged); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expired, err := SignServiceToken(secret, "scheduler", -time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if w := request(r, "Bearer "+expired); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}
