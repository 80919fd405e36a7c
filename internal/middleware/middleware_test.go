package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	users map[string]*model.User
	err   error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrInvalidToken
}

func newRouter(auth Authenticator) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": GetUser(c).Name})
	})
	r.GET("/admin", AuthMiddleware(auth), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	auth := &fakeAuth{users: map[string]*model.User{
		"user-token":  {ID: primitive.NewObjectID(), Name: "Asha"},
		"admin-token": {ID: primitive.NewObjectID(), Name: "Boss", IsAdmin: true},
	}}
	r := newRouter(auth)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"no header", "/me", "", http.StatusUnauthorized, `{"message":"invalid token"}`},
		{"not bearer", "/me", "Basic abc", http.StatusUnauthorized, `{"message":"invalid token"}`},
		{"unknown token", "/me", "Bearer nope", http.StatusUnauthorized, `{"message":"invalid token"}`},
		{"valid", "/me", "Bearer user-token", http.StatusOK, `{"name":"Asha"}`},
		{"admin route as user", "/admin", "Bearer user-token", http.StatusForbidden, `{"message":"admin access required"}`},
		{"admin route as admin", "/admin", "Bearer admin-token", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"blocked", service.ErrAccountBlocked, http.StatusUnauthorized, `{"message":"account is blocked"}`},
		{"expired", service.ErrTokenExpired, http.StatusUnauthorized, `{"message":"session expired, please login again"}`},
		{"store down", errors.New("connection refused"), http.StatusInternalServerError, `{"message":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&fakeAuth{err: tt.err})
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer anything")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, slog.LevelInfo)

	r := gin.New()
	r.Use(RequestLogger(log))
	var ctxLogger bool
	r.GET("/ping", func(c *gin.Context) {
		ctxLogger = logging.FromContext(c.Request.Context()) != nil
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(logging.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.True(t, ctxLogger)
	assert.Equal(t, "req-123", w.Header().Get(logging.RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"status":200`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(logging.RequestIDHeader))
}

func TestMaxBody(t *testing.T) {
	r := gin.New()
	r.Use(MaxBody(8))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("short")))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("much too long a body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
