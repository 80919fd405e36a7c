package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

var (
	testUser  = &model.User{ID: primitive.NewObjectID(), Name: "Asha", Email: "asha@example.com"}
	testAdmin = &model.User{ID: primitive.NewObjectID(), Name: "Boss", Email: "boss@example.com", IsAdmin: true}
)

type fakeAccounts struct {
	registered service.RegisterInput
}

func (f *fakeAccounts) Register(_ context.Context, in service.RegisterInput) (*service.Session, error) {
	f.registered = in
	return &service.Session{Token: "new-token", User: &model.User{ID: primitive.NewObjectID(), Name: in.Name, Email: in.Email}}, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*service.Session, error) {
	if email == testUser.Email && password == "password123" {
		return &service.Session{Token: userToken, User: testUser}, nil
	}
	return nil, service.ErrInvalidCredentials
}

func (f *fakeAccounts) Authenticate(_ context.Context, token string) (*model.User, error) {
	switch token {
	case userToken:
		return testUser, nil
	case adminToken:
		return testAdmin, nil
	}
	return nil, service.ErrInvalidToken
}

func newTestRouter(svc Services, deps ...Dependency) *gin.Engine {
	if svc.Accounts == nil {
		svc.Accounts = &fakeAccounts{}
	}
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewRouter(log, 1<<14, svc, NewHealthHandler(deps...))
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
