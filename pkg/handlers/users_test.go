package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/botslatam/admin-engine/pkg/apperrors"
	"github.com/botslatam/admin-engine/pkg/auth"
	"github.com/botslatam/admin-engine/pkg/models"
)

func newUsersTestMux(t *testing.T, userService *mockUserService) (*http.ServeMux, auth.Service) {
	t.Helper()
	authService := auth.NewService("test-secret", time.Hour)
	middleware := auth.NewMiddleware(authService, zap.NewNop())
	handler := NewUsersHandler(userService, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, middleware)
	return mux, authService
}

func TestListUsers(t *testing.T) {
	svc := &mockUserService{
		users: []*models.User{
			{ID: 1, Name: "Ana", Email: "ana@example.com", Role: models.RoleAdmin},
			{ID: 2, Name: "Beto", Email: "beto@example.com", Role: models.RoleUser},
		},
	}
	mux, authService := newUsersTestMux(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?skip=0&limit=10", nil)
	req.Header.Set("Authorization", bearerToken(t, authService, svc.users[0]))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var users []*models.User
	if err := json.NewDecoder(rec.Body).Decode(&users); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestListUsersInvalidPagination(t *testing.T) {
	svc := &mockUserService{}
	mux, authService := newUsersTestMux(t, svc)
	actor := &models.User{ID: 1, Role: models.RoleUser}

	for _, query := range []string{"skip=-1", "limit=0", "limit=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users?"+query, nil)
		req.Header.Set("Authorization", bearerToken(t, authService, actor))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected status 400, got %d", query, rec.Code)
		}
	}
}

func TestListUsersRequiresAuth(t *testing.T) {
	mux, _ := newUsersTestMux(t, &mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without a token, got %d", rec.Code)
	}
}

func TestGetUserNotFound(t *testing.T) {
	svc := &mockUserService{getErr: apperrors.ErrNotFound}
	mux, authService := newUsersTestMux(t, svc)
	actor := &models.User{ID: 1, Role: models.RoleUser}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/99", nil)
	req.Header.Set("Authorization", bearerToken(t, authService, actor))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestUpdateUserPassesActorRole(t *testing.T) {
	svc := &mockUserService{
		user: &models.User{ID: 2, Name: "Beto", Email: "beto@example.com", Role: models.RoleAdmin},
	}
	mux, authService := newUsersTestMux(t, svc)
	actor := &models.User{ID: 1, Role: models.RoleAdmin}

	body := `{"role":"admin"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/2", strings.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, authService, actor))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.capturedRole != models.RoleAdmin {
		t.Errorf("expected actor role %q from claims, got %q", models.RoleAdmin, svc.capturedRole)
	}
}

func TestUpdateUserRoleForbidden(t *testing.T) {
	svc := &mockUserService{updateErr: apperrors.ErrForbidden}
	mux, authService := newUsersTestMux(t, svc)
	actor := &models.User{ID: 1, Role: models.RoleUser}

	body := `{"role":"admin"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/2", strings.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, authService, actor))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestUpdateUserInvalidRole(t *testing.T) {
	svc := &mockUserService{updateErr: apperrors.ErrInvalidRole}
	mux, authService := newUsersTestMux(t, svc)
	actor := &models.User{ID: 1, Role: models.RoleAdmin}

	body := `{"role":"superuser"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/2", strings.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, authService, actor))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	svc := &mockUserService{}
	mux, authService := newUsersTestMux(t, svc)
	actor := &models.User{ID: 1, Role: models.RoleUser}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/2", nil)
	req.Header.Set("Authorization", bearerToken(t, authService, actor))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-admin, got %d", rec.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	svc := &mockUserService{}
	mux, authService := newUsersTestMux(t, svc)
	actor := &models.User{ID: 1, Role: models.RoleAdmin}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/2", nil)
	req.Header.Set("Authorization", bearerToken(t, authService, actor))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
