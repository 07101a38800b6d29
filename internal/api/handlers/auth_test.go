package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/harper/riskhub/internal/api/dto"
	"github.com/harper/riskhub/internal/api/handlers"
	"github.com/harper/riskhub/internal/api/middleware"
	"github.com/harper/riskhub/internal/auth"
	"github.com/harper/riskhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	authService := auth.NewService(tc.DB, tc.JWTService)
	handler := handlers.NewAuthHandler(authService)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/register", handler.Register)
	r.Post("/api/v1/auth/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService, testutil.CreateTestResolver(tc.DB)))
		r.Get("/api/v1/me", handler.Me)
	})

	return r, tc
}

func TestAuthHandler_Register(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("successful registration", func(t *testing.T) {
		body := map[string]interface{}{
			"email":    "cro@stmary.example.com",
			"password": "SafePassw0rd!",
			"name":     "Risk Officer",
			"org_name": "St Mary Hospital",
		}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code, "Body: %s", rr.Body.String())

		var resp dto.AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "cro@stmary.example.com", resp.User.Email)
		assert.Equal(t, "St Mary Hospital", resp.User.OrgName)
		assert.NotEmpty(t, resp.User.OrganizationID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := map[string]interface{}{
			"email":    tc.User.Email,
			"password": "SafePassw0rd!",
			"name":     "Impostor",
		}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "missing email",
			body: map[string]interface{}{"password": "SafePassw0rd!", "name": "x"},
		},
		{
			name: "malformed email",
			body: map[string]interface{}{"email": "not-an-email", "password": "SafePassw0rd!", "name": "x"},
		},
		{
			name: "short password",
			body: map[string]interface{}{"email": "a@b.example.com", "password": "short", "name": "x"},
		},
		{
			name: "overlong password",
			body: map[string]interface{}{"email": "a@b.example.com", "password": strings.Repeat("x", 129), "name": "x"},
		},
		{
			name: "missing name",
			body: map[string]interface{}{"email": "a@b.example.com", "password": "SafePassw0rd!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", tt.body)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("valid credentials", func(t *testing.T) {
		body := map[string]interface{}{
			"email":    tc.User.Email,
			"password": "testpassword123",
		}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "Body: %s", rr.Body.String())

		var resp dto.AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, tc.User.Email, resp.User.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]interface{}{
			"email":    tc.User.Email,
			"password": "wrongpassword",
		}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		body := map[string]interface{}{
			"email":    "ghost@example.com",
			"password": "whatever123",
		}
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("authenticated", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/me", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.UserDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, tc.User.ID.String(), resp.ID)
		assert.Equal(t, tc.User.Email, resp.Email)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/me", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
