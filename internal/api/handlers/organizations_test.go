package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/api/handlers"
	"github.com/harper/riskhub/internal/api/middleware"
	"github.com/harper/riskhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrgTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService, testutil.CreateTestResolver(tc.DB)))

	handler := handlers.NewOrganizationHandler(access.NewStore(tc.DB))
	r.Get("/api/v1/organizations", handler.List)

	return r, tc
}

func TestOrganizationHandler_List(t *testing.T) {
	router, tc := setupOrgTestRouter(t)
	defer tc.Cleanup()

	// Organizations the caller does not belong to stay invisible.
	testutil.CreateTestOrg(t, tc.DB)
	testutil.CreateTestOrg(t, tc.DB)

	t.Run("member sees only own organizations", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/organizations", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp []handlers.OrganizationResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, tc.Org.ID.String(), resp[0].ID)
	})

	t.Run("multi-org member sees the union", func(t *testing.T) {
		second := testutil.CreateTestOrg(t, tc.DB)
		testutil.AddMembership(t, tc.DB, tc.User, second)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/organizations", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp []handlers.OrganizationResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
	})
}
