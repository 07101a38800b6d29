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
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSwotTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService, testutil.CreateTestResolver(tc.DB)))

	handler := handlers.NewSwotHandler(access.NewStore(tc.DB))
	r.Route("/api/v1/swot", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Delete("/{id}", handler.Delete)
	})

	return r, tc
}

func TestSwotHandler_Create(t *testing.T) {
	router, tc := setupSwotTestRouter(t)
	defer tc.Cleanup()

	t.Run("create factor", func(t *testing.T) {
		body := map[string]interface{}{
			"kind":        "strength",
			"description": "Experienced surgical team",
			"weight":      4,
		}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/swot", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code, "Body: %s", rr.Body.String())

		var resp handlers.SwotFactorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "strength", resp.Kind)
		assert.Equal(t, 4, resp.Weight)
	})

	t.Run("weight defaults to one", func(t *testing.T) {
		body := map[string]interface{}{
			"kind":        "threat",
			"description": "Regional nursing shortage",
		}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/swot", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)

		var resp handlers.SwotFactorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Weight)
	})

	t.Run("invalid kind rejected", func(t *testing.T) {
		body := map[string]interface{}{
			"kind":        "hazard",
			"description": "x",
		}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/swot", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSwotHandler_ListAndFilter(t *testing.T) {
	router, tc := setupSwotTestRouter(t)
	defer tc.Cleanup()

	for _, kind := range []models.SwotKind{models.SwotStrength, models.SwotWeakness, models.SwotOpportunity} {
		factor := &models.SwotFactor{
			OrganizationID: tc.Org.ID,
			Kind:           kind,
			Description:    "factor",
			Weight:         1,
		}
		require.NoError(t, tc.DB.Create(factor).Error)
	}

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/swot?kind=strength", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data  []handlers.SwotFactorResponse `json:"data"`
		Total int64                         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1), resp.Total)
}
