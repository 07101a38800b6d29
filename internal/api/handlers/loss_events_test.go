package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/api/handlers"
	"github.com/harper/riskhub/internal/api/middleware"
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/testutil"
	"github.com/harper/riskhub/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLossEventTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	encryptor, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService, testutil.CreateTestResolver(tc.DB)))

	handler := handlers.NewLossEventHandler(access.NewStore(tc.DB), encryptor)
	r.Route("/api/v1/loss-events", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Get("/{id}", handler.Get)
		r.Delete("/{id}", handler.Delete)
	})

	return r, tc
}

func TestLossEventHandler_NarrativeEncryption(t *testing.T) {
	router, tc := setupLossEventTestRouter(t)
	defer tc.Cleanup()

	narrative := "Patient fall in ward 3, hip fracture, family notified"

	body := map[string]interface{}{
		"occurred_at": time.Now().Unix(),
		"category":    "clinical",
		"amount":      12500.50,
		"narrative":   narrative,
	}
	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/loss-events", body, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, "Body: %s", rr.Body.String())

	var resp handlers.LossEventResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, narrative, resp.Narrative)

	// The stored column holds ciphertext, never the plaintext.
	var stored models.LossEvent
	require.NoError(t, tc.DB.First(&stored, "id = ?", resp.ID).Error)
	assert.NotEmpty(t, stored.Narrative)
	assert.NotEqual(t, narrative, stored.Narrative)

	// Single-record reads decrypt.
	req = testutil.AuthenticatedRequest(t, "GET", "/api/v1/loss-events/"+resp.ID, nil, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched handlers.LossEventResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, narrative, fetched.Narrative)

	// Listings never carry narratives.
	req = testutil.AuthenticatedRequest(t, "GET", "/api/v1/loss-events", nil, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var list struct {
		Data []handlers.LossEventResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Empty(t, list.Data[0].Narrative)
}

func TestLossEventHandler_Validation(t *testing.T) {
	router, tc := setupLossEventTestRouter(t)
	defer tc.Cleanup()

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "missing occurred_at",
			body: map[string]interface{}{"amount": 100},
		},
		{
			name: "negative amount",
			body: map[string]interface{}{"occurred_at": time.Now().Unix(), "amount": -5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/loss-events", tt.body, tc.Token)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestLossEventHandler_OrgIsolation(t *testing.T) {
	router, tc := setupLossEventTestRouter(t)
	defer tc.Cleanup()

	otherOrg := testutil.CreateTestOrg(t, tc.DB)
	other := &models.LossEvent{
		OrganizationID: otherOrg.ID,
		OccurredAt:     time.Now().Unix(),
		Amount:         500,
	}
	require.NoError(t, tc.DB.Create(other).Error)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/loss-events/"+other.ID.String(), nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = testutil.AuthenticatedRequest(t, "DELETE", "/api/v1/loss-events/"+other.ID.String(), nil, tc.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
