package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/api/dto"
	"github.com/harper/riskhub/internal/api/middleware"
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/strategy"
)

type StrategyHandler struct {
	store *access.Store
}

func NewStrategyHandler(store *access.Store) *StrategyHandler {
	return &StrategyHandler{store: store}
}

// CreateStrategyRequest represents the request to add a TOWS strategy
type CreateStrategyRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Type           string `json:"type"`
	Text           string `json:"text"`
}

func (r CreateStrategyRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if !strategy.Type(r.Type).Valid() {
		errors["type"] = "Type must be SO, WO, ST, or WT"
	}
	if r.Text == "" {
		errors["text"] = "Text is required"
	}

	return errors
}

// StrategyResponse represents a TOWS strategy in API responses
type StrategyResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Type           string `json:"type"`
	Text           string `json:"text"`
	CreatedAt      string `json:"created_at"`
}

func strategyToResponse(s *models.TowsStrategy) StrategyResponse {
	return StrategyResponse{
		ID:             s.ID.String(),
		OrganizationID: s.OrganizationID.String(),
		Type:           string(s.Type),
		Text:           s.Text,
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/v1/strategies
func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())
	pagination := parsePagination(r)

	query := h.store.Query(r.Context(), ac, &models.TowsStrategy{})

	if strategyType := r.URL.Query().Get("type"); strategyType != "" {
		query = query.Where("type = ?", strategyType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count strategies"})
		return
	}

	var strategies []models.TowsStrategy
	if err := query.
		Order("created_at ASC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&strategies).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list strategies"})
		return
	}

	response := make([]StrategyResponse, len(strategies))
	for i, s := range strategies {
		response[i] = strategyToResponse(&s)
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Create handles POST /api/v1/strategies
func (h *StrategyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var req CreateStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	orgID, ok := resolveOwnerOrg(w, ac, req.OrganizationID)
	if !ok {
		return
	}

	record := models.TowsStrategy{
		OrganizationID: orgID,
		Type:           strategy.Type(req.Type),
		Text:           req.Text,
	}

	if err := h.store.Create(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Strategy")
		return
	}

	writeJSON(w, http.StatusCreated, strategyToResponse(&record))
}

// Get handles GET /api/v1/strategies/:id
func (h *StrategyHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	strategyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid strategy ID"})
		return
	}

	var record models.TowsStrategy
	if err := h.store.First(r.Context(), ac, &record, strategyID); err != nil {
		writeStoreError(w, err, "Strategy")
		return
	}

	writeJSON(w, http.StatusOK, strategyToResponse(&record))
}

// Delete handles DELETE /api/v1/strategies/:id
func (h *StrategyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	strategyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid strategy ID"})
		return
	}

	if err := h.store.Delete(r.Context(), ac, &models.TowsStrategy{}, strategyID); err != nil {
		writeStoreError(w, err, "Strategy")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Strategy deleted"})
}
