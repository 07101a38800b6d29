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
)

type SwotHandler struct {
	store *access.Store
}

func NewSwotHandler(store *access.Store) *SwotHandler {
	return &SwotHandler{store: store}
}

// CreateSwotFactorRequest represents the request to record a SWOT factor
type CreateSwotFactorRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Kind           string `json:"kind"`
	Description    string `json:"description"`
	Weight         int    `json:"weight,omitempty"`
}

func (r CreateSwotFactorRequest) Validate() map[string]string {
	errors := make(map[string]string)

	switch models.SwotKind(r.Kind) {
	case models.SwotStrength, models.SwotWeakness, models.SwotOpportunity, models.SwotThreat:
	default:
		errors["kind"] = "Kind must be strength, weakness, opportunity, or threat"
	}
	if r.Description == "" {
		errors["description"] = "Description is required"
	}
	if r.Weight < 0 || r.Weight > 5 {
		errors["weight"] = "Weight must be between 1 and 5"
	}

	return errors
}

// SwotFactorResponse represents a SWOT factor in API responses
type SwotFactorResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Kind           string `json:"kind"`
	Description    string `json:"description"`
	Weight         int    `json:"weight"`
	CreatedAt      string `json:"created_at"`
}

func swotToResponse(f *models.SwotFactor) SwotFactorResponse {
	return SwotFactorResponse{
		ID:             f.ID.String(),
		OrganizationID: f.OrganizationID.String(),
		Kind:           string(f.Kind),
		Description:    f.Description,
		Weight:         f.Weight,
		CreatedAt:      f.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/v1/swot
func (h *SwotHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())
	pagination := parsePagination(r)

	query := h.store.Query(r.Context(), ac, &models.SwotFactor{})

	if kind := r.URL.Query().Get("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count SWOT factors"})
		return
	}

	var factors []models.SwotFactor
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&factors).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list SWOT factors"})
		return
	}

	response := make([]SwotFactorResponse, len(factors))
	for i, f := range factors {
		response[i] = swotToResponse(&f)
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Create handles POST /api/v1/swot
func (h *SwotHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var req CreateSwotFactorRequest
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

	weight := req.Weight
	if weight == 0 {
		weight = 1
	}

	factor := models.SwotFactor{
		OrganizationID: orgID,
		Kind:           models.SwotKind(req.Kind),
		Description:    req.Description,
		Weight:         weight,
	}

	if err := h.store.Create(r.Context(), ac, &factor); err != nil {
		writeStoreError(w, err, "SWOT factor")
		return
	}

	writeJSON(w, http.StatusCreated, swotToResponse(&factor))
}

// Delete handles DELETE /api/v1/swot/:id
func (h *SwotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	factorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid factor ID"})
		return
	}

	if err := h.store.Delete(r.Context(), ac, &models.SwotFactor{}, factorID); err != nil {
		writeStoreError(w, err, "SWOT factor")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "SWOT factor deleted"})
}
