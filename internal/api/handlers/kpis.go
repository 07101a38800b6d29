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
	"github.com/harper/riskhub/internal/risk"
)

type KPIHandler struct {
	store *access.Store
}

func NewKPIHandler(store *access.Store) *KPIHandler {
	return &KPIHandler{store: store}
}

// CreateKPIRequest represents the request to create a KPI
type CreateKPIRequest struct {
	OrganizationID string   `json:"organization_id,omitempty"`
	Name           string   `json:"name"`
	Unit           string   `json:"unit,omitempty"`
	Target         float64  `json:"target"`
	Realization    *float64 `json:"realization,omitempty"`
}

func (r CreateKPIRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

// RealizationRequest reports a realized value against the KPI target. A null
// realization resets the KPI to not yet realized.
type RealizationRequest struct {
	Realization *float64 `json:"realization"`
}

// KPIResponse represents a KPI in API responses
type KPIResponse struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	Name           string   `json:"name"`
	Unit           string   `json:"unit,omitempty"`
	Target         float64  `json:"target"`
	Realization    *float64 `json:"realization,omitempty"`
	Percentage     float64  `json:"percentage"`
	Status         string   `json:"status"`
	CreatedAt      string   `json:"created_at"`
}

func kpiToResponse(k *models.KPI) KPIResponse {
	return KPIResponse{
		ID:             k.ID.String(),
		OrganizationID: k.OrganizationID.String(),
		Name:           k.Name,
		Unit:           k.Unit,
		Target:         k.Target,
		Realization:    k.Realization,
		Percentage:     k.Percentage,
		Status:         string(k.Status),
		CreatedAt:      k.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/v1/kpis
func (h *KPIHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())
	pagination := parsePagination(r)

	query := h.store.Query(r.Context(), ac, &models.KPI{})

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count KPIs"})
		return
	}

	var kpis []models.KPI
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&kpis).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list KPIs"})
		return
	}

	response := make([]KPIResponse, len(kpis))
	for i, k := range kpis {
		response[i] = kpiToResponse(&k)
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Create handles POST /api/v1/kpis
func (h *KPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var req CreateKPIRequest
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

	percentage, status := risk.Achievement(req.Realization, req.Target)

	record := models.KPI{
		OrganizationID: orgID,
		Name:           req.Name,
		Unit:           req.Unit,
		Target:         req.Target,
		Realization:    req.Realization,
		Percentage:     percentage,
		Status:         status,
	}

	if err := h.store.Create(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "KPI")
		return
	}

	writeJSON(w, http.StatusCreated, kpiToResponse(&record))
}

// Get handles GET /api/v1/kpis/:id
func (h *KPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	kpiID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid KPI ID"})
		return
	}

	var record models.KPI
	if err := h.store.First(r.Context(), ac, &record, kpiID); err != nil {
		writeStoreError(w, err, "KPI")
		return
	}

	writeJSON(w, http.StatusOK, kpiToResponse(&record))
}

// UpdateRealization handles PUT /api/v1/kpis/:id/realization
func (h *KPIHandler) UpdateRealization(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	kpiID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid KPI ID"})
		return
	}

	var req RealizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	var record models.KPI
	if err := h.store.First(r.Context(), ac, &record, kpiID); err != nil {
		writeStoreError(w, err, "KPI")
		return
	}

	record.Realization = req.Realization
	record.Percentage, record.Status = risk.Achievement(req.Realization, record.Target)

	if err := h.store.Save(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "KPI")
		return
	}

	writeJSON(w, http.StatusOK, kpiToResponse(&record))
}

// Delete handles DELETE /api/v1/kpis/:id
func (h *KPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	kpiID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid KPI ID"})
		return
	}

	if err := h.store.Delete(r.Context(), ac, &models.KPI{}, kpiID); err != nil {
		writeStoreError(w, err, "KPI")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "KPI deleted"})
}
