package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/api/dto"
	"github.com/harper/riskhub/internal/api/middleware"
	"github.com/harper/riskhub/internal/api/validation"
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/risk"
)

type RiskHandler struct {
	store *access.Store
}

func NewRiskHandler(store *access.Store) *RiskHandler {
	return &RiskHandler{store: store}
}

// CreateRiskRequest represents the request to create a risk
type CreateRiskRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Title          string `json:"title"`
	Category       string `json:"category,omitempty"`
	Owner          string `json:"owner,omitempty"`

	Probability int `json:"probability"`
	Impact      int `json:"impact"`

	// Residual defaults to the inherent assessment when omitted. Both fields
	// must be given together.
	ResidualProbability *int `json:"residual_probability,omitempty"`
	ResidualImpact      *int `json:"residual_impact,omitempty"`

	FinancialImpact float64 `json:"financial_impact,omitempty"`
	RiskAppetite    int     `json:"risk_appetite,omitempty"`
}

func (r CreateRiskRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if !validation.IsValidScaleIndex(r.Probability) {
		errors["probability"] = "Probability must be between 1 and 5"
	}
	if !validation.IsValidScaleIndex(r.Impact) {
		errors["impact"] = "Impact must be between 1 and 5"
	}

	if (r.ResidualProbability == nil) != (r.ResidualImpact == nil) {
		errors["residual_probability"] = "Residual probability and impact must be given together"
	}
	if r.ResidualProbability != nil && !validation.IsValidScaleIndex(*r.ResidualProbability) {
		errors["residual_probability"] = "Residual probability must be between 1 and 5"
	}
	if r.ResidualImpact != nil && !validation.IsValidScaleIndex(*r.ResidualImpact) {
		errors["residual_impact"] = "Residual impact must be between 1 and 5"
	}

	return errors
}

// UpdateRiskRequest represents a partial risk update. Probability and impact
// reclassify the inherent assessment; omitted fields are left unchanged.
type UpdateRiskRequest struct {
	Title           *string  `json:"title,omitempty"`
	Category        *string  `json:"category,omitempty"`
	Owner           *string  `json:"owner,omitempty"`
	Status          *string  `json:"status,omitempty"`
	Probability     *int     `json:"probability,omitempty"`
	Impact          *int     `json:"impact,omitempty"`
	FinancialImpact *float64 `json:"financial_impact,omitempty"`
	RiskAppetite    *int     `json:"risk_appetite,omitempty"`
}

func (r UpdateRiskRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title != nil && *r.Title == "" {
		errors["title"] = "Title cannot be empty"
	}
	if r.Status != nil {
		switch models.RiskStatus(*r.Status) {
		case models.RiskStatusOpen, models.RiskStatusMitigated,
			models.RiskStatusAccepted, models.RiskStatusClosed:
		default:
			errors["status"] = "Invalid status"
		}
	}
	if r.Probability != nil && !validation.IsValidScaleIndex(*r.Probability) {
		errors["probability"] = "Probability must be between 1 and 5"
	}
	if r.Impact != nil && !validation.IsValidScaleIndex(*r.Impact) {
		errors["impact"] = "Impact must be between 1 and 5"
	}

	return errors
}

// ResidualRequest represents a residual reassessment
type ResidualRequest struct {
	Probability int `json:"probability"`
	Impact      int `json:"impact"`
}

func (r ResidualRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if !validation.IsValidScaleIndex(r.Probability) {
		errors["probability"] = "Probability must be between 1 and 5"
	}
	if !validation.IsValidScaleIndex(r.Impact) {
		errors["impact"] = "Impact must be between 1 and 5"
	}

	return errors
}

// RiskResponse represents a risk in API responses
type RiskResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Title          string `json:"title"`
	Category       string `json:"category,omitempty"`
	Owner          string `json:"owner,omitempty"`
	Status         string `json:"status"`

	Inherent models.RiskAnalysis `json:"inherent"`
	Residual models.RiskAnalysis `json:"residual"`

	ProbabilityPercentage string  `json:"probability_percentage,omitempty"`
	FinancialImpact       float64 `json:"financial_impact,omitempty"`
	RiskAppetite          int     `json:"risk_appetite,omitempty"`
	AppetiteBreached      bool    `json:"appetite_breached"`
	Delta                 int     `json:"delta"`

	CreatedAt string `json:"created_at"`
}

func riskToResponse(r *models.Risk) RiskResponse {
	return RiskResponse{
		ID:                    r.ID.String(),
		OrganizationID:        r.OrganizationID.String(),
		Title:                 r.Title,
		Category:              r.Category,
		Owner:                 r.Owner,
		Status:                string(r.Status),
		Inherent:              r.Inherent,
		Residual:              r.Residual,
		ProbabilityPercentage: r.ProbabilityPercentage,
		FinancialImpact:       r.FinancialImpact,
		RiskAppetite:          r.RiskAppetite,
		AppetiteBreached:      r.AppetiteBreached(),
		Delta:                 r.Residual.Value - r.Inherent.Value,
		CreatedAt:             r.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/v1/risks
func (h *RiskHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())
	pagination := parsePagination(r)

	query := h.store.Query(r.Context(), ac, &models.Risk{})

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if level := r.URL.Query().Get("level"); level != "" {
		query = query.Where("residual_level = ?", level)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count risks"})
		return
	}

	var risks []models.Risk
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&risks).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list risks"})
		return
	}

	response := make([]RiskResponse, len(risks))
	for i, rk := range risks {
		response[i] = riskToResponse(&rk)
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Create handles POST /api/v1/risks
func (h *RiskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var req CreateRiskRequest
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

	inherent, err := risk.Classify(req.Probability, req.Impact)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	residual := inherent
	if req.ResidualProbability != nil {
		residual, err = risk.Classify(*req.ResidualProbability, *req.ResidualImpact)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}

	band, _ := risk.ProbabilityPercentage(req.Probability)

	record := models.Risk{
		OrganizationID:        orgID,
		Title:                 req.Title,
		Category:              req.Category,
		Owner:                 req.Owner,
		Status:                models.RiskStatusOpen,
		Inherent:              analysisFrom(inherent),
		Residual:              analysisFrom(residual),
		ProbabilityPercentage: band,
		FinancialImpact:       req.FinancialImpact,
		RiskAppetite:          req.RiskAppetite,
	}

	if err := h.store.Create(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Risk")
		return
	}

	writeJSON(w, http.StatusCreated, riskToResponse(&record))
}

// Get handles GET /api/v1/risks/:id
func (h *RiskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	riskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid risk ID"})
		return
	}

	var record models.Risk
	if err := h.store.First(r.Context(), ac, &record, riskID); err != nil {
		writeStoreError(w, err, "Risk")
		return
	}

	writeJSON(w, http.StatusOK, riskToResponse(&record))
}

// Update handles PUT /api/v1/risks/:id
func (h *RiskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	riskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid risk ID"})
		return
	}

	var req UpdateRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	var record models.Risk
	if err := h.store.First(r.Context(), ac, &record, riskID); err != nil {
		writeStoreError(w, err, "Risk")
		return
	}

	if req.Title != nil {
		record.Title = *req.Title
	}
	if req.Category != nil {
		record.Category = *req.Category
	}
	if req.Owner != nil {
		record.Owner = *req.Owner
	}
	if req.Status != nil {
		record.Status = models.RiskStatus(*req.Status)
	}
	if req.FinancialImpact != nil {
		record.FinancialImpact = *req.FinancialImpact
	}
	if req.RiskAppetite != nil {
		record.RiskAppetite = *req.RiskAppetite
	}

	// Reclassify when either assessment index changes; the other keeps its
	// stored value.
	if req.Probability != nil || req.Impact != nil {
		probability := record.Inherent.Probability
		impact := record.Inherent.Impact
		if req.Probability != nil {
			probability = *req.Probability
		}
		if req.Impact != nil {
			impact = *req.Impact
		}

		inherent, err := risk.Classify(probability, impact)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		record.Inherent = analysisFrom(inherent)
		record.ProbabilityPercentage, _ = risk.ProbabilityPercentage(probability)
	}

	if err := h.store.Save(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Risk")
		return
	}

	writeJSON(w, http.StatusOK, riskToResponse(&record))
}

// UpdateResidual handles PUT /api/v1/risks/:id/residual
func (h *RiskHandler) UpdateResidual(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	riskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid risk ID"})
		return
	}

	var req ResidualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	var record models.Risk
	if err := h.store.First(r.Context(), ac, &record, riskID); err != nil {
		writeStoreError(w, err, "Risk")
		return
	}

	residual, err := risk.Classify(req.Probability, req.Impact)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	record.Residual = analysisFrom(residual)

	if err := h.store.Save(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Risk")
		return
	}

	writeJSON(w, http.StatusOK, riskToResponse(&record))
}

// Delete handles DELETE /api/v1/risks/:id
func (h *RiskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	riskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid risk ID"})
		return
	}

	if err := h.store.Delete(r.Context(), ac, &models.Risk{}, riskID); err != nil {
		writeStoreError(w, err, "Risk")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Risk deleted"})
}

func analysisFrom(c risk.Classification) models.RiskAnalysis {
	return models.RiskAnalysis{
		Probability: c.Probability,
		Impact:      c.Impact,
		Value:       c.Value,
		Level:       c.Level,
	}
}

// resolveOwnerOrg picks the owning organization for a new record: the
// explicit organization_id when the request names one, otherwise the caller's
// sole membership. Superadmins and multi-org members must name the target.
// Writes the error response itself when resolution fails.
func resolveOwnerOrg(w http.ResponseWriter, ac *access.Context, explicit string) (uuid.UUID, bool) {
	if explicit != "" {
		orgID, err := uuid.Parse(explicit)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
			return uuid.Nil, false
		}
		if !ac.CanAccess(orgID) {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Organization not accessible"})
			return uuid.Nil, false
		}
		return orgID, true
	}

	if orgID, ok := ac.SoleOrganization(); ok {
		return orgID, true
	}

	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "organization_id is required"})
	return uuid.Nil, false
}

func parsePagination(r *http.Request) dto.PaginationParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()
	return pagination
}

func totalPages(total int64, perPage int) int {
	pages := int(total) / perPage
	if int(total)%perPage > 0 {
		pages++
	}
	return pages
}
