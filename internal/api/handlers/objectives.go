package handlers

import (
	"context"
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
	"github.com/harper/riskhub/internal/tasks"
	"github.com/hibiken/asynq"
)

type ObjectiveHandler struct {
	store       *access.Store
	asynqClient *asynq.Client
}

func NewObjectiveHandler(store *access.Store, asynqClient *asynq.Client) *ObjectiveHandler {
	return &ObjectiveHandler{store: store, asynqClient: asynqClient}
}

// CreateObjectiveRequest represents the request to create a strategic objective
type CreateObjectiveRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Text           string `json:"text"`
	Perspective    string `json:"perspective"`
}

func (r CreateObjectiveRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Text == "" {
		errors["text"] = "Text is required"
	}
	if !strategy.Perspective(r.Perspective).Valid() {
		errors["perspective"] = "Perspective must be external_stakeholder, internal_process, learning_growth, or financial"
	}

	return errors
}

// UpdateObjectiveRequest represents a partial objective update
type UpdateObjectiveRequest struct {
	Text        *string `json:"text,omitempty"`
	Perspective *string `json:"perspective,omitempty"`
}

func (r UpdateObjectiveRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Text != nil && *r.Text == "" {
		errors["text"] = "Text cannot be empty"
	}
	if r.Perspective != nil && !strategy.Perspective(*r.Perspective).Valid() {
		errors["perspective"] = "Perspective must be external_stakeholder, internal_process, learning_growth, or financial"
	}

	return errors
}

// ObjectiveResponse represents a strategic objective in API responses
type ObjectiveResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Text           string `json:"text"`
	Perspective    string `json:"perspective"`
	StrategyID     string `json:"strategy_id,omitempty"`
	Confidence     int    `json:"confidence,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func objectiveToResponse(o *models.StrategicObjective) ObjectiveResponse {
	resp := ObjectiveResponse{
		ID:             o.ID.String(),
		OrganizationID: o.OrganizationID.String(),
		Text:           o.Text,
		Perspective:    string(o.Perspective),
		Confidence:     o.Confidence,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
	if o.StrategyID != nil {
		resp.StrategyID = o.StrategyID.String()
	}
	return resp
}

// List handles GET /api/v1/objectives
func (h *ObjectiveHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())
	pagination := parsePagination(r)

	query := h.store.Query(r.Context(), ac, &models.StrategicObjective{})

	if perspective := r.URL.Query().Get("perspective"); perspective != "" {
		query = query.Where("perspective = ?", perspective)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count objectives"})
		return
	}

	var objectives []models.StrategicObjective
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&objectives).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list objectives"})
		return
	}

	response := make([]ObjectiveResponse, len(objectives))
	for i, o := range objectives {
		response[i] = objectiveToResponse(&o)
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Create handles POST /api/v1/objectives. The new objective is correlated
// against the organization's strategy catalog immediately.
func (h *ObjectiveHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var req CreateObjectiveRequest
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

	record := models.StrategicObjective{
		OrganizationID: orgID,
		Text:           req.Text,
		Perspective:    strategy.Perspective(req.Perspective),
	}

	if err := h.correlateObjective(r.Context(), ac, &record); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to correlate objective"})
		return
	}

	if err := h.store.Create(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Objective")
		return
	}

	writeJSON(w, http.StatusCreated, objectiveToResponse(&record))
}

// Get handles GET /api/v1/objectives/:id
func (h *ObjectiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	objectiveID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid objective ID"})
		return
	}

	var record models.StrategicObjective
	if err := h.store.First(r.Context(), ac, &record, objectiveID); err != nil {
		writeStoreError(w, err, "Objective")
		return
	}

	writeJSON(w, http.StatusOK, objectiveToResponse(&record))
}

// Update handles PUT /api/v1/objectives/:id. Changing the text or perspective
// invalidates the derived match, so the objective is recorrelated.
func (h *ObjectiveHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	objectiveID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid objective ID"})
		return
	}

	var req UpdateObjectiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	var record models.StrategicObjective
	if err := h.store.First(r.Context(), ac, &record, objectiveID); err != nil {
		writeStoreError(w, err, "Objective")
		return
	}

	if req.Text != nil {
		record.Text = *req.Text
	}
	if req.Perspective != nil {
		record.Perspective = strategy.Perspective(*req.Perspective)
	}

	if err := h.correlateObjective(r.Context(), ac, &record); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to correlate objective"})
		return
	}

	if err := h.store.Save(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Objective")
		return
	}

	writeJSON(w, http.StatusOK, objectiveToResponse(&record))
}

// Correlate handles POST /api/v1/objectives/:id/correlate. Recomputes the
// match against the current strategy catalog and persists the result.
func (h *ObjectiveHandler) Correlate(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	objectiveID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid objective ID"})
		return
	}

	var record models.StrategicObjective
	if err := h.store.First(r.Context(), ac, &record, objectiveID); err != nil {
		writeStoreError(w, err, "Objective")
		return
	}

	if err := h.correlateObjective(r.Context(), ac, &record); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to correlate objective"})
		return
	}

	if err := h.store.Save(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Objective")
		return
	}

	writeJSON(w, http.StatusOK, objectiveToResponse(&record))
}

// Recorrelate handles POST /api/v1/objectives/recorrelate. Enqueues a batch
// recorrelation of every objective in the organization; useful after the
// strategy catalog changes.
func (h *ObjectiveHandler) Recorrelate(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var req struct {
		OrganizationID string `json:"organization_id,omitempty"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
			return
		}
	}

	orgID, ok := resolveOwnerOrg(w, ac, req.OrganizationID)
	if !ok {
		return
	}

	task, err := tasks.NewRecorrelateTask(tasks.RecorrelatePayload{OrganizationID: orgID})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create recorrelation task"})
		return
	}

	if h.asynqClient == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Task queue unavailable"})
		return
	}

	info, err := h.asynqClient.Enqueue(task)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue recorrelation task"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": info.ID,
		"status":  "queued",
	})
}

// Delete handles DELETE /api/v1/objectives/:id
func (h *ObjectiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	objectiveID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid objective ID"})
		return
	}

	if err := h.store.Delete(r.Context(), ac, &models.StrategicObjective{}, objectiveID); err != nil {
		writeStoreError(w, err, "Objective")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Objective deleted"})
}

// correlateObjective recomputes the objective's derived match fields against
// its organization's strategy catalog. Catalog order is creation order, which
// makes the tie-break deterministic.
func (h *ObjectiveHandler) correlateObjective(ctx context.Context, ac *access.Context, record *models.StrategicObjective) error {
	var catalog []models.TowsStrategy
	if err := h.store.Query(ctx, ac, &models.TowsStrategy{}).
		Where("organization_id = ?", record.OrganizationID).
		Order("created_at ASC").
		Find(&catalog).Error; err != nil {
		return err
	}

	candidates := make([]strategy.Candidate, len(catalog))
	for i, s := range catalog {
		candidates[i] = strategy.Candidate{ID: s.ID, Type: s.Type, Text: s.Text}
	}

	match := strategy.BestMatch(strategy.Objective{
		Text:        record.Text,
		Perspective: record.Perspective,
	}, candidates)

	if match == nil {
		record.StrategyID = nil
		record.Confidence = 0
		return nil
	}

	strategyID := match.StrategyID
	record.StrategyID = &strategyID
	record.Confidence = match.Confidence
	return nil
}
