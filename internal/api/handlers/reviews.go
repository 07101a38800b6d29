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
	"github.com/harper/riskhub/internal/tasks"
	"github.com/harper/riskhub/pkg/util"
	"github.com/hibiken/asynq"
)

type ReviewHandler struct {
	store       *access.Store
	asynqClient *asynq.Client
}

func NewReviewHandler(store *access.Store, asynqClient *asynq.Client) *ReviewHandler {
	return &ReviewHandler{store: store, asynqClient: asynqClient}
}

// CreateReviewRequest represents the request to create a scheduled review
type CreateReviewRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Name           string `json:"name"`
	CronExpr       string `json:"cron_expr"`
	IsEnabled      *bool  `json:"is_enabled,omitempty"`
}

func (r CreateReviewRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.CronExpr == "" {
		errors["cron_expr"] = "Cron expression is required"
	} else if err := util.ValidateCronExpr(r.CronExpr); err != nil {
		errors["cron_expr"] = "Invalid cron expression"
	}

	return errors
}

// UpdateReviewRequest represents a partial review update
type UpdateReviewRequest struct {
	Name      *string `json:"name,omitempty"`
	CronExpr  *string `json:"cron_expr,omitempty"`
	IsEnabled *bool   `json:"is_enabled,omitempty"`
}

func (r UpdateReviewRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Name cannot be empty"
	}
	if r.CronExpr != nil {
		if err := util.ValidateCronExpr(*r.CronExpr); err != nil {
			errors["cron_expr"] = "Invalid cron expression"
		}
	}

	return errors
}

// ReviewResponse represents a scheduled review in API responses
type ReviewResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	CronExpr       string `json:"cron_expr"`
	IsEnabled      bool   `json:"is_enabled"`
	NextRunAt      int64  `json:"next_run_at"`
	LastRunAt      int64  `json:"last_run_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func reviewToResponse(rv *models.ScheduledReview) ReviewResponse {
	return ReviewResponse{
		ID:             rv.ID.String(),
		OrganizationID: rv.OrganizationID.String(),
		Name:           rv.Name,
		CronExpr:       rv.CronExpr,
		IsEnabled:      rv.IsEnabled,
		NextRunAt:      rv.NextRunAt,
		LastRunAt:      rv.LastRunAt,
		CreatedAt:      rv.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/v1/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())
	pagination := parsePagination(r)

	query := h.store.Query(r.Context(), ac, &models.ScheduledReview{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count reviews"})
		return
	}

	var reviews []models.ScheduledReview
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&reviews).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list reviews"})
		return
	}

	response := make([]ReviewResponse, len(reviews))
	for i, rv := range reviews {
		response[i] = reviewToResponse(&rv)
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Create handles POST /api/v1/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var req CreateReviewRequest
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

	nextRun, err := util.NextCronTime(req.CronExpr, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid cron expression"})
		return
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	record := models.ScheduledReview{
		OrganizationID: orgID,
		Name:           req.Name,
		CronExpr:       req.CronExpr,
		IsEnabled:      enabled,
		NextRunAt:      nextRun.Unix(),
	}

	if err := h.store.Create(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Review")
		return
	}

	writeJSON(w, http.StatusCreated, reviewToResponse(&record))
}

// Get handles GET /api/v1/reviews/:id
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	reviewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid review ID"})
		return
	}

	var record models.ScheduledReview
	if err := h.store.First(r.Context(), ac, &record, reviewID); err != nil {
		writeStoreError(w, err, "Review")
		return
	}

	writeJSON(w, http.StatusOK, reviewToResponse(&record))
}

// Update handles PUT /api/v1/reviews/:id
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	reviewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid review ID"})
		return
	}

	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	var record models.ScheduledReview
	if err := h.store.First(r.Context(), ac, &record, reviewID); err != nil {
		writeStoreError(w, err, "Review")
		return
	}

	if req.Name != nil {
		record.Name = *req.Name
	}
	if req.CronExpr != nil {
		record.CronExpr = *req.CronExpr
		nextRun, err := util.NextCronTime(record.CronExpr, time.Now())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid cron expression"})
			return
		}
		record.NextRunAt = nextRun.Unix()
	}
	if req.IsEnabled != nil {
		record.IsEnabled = *req.IsEnabled
	}

	if err := h.store.Save(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Review")
		return
	}

	writeJSON(w, http.StatusOK, reviewToResponse(&record))
}

// Trigger handles POST /api/v1/reviews/:id/trigger. Runs the review now:
// enqueues a recorrelation and a reclassification for the organization and
// advances the schedule.
func (h *ReviewHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	reviewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid review ID"})
		return
	}

	var record models.ScheduledReview
	if err := h.store.First(r.Context(), ac, &record, reviewID); err != nil {
		writeStoreError(w, err, "Review")
		return
	}

	if h.asynqClient == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Task queue unavailable"})
		return
	}

	recorrelate, err := tasks.NewRecorrelateTask(tasks.RecorrelatePayload{OrganizationID: record.OrganizationID})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create review tasks"})
		return
	}
	reclassify, err := tasks.NewReclassifyTask(tasks.ReclassifyPayload{OrganizationID: record.OrganizationID})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create review tasks"})
		return
	}

	if _, err := h.asynqClient.Enqueue(recorrelate); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue review tasks"})
		return
	}
	if _, err := h.asynqClient.Enqueue(reclassify); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue review tasks"})
		return
	}

	now := time.Now()
	record.LastRunAt = now.Unix()
	if nextRun, err := util.NextCronTime(record.CronExpr, now); err == nil {
		record.NextRunAt = nextRun.Unix()
	}

	if err := h.store.Save(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Review")
		return
	}

	writeJSON(w, http.StatusOK, reviewToResponse(&record))
}

// Delete handles DELETE /api/v1/reviews/:id
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	reviewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid review ID"})
		return
	}

	if err := h.store.Delete(r.Context(), ac, &models.ScheduledReview{}, reviewID); err != nil {
		writeStoreError(w, err, "Review")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Review deleted"})
}
