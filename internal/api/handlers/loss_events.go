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
	"github.com/harper/riskhub/pkg/crypto"
)

type LossEventHandler struct {
	store     *access.Store
	encryptor *crypto.Encryptor
}

func NewLossEventHandler(store *access.Store, encryptor *crypto.Encryptor) *LossEventHandler {
	return &LossEventHandler{store: store, encryptor: encryptor}
}

// CreateLossEventRequest represents the request to record a loss event
type CreateLossEventRequest struct {
	OrganizationID string  `json:"organization_id,omitempty"`
	OccurredAt     int64   `json:"occurred_at"`
	Category       string  `json:"category,omitempty"`
	Amount         float64 `json:"amount"`
	Narrative      string  `json:"narrative,omitempty"`
}

func (r CreateLossEventRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.OccurredAt <= 0 {
		errors["occurred_at"] = "Occurrence time is required"
	}
	if r.Amount < 0 {
		errors["amount"] = "Amount cannot be negative"
	}

	return errors
}

// LossEventResponse represents a loss event in API responses. The narrative
// is decrypted for the caller; it never leaves the database in the clear
// otherwise.
type LossEventResponse struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	OccurredAt     int64   `json:"occurred_at"`
	Category       string  `json:"category,omitempty"`
	Amount         float64 `json:"amount"`
	Narrative      string  `json:"narrative,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func (h *LossEventHandler) toResponse(e *models.LossEvent) LossEventResponse {
	resp := LossEventResponse{
		ID:             e.ID.String(),
		OrganizationID: e.OrganizationID.String(),
		OccurredAt:     e.OccurredAt,
		Category:       e.Category,
		Amount:         e.Amount,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
	if e.Narrative != "" {
		if plain, err := h.encryptor.DecryptString(e.Narrative); err == nil {
			resp.Narrative = plain
		}
	}
	return resp
}

// List handles GET /api/v1/loss-events. Narratives are omitted from listings;
// they are only decrypted on single-record reads.
func (h *LossEventHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())
	pagination := parsePagination(r)

	query := h.store.Query(r.Context(), ac, &models.LossEvent{})

	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count loss events"})
		return
	}

	var events []models.LossEvent
	if err := query.
		Order("occurred_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&events).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list loss events"})
		return
	}

	response := make([]LossEventResponse, len(events))
	for i, e := range events {
		response[i] = LossEventResponse{
			ID:             e.ID.String(),
			OrganizationID: e.OrganizationID.String(),
			OccurredAt:     e.OccurredAt,
			Category:       e.Category,
			Amount:         e.Amount,
			CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       response,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages(total, pagination.PerPage),
	})
}

// Create handles POST /api/v1/loss-events
func (h *LossEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var req CreateLossEventRequest
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

	record := models.LossEvent{
		OrganizationID: orgID,
		OccurredAt:     req.OccurredAt,
		Category:       req.Category,
		Amount:         req.Amount,
	}

	if req.Narrative != "" {
		sealed, err := h.encryptor.EncryptString(req.Narrative)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to encrypt narrative"})
			return
		}
		record.Narrative = sealed
	}

	if err := h.store.Create(r.Context(), ac, &record); err != nil {
		writeStoreError(w, err, "Loss event")
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(&record))
}

// Get handles GET /api/v1/loss-events/:id
func (h *LossEventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid loss event ID"})
		return
	}

	var record models.LossEvent
	if err := h.store.First(r.Context(), ac, &record, eventID); err != nil {
		writeStoreError(w, err, "Loss event")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(&record))
}

// Delete handles DELETE /api/v1/loss-events/:id
func (h *LossEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid loss event ID"})
		return
	}

	if err := h.store.Delete(r.Context(), ac, &models.LossEvent{}, eventID); err != nil {
		writeStoreError(w, err, "Loss event")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Loss event deleted"})
}
