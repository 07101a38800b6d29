package handlers

import (
	"net/http"

	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/api/dto"
	"github.com/harper/riskhub/internal/api/middleware"
	"github.com/harper/riskhub/internal/database/models"
)

type OrganizationHandler struct {
	store *access.Store
}

func NewOrganizationHandler(store *access.Store) *OrganizationHandler {
	return &OrganizationHandler{store: store}
}

type OrganizationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// List handles GET /api/v1/organizations. Superadmin sees every organization;
// everyone else sees only their memberships.
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := middleware.GetAccessContext(r.Context())

	var orgs []models.Organization
	if err := h.store.Organizations(r.Context(), ac, &orgs); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list organizations"})
		return
	}

	response := make([]OrganizationResponse, len(orgs))
	for i, org := range orgs {
		response[i] = OrganizationResponse{
			ID:   org.ID.String(),
			Name: org.Name,
			Code: org.Code,
		}
	}

	writeJSON(w, http.StatusOK, response)
}
