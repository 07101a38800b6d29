package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeRecorrelate = "strategy:recorrelate"
	TypeReclassify  = "risk:reclassify"
	TypeReviewTick  = "review:tick"
)

// RecorrelatePayload identifies the organization whose objectives should be
// re-matched against its strategy catalog.
type RecorrelatePayload struct {
	OrganizationID uuid.UUID `json:"organization_id"`
}

func NewRecorrelateTask(payload RecorrelatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRecorrelate, data), nil
}

// ReclassifyPayload identifies the organization whose risks should have their
// derived value and level recomputed from the stored assessment indexes.
type ReclassifyPayload struct {
	OrganizationID uuid.UUID `json:"organization_id"`
}

func NewReclassifyTask(payload ReclassifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReclassify, data), nil
}

// ReviewTickPayload is empty - the tick checks every organization's schedules
type ReviewTickPayload struct{}

func NewReviewTickTask() *asynq.Task {
	return asynq.NewTask(TypeReviewTick, nil)
}
