package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/risk"
	"github.com/harper/riskhub/internal/strategy"
	"github.com/harper/riskhub/pkg/util"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type Handler struct {
	db          *gorm.DB
	logger      *slog.Logger
	asynqClient *asynq.Client
}

func NewHandler(db *gorm.DB, logger *slog.Logger, asynqClient *asynq.Client) *Handler {
	return &Handler{
		db:          db,
		logger:      logger,
		asynqClient: asynqClient,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeRecorrelate, h.HandleRecorrelate)
	mux.HandleFunc(TypeReclassify, h.HandleReclassify)
	mux.HandleFunc(TypeReviewTick, h.HandleReviewTick)
}

// HandleRecorrelate re-matches every objective in the organization against
// its current strategy catalog.
func (h *Handler) HandleRecorrelate(ctx context.Context, t *asynq.Task) error {
	var payload RecorrelatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("starting recorrelation", "org_id", payload.OrganizationID)

	var catalog []models.TowsStrategy
	if err := h.db.WithContext(ctx).
		Where("organization_id = ?", payload.OrganizationID).
		Order("created_at ASC").
		Find(&catalog).Error; err != nil {
		return fmt.Errorf("load strategy catalog: %w", err)
	}

	candidates := make([]strategy.Candidate, len(catalog))
	for i, s := range catalog {
		candidates[i] = strategy.Candidate{ID: s.ID, Type: s.Type, Text: s.Text}
	}

	var objectives []models.StrategicObjective
	if err := h.db.WithContext(ctx).
		Where("organization_id = ?", payload.OrganizationID).
		Find(&objectives).Error; err != nil {
		return fmt.Errorf("load objectives: %w", err)
	}

	matched := 0
	for i := range objectives {
		o := &objectives[i]

		match := strategy.BestMatch(strategy.Objective{
			Text:        o.Text,
			Perspective: o.Perspective,
		}, candidates)

		updates := map[string]interface{}{
			"strategy_id": nil,
			"confidence":  0,
		}
		if match != nil {
			updates["strategy_id"] = match.StrategyID
			updates["confidence"] = match.Confidence
			matched++
		}

		if err := h.db.WithContext(ctx).Model(o).Updates(updates).Error; err != nil {
			h.logger.Error("failed to update objective match", "objective_id", o.ID, "error", err)
		}
	}

	h.logger.Info("completed recorrelation",
		"org_id", payload.OrganizationID,
		"objectives", len(objectives),
		"matched", matched,
	)

	return nil
}

// HandleReclassify recomputes the derived value and level of every risk in
// the organization from its stored probability and impact indexes. Heals any
// drift between stored indexes and derived fields.
func (h *Handler) HandleReclassify(ctx context.Context, t *asynq.Task) error {
	var payload ReclassifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("starting reclassification", "org_id", payload.OrganizationID)

	var risks []models.Risk
	if err := h.db.WithContext(ctx).
		Where("organization_id = ?", payload.OrganizationID).
		Find(&risks).Error; err != nil {
		return fmt.Errorf("load risks: %w", err)
	}

	updated := 0
	for i := range risks {
		r := &risks[i]

		inherent, err := risk.Classify(r.Inherent.Probability, r.Inherent.Impact)
		if err != nil {
			h.logger.Error("risk has out-of-range inherent assessment", "risk_id", r.ID, "error", err)
			continue
		}
		residual, err := risk.Classify(r.Residual.Probability, r.Residual.Impact)
		if err != nil {
			h.logger.Error("risk has out-of-range residual assessment", "risk_id", r.ID, "error", err)
			continue
		}
		band, _ := risk.ProbabilityPercentage(inherent.Probability)

		if inherent.Value == r.Inherent.Value && inherent.Level == r.Inherent.Level &&
			residual.Value == r.Residual.Value && residual.Level == r.Residual.Level &&
			band == r.ProbabilityPercentage {
			continue
		}

		updates := map[string]interface{}{
			"inherent_value":         inherent.Value,
			"inherent_level":         inherent.Level,
			"residual_value":         residual.Value,
			"residual_level":         residual.Level,
			"probability_percentage": band,
		}
		if err := h.db.WithContext(ctx).Model(r).Updates(updates).Error; err != nil {
			h.logger.Error("failed to update risk classification", "risk_id", r.ID, "error", err)
			continue
		}
		updated++
	}

	h.logger.Info("completed reclassification",
		"org_id", payload.OrganizationID,
		"risks", len(risks),
		"updated", updated,
	)

	return nil
}

// HandleReviewTick finds due scheduled reviews and enqueues the recorrelation
// and reclassification work for their organizations. Runs periodically via
// the asynq scheduler.
func (h *Handler) HandleReviewTick(ctx context.Context, t *asynq.Task) error {
	now := time.Now()

	var due []models.ScheduledReview
	if err := h.db.WithContext(ctx).
		Where("is_enabled = ? AND next_run_at <= ?", true, now.Unix()).
		Find(&due).Error; err != nil {
		return fmt.Errorf("load due reviews: %w", err)
	}

	if len(due) == 0 {
		return nil
	}

	h.logger.Info("review tick", "due", len(due))

	for i := range due {
		review := &due[i]

		if err := h.enqueueReviewWork(review.OrganizationID); err != nil {
			h.logger.Error("failed to enqueue review work",
				"review_id", review.ID,
				"org_id", review.OrganizationID,
				"error", err,
			)
			continue
		}

		updates := map[string]interface{}{
			"last_run_at": now.Unix(),
		}
		if nextRun, err := util.NextCronTime(review.CronExpr, now); err == nil {
			updates["next_run_at"] = nextRun.Unix()
		} else {
			// Unparseable expression: disable instead of retrying every tick.
			updates["is_enabled"] = false
			h.logger.Error("disabling review with invalid cron expression",
				"review_id", review.ID,
				"cron_expr", review.CronExpr,
			)
		}

		if err := h.db.WithContext(ctx).Model(review).Updates(updates).Error; err != nil {
			h.logger.Error("failed to advance review schedule", "review_id", review.ID, "error", err)
		}
	}

	return nil
}

func (h *Handler) enqueueReviewWork(orgID uuid.UUID) error {
	if h.asynqClient == nil {
		return nil
	}

	recorrelate, err := NewRecorrelateTask(RecorrelatePayload{OrganizationID: orgID})
	if err != nil {
		return err
	}
	reclassify, err := NewReclassifyTask(ReclassifyPayload{OrganizationID: orgID})
	if err != nil {
		return err
	}

	if _, err := h.asynqClient.Enqueue(recorrelate); err != nil {
		return fmt.Errorf("enqueue recorrelate: %w", err)
	}
	if _, err := h.asynqClient.Enqueue(reclassify); err != nil {
		return fmt.Errorf("enqueue reclassify: %w", err)
	}
	return nil
}
