package tasks_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/strategy"
	"github.com/harper/riskhub/internal/tasks"
	"github.com/harper/riskhub/internal/testutil"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler(t *testing.T) (*tasks.Handler, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tasks.NewHandler(tc.DB, logger, nil), tc
}

func recorrelateTask(t *testing.T, payload tasks.RecorrelatePayload) *asynq.Task {
	t.Helper()
	task, err := tasks.NewRecorrelateTask(payload)
	require.NoError(t, err)
	return task
}

func TestHandleRecorrelate(t *testing.T) {
	handler, tc := testHandler(t)
	defer tc.Cleanup()

	so := testutil.CreateTestStrategy(t, tc.DB, tc.Org.ID, strategy.TypeSO, "Build new wings")
	objective := testutil.CreateTestObjective(t, tc.DB, tc.Org.ID,
		strategy.PerspectiveLearningGrowth, "Advance careers")

	err := handler.HandleRecorrelate(context.Background(),
		recorrelateTask(t, tasks.RecorrelatePayload{OrganizationID: tc.Org.ID}))
	require.NoError(t, err)

	var updated models.StrategicObjective
	require.NoError(t, tc.DB.First(&updated, objective.ID).Error)
	require.NotNil(t, updated.StrategyID)
	assert.Equal(t, so.ID, *updated.StrategyID)
	assert.Equal(t, 90, updated.Confidence)
}

func TestHandleRecorrelate_ClearsStaleMatch(t *testing.T) {
	handler, tc := testHandler(t)
	defer tc.Cleanup()

	// A match pointing at a strategy that has since been deleted.
	so := testutil.CreateTestStrategy(t, tc.DB, tc.Org.ID, strategy.TypeSO, "Build new wings")
	objective := testutil.CreateTestObjective(t, tc.DB, tc.Org.ID,
		strategy.PerspectiveLearningGrowth, "Advance careers")
	require.NoError(t, tc.DB.Model(objective).Updates(map[string]interface{}{
		"strategy_id": so.ID,
		"confidence":  90,
	}).Error)
	require.NoError(t, tc.DB.Delete(&models.TowsStrategy{}, so.ID).Error)

	err := handler.HandleRecorrelate(context.Background(),
		recorrelateTask(t, tasks.RecorrelatePayload{OrganizationID: tc.Org.ID}))
	require.NoError(t, err)

	var updated models.StrategicObjective
	require.NoError(t, tc.DB.First(&updated, objective.ID).Error)
	assert.Nil(t, updated.StrategyID)
	assert.Zero(t, updated.Confidence)
}

func TestHandleRecorrelate_ScopedToOrganization(t *testing.T) {
	handler, tc := testHandler(t)
	defer tc.Cleanup()

	otherOrg := testutil.CreateTestOrg(t, tc.DB)
	otherObjective := testutil.CreateTestObjective(t, tc.DB, otherOrg.ID,
		strategy.PerspectiveLearningGrowth, "Advance careers")
	testutil.CreateTestStrategy(t, tc.DB, otherOrg.ID, strategy.TypeSO, "Build new wings")

	// Recorrelating the first org must not touch the other org's rows.
	err := handler.HandleRecorrelate(context.Background(),
		recorrelateTask(t, tasks.RecorrelatePayload{OrganizationID: tc.Org.ID}))
	require.NoError(t, err)

	var untouched models.StrategicObjective
	require.NoError(t, tc.DB.First(&untouched, otherObjective.ID).Error)
	assert.Nil(t, untouched.StrategyID)
}

func TestHandleReclassify(t *testing.T) {
	handler, tc := testHandler(t)
	defer tc.Cleanup()

	risk := testutil.CreateTestRisk(t, tc.DB, tc.Org.ID, 4, 5)

	// Simulate drifted derived fields.
	require.NoError(t, tc.DB.Model(risk).Updates(map[string]interface{}{
		"inherent_value":         7,
		"inherent_level":         "medium",
		"residual_value":         3,
		"residual_level":         "low",
		"probability_percentage": "",
	}).Error)

	task, err := tasks.NewReclassifyTask(tasks.ReclassifyPayload{OrganizationID: tc.Org.ID})
	require.NoError(t, err)

	require.NoError(t, handler.HandleReclassify(context.Background(), task))

	var healed models.Risk
	require.NoError(t, tc.DB.First(&healed, risk.ID).Error)
	assert.Equal(t, 20, healed.Inherent.Value)
	assert.Equal(t, "extreme", string(healed.Inherent.Level))
	assert.Equal(t, 20, healed.Residual.Value)
	assert.Equal(t, "extreme", string(healed.Residual.Level))
	assert.Equal(t, "61-80%", healed.ProbabilityPercentage)
}

func TestHandleReviewTick(t *testing.T) {
	handler, tc := testHandler(t)
	defer tc.Cleanup()

	due := testutil.CreateTestReview(t, tc.DB, tc.Org.ID, "Due", "0 2 * * *")
	require.NoError(t, tc.DB.Model(due).Update("next_run_at", time.Now().Add(-time.Minute).Unix()).Error)

	notDue := testutil.CreateTestReview(t, tc.DB, tc.Org.ID, "Not Due", "0 2 * * *")

	disabled := testutil.CreateTestReview(t, tc.DB, tc.Org.ID, "Disabled", "0 2 * * *")
	require.NoError(t, tc.DB.Model(disabled).Updates(map[string]interface{}{
		"is_enabled":  false,
		"next_run_at": time.Now().Add(-time.Minute).Unix(),
	}).Error)

	require.NoError(t, handler.HandleReviewTick(context.Background(), tasks.NewReviewTickTask()))

	var ran models.ScheduledReview
	require.NoError(t, tc.DB.First(&ran, due.ID).Error)
	assert.NotZero(t, ran.LastRunAt)
	assert.Greater(t, ran.NextRunAt, time.Now().Unix())

	var skipped models.ScheduledReview
	require.NoError(t, tc.DB.First(&skipped, notDue.ID).Error)
	assert.Zero(t, skipped.LastRunAt)

	var stillDisabled models.ScheduledReview
	require.NoError(t, tc.DB.First(&stillDisabled, disabled.ID).Error)
	assert.Zero(t, stillDisabled.LastRunAt)
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	orgID := uuid.New()

	task, err := tasks.NewRecorrelateTask(tasks.RecorrelatePayload{OrganizationID: orgID})
	require.NoError(t, err)
	assert.Equal(t, tasks.TypeRecorrelate, task.Type())

	var payload tasks.RecorrelatePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, orgID, payload.OrganizationID)
}
