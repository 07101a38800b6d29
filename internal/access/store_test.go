package access_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/database/models"
	"github.com/harper/riskhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_FirstOutOfScopeIsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org1 := testutil.CreateTestOrg(t, db)
	org2 := testutil.CreateTestOrg(t, db)
	theirs := testutil.CreateTestRisk(t, db, org2.ID, 3, 3)

	store := access.NewStore(db)
	ac := &access.Context{OrganizationIDs: []uuid.UUID{org1.ID}}

	// Existing row in another org is indistinguishable from a missing row.
	var out models.Risk
	err := store.First(context.Background(), ac, &out, theirs.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)

	err = store.First(context.Background(), ac, &out, uuid.New())
	assert.ErrorIs(t, err, access.ErrNotFound)
}

func TestStore_CreateRejectsForeignOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org1 := testutil.CreateTestOrg(t, db)
	org2 := testutil.CreateTestOrg(t, db)

	store := access.NewStore(db)
	ac := &access.Context{OrganizationIDs: []uuid.UUID{org1.ID}}

	r := &models.Risk{OrganizationID: org2.ID, Title: "smuggled"}
	err := store.Create(context.Background(), ac, r)
	assert.ErrorIs(t, err, access.ErrForbidden)

	var count int64
	db.Model(&models.Risk{}).Count(&count)
	assert.Zero(t, count)
}

func TestStore_DeleteIsScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org1 := testutil.CreateTestOrg(t, db)
	org2 := testutil.CreateTestOrg(t, db)
	theirs := testutil.CreateTestRisk(t, db, org2.ID, 3, 3)

	store := access.NewStore(db)
	ac := &access.Context{OrganizationIDs: []uuid.UUID{org1.ID}}

	err := store.Delete(context.Background(), ac, &models.Risk{}, theirs.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)

	// Row is untouched
	var count int64
	db.Model(&models.Risk{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// The owner can delete it
	owner := &access.Context{OrganizationIDs: []uuid.UUID{org2.ID}}
	err = store.Delete(context.Background(), owner, &models.Risk{}, theirs.ID)
	require.NoError(t, err)
}

func TestStore_UpdatesRejectForeignOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	r := testutil.CreateTestRisk(t, db, org.ID, 3, 3)

	store := access.NewStore(db)
	stranger := &access.Context{}

	err := store.Updates(context.Background(), stranger, r, map[string]interface{}{"title": "tampered"})
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestStore_Organizations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org1 := testutil.CreateTestOrg(t, db)
	testutil.CreateTestOrg(t, db)

	store := access.NewStore(db)

	var orgs []models.Organization
	member := &access.Context{OrganizationIDs: []uuid.UUID{org1.ID}}
	require.NoError(t, store.Organizations(context.Background(), member, &orgs))
	require.Len(t, orgs, 1)
	assert.Equal(t, org1.ID, orgs[0].ID)

	orgs = nil
	super := &access.Context{IsSuperAdmin: true}
	require.NoError(t, store.Organizations(context.Background(), super, &orgs))
	assert.Len(t, orgs, 2)

	orgs = nil
	nobody := &access.Context{}
	require.NoError(t, store.Organizations(context.Background(), nobody, &orgs))
	assert.Empty(t, orgs)
}
