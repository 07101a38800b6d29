package access_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	resolver := access.NewResolver(db, nil, access.RoleManager)

	ac, err := resolver.Resolve(context.Background(), access.Principal{ID: user.ID, Email: user.Email})
	require.NoError(t, err)

	assert.Equal(t, user.ID, ac.Principal.ID)
	assert.Equal(t, []uuid.UUID{org.ID}, ac.OrganizationIDs)
	assert.Equal(t, access.RoleManager, ac.Role)
	assert.False(t, ac.IsSuperAdmin)
}

func TestResolver_RepeatedResolves(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	resolver := access.NewResolver(db, nil, access.RoleManager)

	// The membership, role, and superadmin lookups run concurrently and may
	// land on different pool connections. Every resolve must see the same
	// schema and rows.
	for i := 0; i < 200; i++ {
		ac, err := resolver.Resolve(context.Background(), access.Principal{ID: user.ID, Email: user.Email})
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{org.ID}, ac.OrganizationIDs)
	}
}

func TestResolver_MultipleMemberships(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org1 := testutil.CreateTestOrg(t, db)
	org2 := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org1)
	testutil.AddMembership(t, db, user, org2)

	resolver := access.NewResolver(db, nil, access.RoleManager)

	ac, err := resolver.Resolve(context.Background(), access.Principal{ID: user.ID, Email: user.Email})
	require.NoError(t, err)

	assert.Len(t, ac.OrganizationIDs, 2)
	assert.True(t, ac.CanAccess(org1.ID))
	assert.True(t, ac.CanAccess(org2.ID))
	assert.False(t, ac.CanAccess(uuid.New()))
}

func TestResolver_SuperadminByAllowList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	resolver := access.NewResolver(db, []string{user.Email}, access.RoleManager)

	ac, err := resolver.Resolve(context.Background(), access.Principal{ID: user.ID, Email: user.Email})
	require.NoError(t, err)

	assert.True(t, ac.IsSuperAdmin)
	assert.Equal(t, access.RoleSuperadmin, ac.Role)
	// Unrestricted regardless of memberships
	assert.True(t, ac.CanAccess(uuid.New()))
}

func TestResolver_AllowListIsCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)

	resolver := access.NewResolver(db, []string{"OPS@Example.COM"}, access.RoleManager)

	user.Email = "ops@example.com"
	ac, err := resolver.Resolve(context.Background(), access.Principal{ID: user.ID, Email: user.Email})
	require.NoError(t, err)
	assert.True(t, ac.IsSuperAdmin)
}

func TestResolver_SuperadminByRoleRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	require.NoError(t, db.Model(user).Update("role", "superadmin").Error)

	resolver := access.NewResolver(db, nil, access.RoleManager)

	ac, err := resolver.Resolve(context.Background(), access.Principal{ID: user.ID, Email: user.Email})
	require.NoError(t, err)
	assert.True(t, ac.IsSuperAdmin)
	assert.Equal(t, access.RoleSuperadmin, ac.Role)
}

func TestResolver_MissingRoleRecordFallsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db, org)
	require.NoError(t, db.Model(user).Update("role", "").Error)

	resolver := access.NewResolver(db, nil, access.RoleManager)

	ac, err := resolver.Resolve(context.Background(), access.Principal{ID: user.ID, Email: user.Email})
	require.NoError(t, err)
	assert.Equal(t, access.RoleManager, ac.Role)
	assert.False(t, ac.IsSuperAdmin)
}

func TestResolver_UnknownPrincipalHasNoAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)

	resolver := access.NewResolver(db, nil, access.RoleManager)

	// A principal with no user row and no memberships resolves to an empty
	// scope, not an error: "visible to nobody" is a valid terminal state.
	ac, err := resolver.Resolve(context.Background(), access.Principal{ID: uuid.New(), Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Empty(t, ac.OrganizationIDs)
	assert.False(t, ac.IsSuperAdmin)
	assert.Equal(t, access.RoleManager, ac.Role)
	assert.False(t, ac.CanAccess(uuid.New()))
}

func TestFilterCanonicalIDs(t *testing.T) {
	good1 := uuid.New()
	good2 := uuid.New()

	raw := []string{
		good1.String(),
		"",
		"undefined",
		"null",
		"not-a-uuid",
		"zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", // right shape, not hex
		good2.String(),
		good1.String()[:35], // truncated
	}

	ids := access.FilterCanonicalIDs(raw)
	assert.Equal(t, []uuid.UUID{good1, good2}, ids)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, access.RoleAdmin, access.ParseRole("admin"))
	assert.Equal(t, access.RoleViewer, access.ParseRole("viewer"))
	assert.Equal(t, access.RoleUnknown, access.ParseRole("wizard"))
	assert.Equal(t, access.RoleUnknown, access.ParseRole(""))
}

func TestSoleOrganization(t *testing.T) {
	org := uuid.New()

	ac := &access.Context{OrganizationIDs: []uuid.UUID{org}}
	got, ok := ac.SoleOrganization()
	assert.True(t, ok)
	assert.Equal(t, org, got)

	ac = &access.Context{OrganizationIDs: []uuid.UUID{org, uuid.New()}}
	_, ok = ac.SoleOrganization()
	assert.False(t, ok)

	ac = &access.Context{IsSuperAdmin: true, OrganizationIDs: []uuid.UUID{org}}
	_, ok = ac.SoleOrganization()
	assert.False(t, ok)
}
