package access

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/database/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// canonicalID is the strict 36-character hyphenated hexadecimal shape.
// Membership rows failing it are dropped silently: corrupt upstream ids
// (empty strings, "undefined", truncated values) must never widen or fail a
// scope decision.
var canonicalID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Resolver turns a verified principal into an access Context. The three
// facts it needs (organization ids, superadmin flag, role) are independent
// and fetched concurrently.
type Resolver struct {
	db          *gorm.DB
	superadmins map[string]struct{}
	defaultRole Role
}

func NewResolver(db *gorm.DB, superadminEmails []string, defaultRole Role) *Resolver {
	allow := make(map[string]struct{}, len(superadminEmails))
	for _, email := range superadminEmails {
		allow[strings.ToLower(email)] = struct{}{}
	}
	if defaultRole == "" {
		defaultRole = RoleManager
	}
	return &Resolver{
		db:          db,
		superadmins: allow,
		defaultRole: defaultRole,
	}
}

// Resolve builds the access Context for a principal. A missing role record
// falls back to the default role and never fails the request; a failed
// membership or role query fails the whole request rather than degrading to
// a guessed scope.
func (r *Resolver) Resolve(ctx context.Context, principal Principal) (*Context, error) {
	var (
		orgIDs  []uuid.UUID
		role    Role
		isSuper bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ids, err := r.membershipOrgIDs(gctx, principal.ID)
		if err != nil {
			return fmt.Errorf("resolving memberships: %w", err)
		}
		orgIDs = ids
		return nil
	})

	g.Go(func() error {
		resolved, err := r.resolveRole(gctx, principal.ID)
		if err != nil {
			return fmt.Errorf("resolving role: %w", err)
		}
		role = resolved
		return nil
	})

	g.Go(func() error {
		super, err := r.resolveSuperadmin(gctx, principal)
		if err != nil {
			return fmt.Errorf("resolving superadmin flag: %w", err)
		}
		isSuper = super
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if isSuper {
		role = RoleSuperadmin
	}

	return &Context{
		Principal:       principal,
		OrganizationIDs: orgIDs,
		Role:            role,
		IsSuperAdmin:    isSuper,
	}, nil
}

// membershipOrgIDs fetches the raw membership rows and keeps only ids with
// the canonical shape.
func (r *Resolver) membershipOrgIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var raw []string
	err := r.db.WithContext(ctx).
		Model(&models.OrgMembership{}).
		Where("user_id = ?", userID).
		Pluck("organization_id", &raw).Error
	if err != nil {
		return nil, err
	}
	return FilterCanonicalIDs(raw), nil
}

// FilterCanonicalIDs parses the ids that match the canonical 36-character
// hyphenated hexadecimal shape and drops everything else.
func FilterCanonicalIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if !canonicalID.MatchString(s) {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// resolveRole looks up the user's explicit role record. No record, an
// inactive row, or an empty literal all resolve to the default role.
func (r *Resolver) resolveRole(ctx context.Context, userID uuid.UUID) (Role, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("role").
		First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.defaultRole, nil
	}
	if err != nil {
		return RoleUnknown, err
	}
	if user.Role == "" {
		return r.defaultRole, nil
	}
	return ParseRole(user.Role), nil
}

// resolveSuperadmin grants superadmin when the principal's email is on the
// operator allow-list, or when the explicit role record is the literal
// "superadmin".
func (r *Resolver) resolveSuperadmin(ctx context.Context, principal Principal) (bool, error) {
	if _, ok := r.superadmins[strings.ToLower(principal.Email)]; ok {
		return true, nil
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Select("role").
		First(&user, principal.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return Role(user.Role) == RoleSuperadmin, nil
}
