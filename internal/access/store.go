package access

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Owned is implemented by every organization-scoped model.
type Owned interface {
	OwnerOrganization() uuid.UUID
}

// Store is the only data path handlers get. Every method takes an access
// Context, so a query that skips scoping cannot be written.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Query starts a scoped query for listing and counting. Callers chain their
// own filters and pagination onto the returned builder.
func (s *Store) Query(ctx context.Context, ac *Context, model interface{}) *gorm.DB {
	return s.db.WithContext(ctx).Model(model).Scopes(Scope(ac, OwnerColumn))
}

// First loads one row by id within the caller's scope. A row that exists but
// belongs to another organization surfaces as ErrNotFound.
func (s *Store) First(ctx context.Context, ac *Context, dest interface{}, id uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Scopes(Scope(ac, OwnerColumn)).
		Where("id = ?", id).
		First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Create inserts a record after verifying the caller may write into its
// owning organization.
func (s *Store) Create(ctx context.Context, ac *Context, record Owned) error {
	if !ac.CanAccess(record.OwnerOrganization()) {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Create(record).Error
}

// Save persists changes to a record already loaded through this store. The
// ownership check guards against a handler mutating the owning column.
func (s *Store) Save(ctx context.Context, ac *Context, record Owned) error {
	if !ac.CanAccess(record.OwnerOrganization()) {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Save(record).Error
}

// Updates applies a column map to a loaded record, with the same ownership
// guard as Save.
func (s *Store) Updates(ctx context.Context, ac *Context, record Owned, updates map[string]interface{}) error {
	if !ac.CanAccess(record.OwnerOrganization()) {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Model(record).Updates(updates).Error
}

// Delete removes a row by id within the caller's scope. Deleting a row the
// caller cannot see reports ErrNotFound, same as a row that never existed.
func (s *Store) Delete(ctx context.Context, ac *Context, model interface{}, id uuid.UUID) error {
	tx := s.db.WithContext(ctx).
		Scopes(Scope(ac, OwnerColumn)).
		Where("id = ?", id).
		Delete(model)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Organizations lists the organizations visible to the caller: all of them
// for superadmin, otherwise the caller's memberships. The organizations
// table is keyed by id rather than an owner column, so it gets its own
// query instead of Scope.
func (s *Store) Organizations(ctx context.Context, ac *Context, dest interface{}) error {
	tx := s.db.WithContext(ctx)
	if ac.IsSuperAdmin {
		return tx.Order("name").Find(dest).Error
	}
	if len(ac.OrganizationIDs) == 0 {
		return tx.Where("id = ?", uuid.Nil).Find(dest).Error
	}
	return tx.Where("id IN ?", ac.OrganizationIDs).Order("name").Find(dest).Error
}
