package roles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
)

// Repository exposes role persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a roles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByName returns gorm.ErrRecordNotFound when the role is not configured.
func (r *Repository) FindByName(ctx context.Context, name enums.RoleName) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// Ensure returns the role called name, inserting it first when absent. A
// row inserted concurrently by another transaction wins; the insert is a
// no-op on conflict so the surrounding transaction stays usable.
func (r *Repository) Ensure(ctx context.Context, name enums.RoleName) (*models.Role, error) {
	role := &models.Role{ID: uuid.New(), Name: name}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(role).Error; err != nil {
		return nil, err
	}
	return r.FindByName(ctx, name)
}
