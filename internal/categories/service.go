package categories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-inventory/pkg/db"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
)

// Service exposes category listing and creation.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	Create(ctx context.Context, name string) (*CategoryDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds the category service.
func NewService(dbClient *db.Client) (Service, error) {
	if dbClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &service{repo: NewRepository(dbClient.DB())}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return FromModels(rows), nil
}

func (s *service) Create(ctx context.Context, name string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.FieldError("name", "name is required")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists").
			WithDetails(map[string]string{"name": "category already exists"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}

	created, err := s.repo.Create(ctx, name)
	if err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists").
				WithDetails(map[string]string{"name": "category already exists"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return FromModel(created), nil
}

// CategoryDTO is the transport shape of a category.
type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func FromModel(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{ID: c.ID.String(), Name: c.Name}
}

func FromModels(rows []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
