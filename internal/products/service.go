package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-inventory/internal/aggregation"
	"github.com/angelmondragon/pharmacy-inventory/internal/categories"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
)

// Service exposes product management and the inventory summaries.
type Service interface {
	List(ctx context.Context, keyword string) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Histogram(ctx context.Context, asOf types.Date) ([]aggregation.DayCount, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	db   *db.Client
	repo *Repository
}

// NewService builds the product service.
func NewService(dbClient *db.Client) (Service, error) {
	if dbClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &service{db: dbClient, repo: NewRepository(dbClient.DB())}, nil
}

// List returns every product, filtered by keyword when one is given.
func (s *service) List(ctx context.Context, keyword string) ([]ProductDTO, error) {
	rows, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewProductDTOs(aggregation.Search(rows, keyword)), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	var createdID uuid.UUID
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		category, err := resolveCategory(ctx, categories.NewRepository(tx), input.Category)
		if err != nil {
			return err
		}
		product := &models.Product{}
		applyInput(product, input, category)
		created, err := NewRepository(tx).Create(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		createdID = created.ID
		return nil
	}); err != nil {
		return nil, asServiceError(err, "create product")
	}

	return s.Get(ctx, createdID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		product, err := s.find(ctx, txRepo, id)
		if err != nil {
			return err
		}
		category, err := resolveCategory(ctx, categories.NewRepository(tx), input.Category)
		if err != nil {
			return err
		}
		applyInput(product, input, category)
		if _, err := txRepo.Update(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		return nil
	}); err != nil {
		return nil, asServiceError(err, "update product")
	}

	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// Histogram counts deliveries per day in the two weeks up to asOf.
func (s *service) Histogram(ctx context.Context, asOf types.Date) ([]aggregation.DayCount, error) {
	rows, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return aggregation.DeliveryHistogram(rows, asOf), nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		AveragePrice:      aggregation.AveragePrice(rows),
		AverageStockValue: aggregation.AverageStockValue(rows),
		Count:             len(rows),
		TotalQuantity:     aggregation.TotalQuantity(rows),
	}, nil
}

func (s *service) loadAll(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return rows, nil
}

func (s *service) find(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

// resolveCategory links an existing category by id, or looks up and creates
// one by name when no id is given.
func resolveCategory(ctx context.Context, repo *categories.Repository, ref *CategoryRef) (*models.Category, error) {
	if ref.ID != nil {
		category, err := repo.FindByID(ctx, *ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
		}
		return category, nil
	}
	category, err := repo.FindOrCreate(ctx, ref.Name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find or create category")
	}
	return category, nil
}

func normalizeInput(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Manufacturer = strings.TrimSpace(input.Manufacturer)

	details := map[string]string{}
	if input.Name == "" {
		details["name"] = "name is required"
	}
	if input.Manufacturer == "" {
		details["manufacturer"] = "manufacturer is required"
	}
	if input.Category == nil || (input.Category.ID == nil && strings.TrimSpace(input.Category.Name) == "") {
		details["category"] = "category is required"
	}
	if input.Price.IsNegative() {
		details["price"] = "price must not be negative"
	}
	if input.Quantity < 0 {
		details["quantity"] = "quantity must not be negative"
	}
	if len(details) > 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "product is invalid").WithDetails(details)
	}

	input.Price = input.Price.Round(2)
	if input.DeliveryDate != nil && input.DeliveryDate.IsZero() {
		input.DeliveryDate = nil
	}
	return input, nil
}

func applyInput(product *models.Product, input ProductInput, category *models.Category) {
	product.Name = input.Name
	product.Manufacturer = input.Manufacturer
	product.Price = input.Price
	product.Quantity = input.Quantity
	product.DeliveryDate = input.DeliveryDate
	product.CategoryID = &category.ID
	product.Category = category
}

func asServiceError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
