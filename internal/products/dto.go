package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pharmacy-inventory/internal/categories"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
)

// ProductDTO is the JSON and template shape of a product.
type ProductDTO struct {
	ID           uuid.UUID               `json:"id"`
	Name         string                  `json:"name"`
	Category     *categories.CategoryDTO `json:"category"`
	Manufacturer string                  `json:"manufacturer"`
	Price        decimal.Decimal         `json:"price"`
	Quantity     int                     `json:"quantity"`
	DeliveryDate *types.Date             `json:"deliveryDate"`
}

// CategoryRef points at an existing category by id, or names one that is
// looked up and created when absent.
type CategoryRef struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name,omitempty" validate:"max=120"`
}

// ProductInput is the create/update payload. It accepts the ProductDTO shape
// so a fetched product can be sent back as is; ID is ignored on create and
// must match the path on update.
type ProductInput struct {
	ID           *uuid.UUID      `json:"id,omitempty"`
	Name         string          `json:"name" validate:"required,max=255"`
	Category     *CategoryRef    `json:"category" validate:"required"`
	Manufacturer string          `json:"manufacturer" validate:"required,max=255"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity" validate:"gte=0"`
	DeliveryDate *types.Date     `json:"deliveryDate"`
}

// Stats summarises the whole inventory.
type Stats struct {
	AveragePrice      *decimal.Decimal `json:"averagePrice"`
	AverageStockValue *decimal.Decimal `json:"averageStockValue"`
	Count             int              `json:"count"`
	TotalQuantity     int64            `json:"totalQuantity"`
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Category:     categories.FromModel(p.Category),
		Manufacturer: p.Manufacturer,
		Price:        p.Price,
		Quantity:     p.Quantity,
		DeliveryDate: p.DeliveryDate,
	}
}

func NewProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out
}
