package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
)

// Product is a stocked pharmacy item.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	CategoryID   *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Category     *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Manufacturer string          `gorm:"column:manufacturer;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity     int             `gorm:"column:quantity;not null;default:0"`
	DeliveryDate *types.Date     `gorm:"column:delivery_date;type:date"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// CategoryName returns the linked category's name or an empty string.
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
