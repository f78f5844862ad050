// Package aggregation derives search results and summary figures from an
// already-loaded product list. Every function is pure and safe for
// concurrent use.
package aggregation

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
)

// HistogramWindowDays is how far back DeliveryHistogram looks from asOf.
const HistogramWindowDays = 14

// DayCount is one bucket of the delivery histogram.
type DayCount struct {
	Date  types.Date `json:"date"`
	Count int64      `json:"count"`
}

// Search keeps the products whose name, category name, manufacturer or
// delivery date contain keyword. Matching is case-sensitive and an empty
// keyword returns products unchanged.
func Search(products []models.Product, keyword string) []models.Product {
	if keyword == "" {
		return products
	}
	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(searchText(p), keyword) {
			matched = append(matched, p)
		}
	}
	return matched
}

func searchText(p models.Product) string {
	delivery := ""
	if p.DeliveryDate != nil {
		delivery = p.DeliveryDate.String()
	}
	return p.Name + " " + p.CategoryName() + " " + p.Manufacturer + " " + delivery
}

// DeliveryHistogram counts products per delivery date over the inclusive
// window [asOf-14d, asOf]. Each product adds one regardless of quantity.
// Buckets are sorted by date and days without deliveries are omitted.
func DeliveryHistogram(products []models.Product, asOf types.Date) []DayCount {
	start := asOf.AddDays(-HistogramWindowDays)
	buckets := make(map[string]*DayCount)
	for _, p := range products {
		if p.DeliveryDate == nil || p.DeliveryDate.IsZero() {
			continue
		}
		day := *p.DeliveryDate
		if day.Before(start) || day.After(asOf) {
			continue
		}
		key := day.String()
		if b, ok := buckets[key]; ok {
			b.Count++
			continue
		}
		buckets[key] = &DayCount{Date: day, Count: 1}
	}

	out := make([]DayCount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// AveragePrice is the arithmetic mean of all prices, or nil for no products.
func AveragePrice(products []models.Product) *decimal.Decimal {
	if len(products) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, p := range products {
		sum = sum.Add(p.Price)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(products))))
	return &avg
}

// AverageStockValue is the mean of price*quantity over products that are in
// stock, or nil when nothing is.
func AverageStockValue(products []models.Product) *decimal.Decimal {
	sum := decimal.Zero
	var n int64
	for _, p := range products {
		if p.Quantity <= 0 {
			continue
		}
		sum = sum.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum.Div(decimal.NewFromInt(n))
	return &avg
}

// TotalQuantity sums the units on hand.
func TotalQuantity(products []models.Product) int64 {
	var total int64
	for _, p := range products {
		total += int64(p.Quantity)
	}
	return total
}

// TotalCount sums the histogram buckets.
func TotalCount(buckets []DayCount) int64 {
	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	return total
}
