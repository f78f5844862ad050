package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pharmacy-inventory/internal/categories"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(client)
	require.NoError(t, err)
	return svc, client
}

func datePtr(y int, m time.Month, d int) *types.Date {
	date := types.NewDate(y, m, d)
	return &date
}

func aspirin() ProductInput {
	return ProductInput{
		Name:         "Aspirin",
		Category:     &CategoryRef{Name: "Pain"},
		Manufacturer: "Bayer",
		Price:        decimal.RequireFromString("5.50"),
		Quantity:     10,
		DeliveryDate: datePtr(2024, time.January, 5),
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, aspirin())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Pain", created.Category.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", got.Name)
	assert.Equal(t, "Bayer", got.Manufacturer)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("5.5")), "price %s", got.Price)
	assert.Equal(t, 10, got.Quantity)
	require.NotNil(t, got.DeliveryDate)
	assert.Equal(t, "2024-01-05", got.DeliveryDate.String())
}

func TestCreateReusesNamedCategory(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, aspirin())
	require.NoError(t, err)
	second := aspirin()
	second.Name = "Ibuprofen"
	created, err := svc.Create(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first.Category.ID, created.Category.ID)

	cats, err := categories.NewRepository(client.DB()).List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestCreateWithUnknownCategoryID(t *testing.T) {
	svc, _ := newTestService(t)
	input := aspirin()
	missing := uuid.New()
	input.Category = &CategoryRef{ID: &missing}

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	input := ProductInput{Price: decimal.NewFromInt(-1), Quantity: -3}

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]string)
	for _, field := range []string{"name", "manufacturer", "category", "price", "quantity"} {
		assert.Contains(t, details, field)
	}

	list, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, aspirin())
	require.NoError(t, err)

	input := aspirin()
	input.Name = "Aspirin Forte"
	input.Quantity = 0
	input.DeliveryDate = nil
	input.Category = &CategoryRef{Name: "Analgesics"}
	updated, err := svc.Update(ctx, created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Aspirin Forte", updated.Name)
	assert.Equal(t, 0, updated.Quantity)
	assert.Nil(t, updated.DeliveryDate)
	assert.Equal(t, "Analgesics", updated.Category.Name)

	_, err = svc.Update(ctx, uuid.New(), input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, aspirin())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	err = svc.Delete(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListSearchHistogramAndStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{
		Name: "Aspirin", Category: &CategoryRef{Name: "Pain"}, Manufacturer: "Bayer",
		Price: decimal.NewFromInt(10), Quantity: 2, DeliveryDate: datePtr(2024, time.January, 8),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ProductInput{
		Name: "Vitamin C", Category: &CategoryRef{Name: "Supplements"}, Manufacturer: "Roche",
		Price: decimal.NewFromInt(20), Quantity: 0, DeliveryDate: datePtr(2023, time.December, 20),
	})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Aspirin", all[0].Name)

	found, err := svc.List(ctx, "Bayer")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Aspirin", found[0].Name)

	none, err := svc.List(ctx, "ibuprofen")
	require.NoError(t, err)
	assert.Empty(t, none)

	hist, err := svc.Histogram(ctx, types.NewDate(2024, time.January, 10))
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "2024-01-08", hist[0].Date.String())
	assert.Equal(t, int64(1), hist[0].Count)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats.AveragePrice)
	assert.True(t, stats.AveragePrice.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, stats.AverageStockValue)
	assert.True(t, stats.AverageStockValue.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, int64(2), stats.TotalQuantity)
}

func TestStatsEmptyInventory(t *testing.T) {
	svc, _ := newTestService(t)
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.AveragePrice)
	assert.Nil(t, stats.AverageStockValue)
	assert.Zero(t, stats.Count)
}
