package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopcanvas/backend/pkg/db/models"
	"github.com/shopcanvas/backend/pkg/enums"
	"github.com/shopcanvas/backend/pkg/pagination"
	"github.com/shopcanvas/backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  total TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  shipping_info TEXT,
  payment_info TEXT,
  tracking_number TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  product_image TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME
);`
	outboxEvents := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME
);`
	notificationsTable := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`

	for _, stmt := range []string{ordersTable, orderItems, outboxEvents, notificationsTable} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func createTestOrder(t *testing.T, db *gorm.DB, userID, storeID uuid.UUID, total string, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:      uuid.New(),
		StoreID: storeID,
		UserID:  userID,
		Total:   amount(t, total),
		Status:  status,
		ShippingInfo: types.ShippingInfo{
			Name: "Ada Lovelace", Address: "12 Analytical Way", City: "London",
			Email: "ada@example.com", Phone: "07000000001",
		},
		PaymentInfo: types.PaymentInfo{Method: enums.PaymentMethodCOD},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Omit("Items").Create(order).Error)
	return order
}

func createTestItem(t *testing.T, db *gorm.DB, orderID uuid.UUID, name, price string, qty int) {
	t.Helper()

	item := &models.OrderItem{
		ID:           uuid.New(),
		OrderID:      orderID,
		ProductID:    uuid.New(),
		ProductName:  name,
		ProductImage: "https://cdn.example.com/" + name + ".png",
		Quantity:     qty,
		Price:        amount(t, price),
	}
	require.NoError(t, db.Create(item).Error)
}

func TestCreateHeaderAndItemsInOneTransaction(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	storeID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		scoped := repo.WithTx(tx)
		order, err := scoped.CreateHeader(context.Background(), &models.Order{
			ID:      uuid.New(),
			StoreID: storeID,
			UserID:  userID,
			Total:   amount(t, "111.970"),
			Status:  enums.OrderStatusPending,
		})
		if err != nil {
			return err
		}
		return scoped.CreateItems(context.Background(), []models.OrderItem{
			{ID: uuid.New(), OrderID: order.ID, ProductID: uuid.New(), ProductName: "A", ProductImage: "a.png", Quantity: 2, Price: amount(t, "29.990")},
			{ID: uuid.New(), OrderID: order.ID, ProductID: uuid.New(), ProductName: "B", ProductImage: "b.png", Quantity: 1, Price: amount(t, "49.990")},
		})
	})
	require.NoError(t, err)

	var orderRows, itemRows int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderRows).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&itemRows).Error)
	assert.Equal(t, int64(1), orderRows)
	assert.Equal(t, int64(2), itemRows)
}

func TestCreateHeaderAssignsIDWhenAbsent(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order, err := repo.CreateHeader(context.Background(), &models.Order{
		StoreID: uuid.New(),
		UserID:  uuid.New(),
		Total:   amount(t, "111.970"),
		Status:  enums.OrderStatusPending,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, order.ID)

	require.NoError(t, repo.CreateItems(context.Background(), []models.OrderItem{
		{OrderID: order.ID, ProductID: uuid.New(), ProductName: "A", ProductImage: "a.png", Quantity: 2, Price: amount(t, "29.990")},
		{OrderID: order.ID, ProductID: uuid.New(), ProductName: "B", ProductImage: "b.png", Quantity: 1, Price: amount(t, "49.990")},
	}))

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	for _, item := range loaded.Items {
		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.Equal(t, order.ID, item.OrderID)
	}
}

func TestItemsLoadOldestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := createTestOrder(t, db, uuid.New(), uuid.New(), "111.970", enums.OrderStatusPending, time.Now().UTC())

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// Inserted newest-first to make sure the read path sorts, not the insert.
	for i, name := range []string{"third", "second", "first"} {
		item := &models.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    uuid.New(),
			ProductName:  name,
			ProductImage: name + ".png",
			Quantity:     1,
			Price:        amount(t, "5.000"),
			CreatedAt:    base.Add(time.Duration(2-i) * time.Minute),
		}
		require.NoError(t, db.Create(item).Error)
	}

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 3)
	assert.Equal(t, "first", loaded.Items[0].ProductName)
	assert.Equal(t, "second", loaded.Items[1].ProductName)
	assert.Equal(t, "third", loaded.Items[2].ProductName)
}

func TestDetailDerivesSubtotalFeeAndTax(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := createTestOrder(t, db, uuid.New(), uuid.New(), "111.970", enums.OrderStatusPending, time.Now().UTC())
	createTestItem(t, db, order.ID, "hoodie", "29.990", 2)
	createTestItem(t, db, order.ID, "poster", "49.990", 1)

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	detail := DetailFromModel(loaded)

	assert.True(t, detail.Subtotal.Equal(amount(t, "109.970")), "subtotal = %s", detail.Subtotal)
	assert.True(t, detail.ShippingFee.Equal(amount(t, "2.000")), "fee = %s", detail.ShippingFee)
	assert.True(t, detail.Tax.IsZero())
	assert.True(t, detail.Total.Equal(amount(t, "111.970")))
	require.Len(t, detail.Items, 2)
	assert.True(t, detail.Items[0].LineTotal.Equal(amount(t, "59.980")))
}

func TestDetailToleratesZeroItemOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := createTestOrder(t, db, uuid.New(), uuid.New(), "2.000", enums.OrderStatusPending, time.Now().UTC())

	loaded, err := repo.FindByIDForUser(context.Background(), order.ID, order.UserID)
	require.NoError(t, err)
	detail := DetailFromModel(loaded)

	assert.NotNil(t, detail.Items)
	assert.Empty(t, detail.Items)
	assert.True(t, detail.Subtotal.IsZero())
	assert.True(t, detail.ShippingFee.Equal(amount(t, "2.000")))
}

func TestListByUserPaginationAndStatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	storeID := uuid.New()
	now := time.Now().UTC()

	oldest := createTestOrder(t, db, userID, storeID, "10.000", enums.OrderStatusDelivered, now.Add(-2*time.Hour))
	middle := createTestOrder(t, db, userID, storeID, "20.000", enums.OrderStatusPending, now.Add(-time.Hour))
	newest := createTestOrder(t, db, userID, storeID, "30.000", enums.OrderStatusPending, now)
	createTestOrder(t, db, uuid.New(), storeID, "40.000", enums.OrderStatusPending, now) // other shopper
	createTestItem(t, db, newest.ID, "hoodie", "10.000", 3)

	first, err := repo.ListByUser(context.Background(), userID, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, newest.ID, first.Orders[0].ID)
	assert.Equal(t, 3, first.Orders[0].TotalItems)
	assert.Equal(t, middle.ID, first.Orders[1].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListByUser(context.Background(), userID, pagination.Params{Limit: 2, Cursor: first.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, oldest.ID, second.Orders[0].ID)
	assert.Empty(t, second.NextCursor)

	pending := enums.OrderStatusPending
	filtered, err := repo.ListByUser(context.Background(), userID, pagination.Params{}, ListFilters{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, filtered.Orders, 2)
}

func TestListByStoreScopesToTenant(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	storeID := uuid.New()
	now := time.Now().UTC()

	createTestOrder(t, db, uuid.New(), storeID, "10.000", enums.OrderStatusPending, now)
	createTestOrder(t, db, uuid.New(), uuid.New(), "20.000", enums.OrderStatusPending, now)

	list, err := repo.ListByStore(context.Background(), storeID, pagination.Params{}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, storeID, list.Orders[0].StoreID)
}

func TestDeleteScopedToStore(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	storeID := uuid.New()
	order := createTestOrder(t, db, uuid.New(), storeID, "10.000", enums.OrderStatusPending, time.Now().UTC())
	createTestItem(t, db, order.ID, "hoodie", "10.000", 1)

	affected, err := repo.Delete(context.Background(), order.ID, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.Delete(context.Background(), order.ID, storeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var itemRows int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemRows).Error)
	assert.Zero(t, itemRows)
}

func TestUpdateStatusWritesTracking(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := createTestOrder(t, db, uuid.New(), uuid.New(), "10.000", enums.OrderStatusProcessing, time.Now().UTC())

	tracking := "TRK-123"
	require.NoError(t, repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped, &tracking))

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, loaded.Status)
	require.NotNil(t, loaded.TrackingNumber)
	assert.Equal(t, tracking, *loaded.TrackingNumber)
}
