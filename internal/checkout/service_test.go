package checkout

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

	"github.com/shopcanvas/backend/internal/cart"
	"github.com/shopcanvas/backend/internal/notifications"
	"github.com/shopcanvas/backend/internal/orders"
	"github.com/shopcanvas/backend/pkg/config"
	"github.com/shopcanvas/backend/pkg/db/models"
	"github.com/shopcanvas/backend/pkg/enums"
	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
	"github.com/shopcanvas/backend/pkg/outbox"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
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
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  product_image TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type memorySessionStore struct {
	carts map[string]*cart.Cart
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{carts: map[string]*cart.Cart{}}
}

func (m *memorySessionStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	if c, ok := m.carts[sessionID]; ok {
		clone := *c
		clone.Lines = append([]cart.Line(nil), c.Lines...)
		return &clone, nil
	}
	return &cart.Cart{}, nil
}

func (m *memorySessionStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	m.carts[sessionID] = c
	return nil
}

func (m *memorySessionStore) Clear(ctx context.Context, sessionID string) error {
	delete(m.carts, sessionID)
	return nil
}

type memoryGuard struct {
	held map[string]bool
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{held: map[string]bool{}}
}

func (g *memoryGuard) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *memoryGuard) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(g.held, key)
	}
	return nil
}

// failingItemsRepo lets the header insert succeed and then fails the item
// insert, exercising the rollback path.
type failingItemsRepo struct {
	orders.Repository
}

func (f failingItemsRepo) WithTx(tx *gorm.DB) orders.Repository {
	return failingItemsRepo{Repository: f.Repository.WithTx(tx)}
}

func (f failingItemsRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return fmt.Errorf("simulated insert failure")
}

type checkoutFixture struct {
	svc      Service
	db       *gorm.DB
	sessions *memorySessionStore
	guard    *memoryGuard
}

func newCheckoutFixture(t *testing.T, repoWrap func(orders.Repository) orders.Repository) *checkoutFixture {
	t.Helper()

	db := setupCheckoutTestDB(t)
	sessions := newMemorySessionStore()
	guard := newMemoryGuard()
	notifier, err := notifications.NewService(db)
	require.NoError(t, err)

	repo := orders.NewRepository(db)
	if repoWrap != nil {
		repo = repoWrap(repo)
	}

	cfg := config.CheckoutConfig{
		ShippingFee:       "2.000",
		CartTTL:           time.Hour,
		SubmitGuardWindow: 10 * time.Second,
	}
	require.NoError(t, cfg.ParseShippingFee())

	svc, err := NewService(
		sessions,
		repo,
		gormTxRunner{db: db},
		outbox.NewService(nil),
		notifier,
		guard,
		func(sessionID string) string { return "guard:" + sessionID },
		nil,
		cfg,
	)
	require.NoError(t, err)
	return &checkoutFixture{svc: svc, db: db, sessions: sessions, guard: guard}
}

func seedCart(t *testing.T, sessions *memorySessionStore, sessionID string) uuid.UUID {
	t.Helper()

	storeID := uuid.New()
	stock := 45
	c := &cart.Cart{StoreID: storeID}
	priceA, err := decimal.NewFromString("29.990")
	require.NoError(t, err)
	priceB, err := decimal.NewFromString("49.990")
	require.NoError(t, err)
	c.AddItem(cart.Line{ProductID: uuid.New(), Name: "Hoodie", Image: "hoodie.png", Price: priceA, Stock: &stock}, 2)
	c.AddItem(cart.Line{ProductID: uuid.New(), Name: "Poster", Image: "poster.png", Price: priceB}, 1)
	require.NoError(t, sessions.Save(context.Background(), sessionID, c))
	return storeID
}

func validInput(sessionID string) SubmitInput {
	return SubmitInput{
		SessionID: sessionID,
		UserID:    uuid.New(),
		Shipping: ShippingForm{
			Name:    "Ada Lovelace",
			Address: "12 Analytical Way",
			City:    "London",
			Email:   "ada@example.com",
			Phone:   "07000000001",
		},
		Payment: PaymentForm{
			Method:      "credit_card",
			CardNumber:  "4111 1111 1111 1111",
			CardHolder:  "Ada Lovelace",
			ExpiryMonth: "12",
			ExpiryYear:  "2030",
		},
	}
}

func TestSubmitEmptyCartReturnsPrecondition(t *testing.T) {
	fx := newCheckoutFixture(t, nil)

	_, err := fx.svc.Submit(context.Background(), validInput("sess-empty"))
	require.ErrorIs(t, err, ErrCartEmpty)

	var orderRows int64
	require.NoError(t, fx.db.Model(&models.Order{}).Count(&orderRows).Error)
	assert.Zero(t, orderRows)
}

func TestSubmitEmptyCartWinsOverInvalidForm(t *testing.T) {
	fx := newCheckoutFixture(t, nil)

	input := validInput("sess-empty")
	input.Shipping.Name = ""
	input.Shipping.Email = "not-an-email"

	_, err := fx.svc.Submit(context.Background(), input)
	require.ErrorIs(t, err, ErrCartEmpty)
}

func TestSubmitRejectsInvalidForm(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	seedCart(t, fx.sessions, "sess-1")

	input := validInput("sess-1")
	input.Shipping.Name = "Al"
	input.Shipping.Email = "not-an-email"
	input.Shipping.Phone = "1234"

	_, err := fx.svc.Submit(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "phone")
}

func TestSubmitRejectsUnknownPaymentMethod(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	seedCart(t, fx.sessions, "sess-1")

	input := validInput("sess-1")
	input.Payment.Method = "wire_transfer"

	_, err := fx.svc.Submit(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSubmitCreatesOrderWithFrozenTotals(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	storeID := seedCart(t, fx.sessions, "sess-1")
	input := validInput("sess-1")

	detail, err := fx.svc.Submit(context.Background(), input)
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, detail.ID)
	assert.Equal(t, enums.OrderStatusPending, detail.Status)
	assert.Equal(t, storeID, detail.StoreID)
	assert.Equal(t, input.UserID, detail.UserID)
	require.Len(t, detail.Items, 2)
	assert.True(t, detail.Subtotal.Equal(mustAmount(t, "109.970")), "subtotal = %s", detail.Subtotal)
	assert.True(t, detail.ShippingFee.Equal(mustAmount(t, "2.000")), "fee = %s", detail.ShippingFee)
	assert.True(t, detail.Total.Equal(mustAmount(t, "111.970")), "total = %s", detail.Total)
	assert.True(t, detail.Tax.IsZero())

	// Payment snapshot: masked card, cosmetic brand.
	assert.Equal(t, enums.PaymentMethodCreditCard, detail.PaymentInfo.Method)
	assert.Equal(t, "**** 1111", detail.PaymentInfo.CardNumber)
	assert.Equal(t, enums.CardBrandVisa, detail.PaymentInfo.CardBrand)

	// Persisted rows carry the generated id, and the items reference it.
	var storedOrder models.Order
	require.NoError(t, fx.db.Where("id = ?", detail.ID).First(&storedOrder).Error)
	var linkedItems int64
	require.NoError(t, fx.db.Model(&models.OrderItem{}).Where("order_id = ?", detail.ID).Count(&linkedItems).Error)
	assert.Equal(t, int64(2), linkedItems)

	var orderRows, itemRows, outboxRows, notificationRows int64
	require.NoError(t, fx.db.Model(&models.Order{}).Count(&orderRows).Error)
	require.NoError(t, fx.db.Model(&models.OrderItem{}).Count(&itemRows).Error)
	require.NoError(t, fx.db.Model(&models.OutboxEvent{}).Count(&outboxRows).Error)
	require.NoError(t, fx.db.Model(&models.Notification{}).Count(&notificationRows).Error)
	assert.Equal(t, int64(1), orderRows)
	assert.Equal(t, int64(2), itemRows)
	assert.Equal(t, int64(1), outboxRows)
	assert.Equal(t, int64(1), notificationRows)

	// The session cart is gone after a committed checkout.
	saved, err := fx.sessions.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, saved.IsEmpty())
}

func TestSubmitRollsBackHeaderWhenItemsFail(t *testing.T) {
	fx := newCheckoutFixture(t, func(repo orders.Repository) orders.Repository {
		return failingItemsRepo{Repository: repo}
	})
	seedCart(t, fx.sessions, "sess-1")

	_, err := fx.svc.Submit(context.Background(), validInput("sess-1"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	var orderRows, itemRows int64
	require.NoError(t, fx.db.Model(&models.Order{}).Count(&orderRows).Error)
	require.NoError(t, fx.db.Model(&models.OrderItem{}).Count(&itemRows).Error)
	assert.Zero(t, orderRows, "header must roll back with the items")
	assert.Zero(t, itemRows)

	// Cart survives a failed checkout, and the guard is released for retry.
	saved, err := fx.sessions.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.False(t, saved.IsEmpty())
	assert.False(t, fx.guard.held["guard:sess-1"])
}

func TestSubmitGuardBlocksDoubleSubmission(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	seedCart(t, fx.sessions, "sess-1")
	fx.guard.held["guard:sess-1"] = true

	_, err := fx.svc.Submit(context.Background(), validInput("sess-1"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func mustAmount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
