package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	internalauth "github.com/shopcanvas/backend/internal/auth"
	"github.com/shopcanvas/backend/internal/cart"
	checkoutsvc "github.com/shopcanvas/backend/internal/checkout"
	"github.com/shopcanvas/backend/internal/notifications"
	"github.com/shopcanvas/backend/internal/orders"
	"github.com/shopcanvas/backend/internal/products"
	"github.com/shopcanvas/backend/internal/stores"
	pkgauth "github.com/shopcanvas/backend/pkg/auth"
	"github.com/shopcanvas/backend/pkg/config"
	"github.com/shopcanvas/backend/pkg/db/models"
	"github.com/shopcanvas/backend/pkg/enums"
	"github.com/shopcanvas/backend/pkg/logger"
	"github.com/shopcanvas/backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input internalauth.RegisterInput) (*internalauth.Session, error) {
	return &internalauth.Session{}, nil
}

func (stubAuthService) Login(ctx context.Context, input internalauth.LoginInput) (*internalauth.Session, error) {
	return &internalauth.Session{}, nil
}

type stubStoresRepo struct{}

func (s stubStoresRepo) WithTx(tx *gorm.DB) stores.Repository {
	return s
}

func (stubStoresRepo) Create(ctx context.Context, store *models.Store) (*models.Store, error) {
	panic("unimplemented")
}

func (stubStoresRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	panic("unimplemented")
}

func (stubStoresRepo) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	return &models.Store{ID: uuid.New(), Slug: slug, IsActive: true}, nil
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, input products.CreateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Update(ctx context.Context, input products.UpdateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Delete(ctx context.Context, productID, storeID uuid.UUID) error {
	panic("unimplemented")
}

func (stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) ListByStore(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]models.Product, error) {
	return []models.Product{}, nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return &cart.Cart{}, nil
}

func (stubCartService) AddToCart(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*cart.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*cart.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveFromCart(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) ClearCart(ctx context.Context, sessionID string) error {
	return nil
}

type stubCheckoutService struct {
	submitFn func(ctx context.Context, input checkoutsvc.SubmitInput) (*orders.OrderDetail, error)
}

func (s stubCheckoutService) Submit(ctx context.Context, input checkoutsvc.SubmitInput) (*orders.OrderDetail, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, input)
	}
	return &orders.OrderDetail{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) GetForShopper(ctx context.Context, orderID, userID uuid.UUID) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForShopper(ctx context.Context, userID uuid.UUID, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{Orders: []orders.OrderSummary{}}, nil
}

func (stubOrdersService) GetForStore(ctx context.Context, orderID, storeID uuid.UUID) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForStore(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{Orders: []orders.OrderSummary{}}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (stubOrdersService) Delete(ctx context.Context, orderID, storeID, actorUserID uuid.UUID) error {
	panic("unimplemented")
}

type stubNotificationsService struct{}

func (stubNotificationsService) RecordInTx(ctx context.Context, tx *gorm.DB, record notifications.Record) error {
	return nil
}

func (stubNotificationsService) ListForStore(ctx context.Context, storeID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, id, storeID uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, checkoutService checkoutsvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	if checkoutService == nil {
		checkoutService = stubCheckoutService{}
	}
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubPinger{},
		nil, // no metrics endpoint in tests
		stubAuthService{},
		stubStoresRepo{},
		stubProductService{},
		stubCartService{},
		checkoutService,
		stubOrdersService{},
		stubNotificationsService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole, storeID *uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:  uuid.New(),
		StoreID: storeID,
		Role:    role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestMerchantGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestMerchantGroupRequiresManagerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)
	storeID := uuid.New()

	shopper := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders", nil)
	shopper.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleShopper, &storeID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, shopper)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for shopper got %d", resp.Code)
	}

	merchant := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders", nil)
	merchant.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleMerchant, &storeID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, merchant)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for merchant got %d", resp.Code)
	}
}

func TestMerchantGroupRequiresStoreContext(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleMerchant, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without store context got %d", resp.Code)
	}
}

func TestCartRequiresSessionHeader(t *testing.T) {
	router := newTestRouter(testConfig(), nil)

	bare := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, bare)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session header got %d", resp.Code)
	}

	withSession := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	withSession.Header.Set("X-Session-Id", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, withSession)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with session header got %d", resp.Code)
	}
}

func TestShopperOrdersListWithToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleShopper, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for shopper orders got %d", resp.Code)
	}
}

func TestCheckoutEmptyCartRedirectsToCart(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubCheckoutService{
		submitFn: func(ctx context.Context, input checkoutsvc.SubmitInput) (*orders.OrderDetail, error) {
			return nil, checkoutsvc.ErrCartEmpty
		},
	})

	body := `{
		"shipping": {
			"name": "Ada Lovelace",
			"address": "12 Analytical Engine Way",
			"city": "London",
			"email": "ada@example.com",
			"phone": "07700900123"
		},
		"payment": {"method": "cod"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", uuid.NewString())
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleShopper, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 for empty cart got %d", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != "/api/v1/cart" {
		t.Fatalf("expected redirect to /api/v1/cart got %q", got)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}
