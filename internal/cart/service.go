package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcanvas/backend/pkg/db/models"
	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
)

// productLoader is the slice of the product surface the cart needs.
type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service applies cart mutations for one browsing session, persisting after
// every change. Unknown or inactive products are rejected on add; quantities
// above stock are clamped silently. Updating or removing a product the cart
// does not hold is a no-op, not an error.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	AddToCart(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*Cart, error)
	RemoveFromCart(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type service struct {
	store    SessionStore
	products productLoader
}

// NewService builds the cart service.
func NewService(store SessionStore, products productLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart session store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{store: store, products: products}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return s.store.Load(ctx, sessionID)
}

func (s *service) AddToCart(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadSellableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock != nil && *product.Stock == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock")
	}

	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !cart.IsEmpty() && cart.StoreID != product.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart already holds items from another store")
	}
	if cart.IsEmpty() {
		cart.StoreID = product.StoreID
	}

	cart.AddItem(Line{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.Image,
		Price:     product.Price,
		Stock:     product.Stock,
	}, qty)

	if err := s.store.Save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !cart.UpdateQuantity(productID, qty) {
		return cart, nil
	}
	if cart.IsEmpty() {
		cart.StoreID = uuid.Nil
	}
	if err := s.store.Save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) RemoveFromCart(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	cart, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveItem(productID) {
		return cart, nil
	}
	if cart.IsEmpty() {
		cart.StoreID = uuid.Nil
	}
	if err := s.store.Save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return s.store.Clear(ctx, sessionID)
}

func (s *service) loadSellableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}
