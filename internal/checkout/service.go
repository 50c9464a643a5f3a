package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcanvas/backend/internal/cart"
	"github.com/shopcanvas/backend/internal/notifications"
	"github.com/shopcanvas/backend/internal/orders"
	"github.com/shopcanvas/backend/pkg/config"
	"github.com/shopcanvas/backend/pkg/db/models"
	"github.com/shopcanvas/backend/pkg/enums"
	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
	"github.com/shopcanvas/backend/pkg/metrics"
	"github.com/shopcanvas/backend/pkg/outbox"
	"github.com/shopcanvas/backend/pkg/types"
)

// ErrCartEmpty signals a checkout attempt with nothing in the cart. The HTTP
// layer answers it with a redirect back to the cart rather than an error page.
var ErrCartEmpty = pkgerrors.New(pkgerrors.CodePrecondition, "cart is empty")

// ShippingForm carries the checkout shipping fields and their submission rules.
// State and zip code are optional.
type ShippingForm struct {
	Name    string `json:"name" validate:"required,min=3"`
	Address string `json:"address" validate:"required,min=5"`
	City    string `json:"city" validate:"required,min=2"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,min=8"`
}

// PaymentForm carries the payment selection. Card sub-fields are accepted only
// for card methods and are never verified against a gateway.
type PaymentForm struct {
	Method      string `json:"method" validate:"required"`
	CardNumber  string `json:"card_number"`
	CardHolder  string `json:"card_holder"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
}

// SubmitInput is a full checkout submission for one session.
type SubmitInput struct {
	SessionID string
	UserID    uuid.UUID
	Shipping  ShippingForm
	Payment   PaymentForm
}

// CreatedEvent is the outbox payload recorded with a new order.
type CreatedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	StoreID   uuid.UUID         `json:"store_id"`
	UserID    uuid.UUID         `json:"user_id"`
	Status    enums.OrderStatus `json:"status"`
	Total     string            `json:"total"`
	ItemCount int               `json:"item_count"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// submitGuard fences double submission per session.
type submitGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Service turns a session cart plus a validated form into a persisted order.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*orders.OrderDetail, error)
}

type service struct {
	carts    cart.SessionStore
	orders   orders.Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notifications.Service
	guard    submitGuard
	guardKey func(sessionID string) string
	metrics  *metrics.CheckoutMetrics
	cfg      config.CheckoutConfig
	validate *validator.Validate
}

// NewService builds the checkout service.
func NewService(
	carts cart.SessionStore,
	ordersRepo orders.Repository,
	tx txRunner,
	publisher outboxPublisher,
	notifier notifications.Service,
	guard submitGuard,
	guardKey func(sessionID string) string,
	m *metrics.CheckoutMetrics,
	cfg config.CheckoutConfig,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart session store required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if guard == nil {
		return nil, fmt.Errorf("submit guard required")
	}
	if guardKey == nil {
		return nil, fmt.Errorf("guard key func required")
	}
	return &service{
		carts:    carts,
		orders:   ordersRepo,
		tx:       tx,
		outbox:   publisher,
		notifier: notifier,
		guard:    guard,
		guardKey: guardKey,
		metrics:  m,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*orders.OrderDetail, error) {
	started := time.Now()
	detail, err := s.submit(ctx, input)
	if err != nil {
		s.metrics.ObserveCheckout("failure", time.Since(started))
		s.metrics.IncCheckoutFailure(failureReason(err))
		return nil, err
	}
	s.metrics.ObserveCheckout("success", time.Since(started))
	s.metrics.IncOrderCreated()
	return detail, nil
}

func (s *service) submit(ctx context.Context, input SubmitInput) (*orders.OrderDetail, error) {
	if input.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	// An empty cart means there is nothing to check out at all; that wins
	// over whatever state the form is in.
	sessionCart, err := s.carts.Load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if sessionCart.IsEmpty() {
		return nil, ErrCartEmpty
	}

	if err := s.validateForms(input); err != nil {
		return nil, err
	}
	paymentInfo, err := buildPaymentInfo(input.Payment)
	if err != nil {
		return nil, err
	}

	won, err := s.guard.SetNX(ctx, s.guardKey(input.SessionID), "1", s.cfg.SubmitGuardWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire submit guard")
	}
	if !won {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
	}

	subtotal := sessionCart.Subtotal()
	total := subtotal.Add(s.cfg.ShippingFeeAmount())

	order := &models.Order{
		StoreID: sessionCart.StoreID,
		UserID:  input.UserID,
		Total:   total,
		Status:  enums.OrderStatusPending,
		ShippingInfo: types.ShippingInfo{
			Name:    strings.TrimSpace(input.Shipping.Name),
			Address: strings.TrimSpace(input.Shipping.Address),
			City:    strings.TrimSpace(input.Shipping.City),
			State:   strings.TrimSpace(input.Shipping.State),
			ZipCode: strings.TrimSpace(input.Shipping.ZipCode),
			Email:   strings.TrimSpace(input.Shipping.Email),
			Phone:   strings.TrimSpace(input.Shipping.Phone),
		},
		PaymentInfo: paymentInfo,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		created, err := repo.CreateHeader(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(sessionCart.Lines))
		for _, line := range sessionCart.Lines {
			items = append(items, models.OrderItem{
				OrderID:      created.ID,
				ProductID:    line.ProductID,
				ProductName:  line.Name,
				ProductImage: line.Image,
				Quantity:     line.Quantity,
				Price:        line.Price,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: enums.MemberRoleShopper.String()},
			Data: CreatedEvent{
				OrderID:   created.ID,
				StoreID:   created.StoreID,
				UserID:    created.UserID,
				Status:    created.Status,
				Total:     created.Total.String(),
				ItemCount: len(items),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		return s.notifier.RecordInTx(ctx, tx, notifications.Record{
			StoreID: created.StoreID,
			Type:    enums.NotificationOrderCreated,
			Title:   "New order received",
			Message: fmt.Sprintf("Order %s for %s", created.ID, created.Total),
		})
	})
	if err != nil {
		// Release the guard so the shopper can retry immediately.
		_ = s.guard.Del(ctx, s.guardKey(input.SessionID))
		return nil, err
	}

	// The order is committed; a stale cart is annoying but recoverable.
	_ = s.carts.Clear(ctx, input.SessionID)

	return orders.DetailFromModel(order), nil
}

func (s *service) validateForms(input SubmitInput) error {
	details := map[string]string{}
	collect := func(err error) {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range errs {
				details[strings.ToLower(fieldErr.Field())] = fieldRuleMessage(fieldErr)
			}
		}
	}
	if err := s.validate.Struct(input.Shipping); err != nil {
		collect(err)
	}
	if err := s.validate.Struct(input.Payment); err != nil {
		collect(err)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout form invalid").WithDetails(details)
	}
	return nil
}

func buildPaymentInfo(form PaymentForm) (types.PaymentInfo, error) {
	method, err := enums.ParsePaymentMethod(form.Method)
	if err != nil {
		return types.PaymentInfo{}, pkgerrors.New(pkgerrors.CodeValidation, "checkout form invalid").
			WithDetails(map[string]string{"method": "must be one of credit_card, debit_card, paypal, cod"})
	}

	info := types.PaymentInfo{Method: method}
	if method.IsCard() {
		info.CardNumber = maskCardNumber(form.CardNumber)
		info.CardHolder = strings.TrimSpace(form.CardHolder)
		info.CardBrand = enums.DetectCardBrand(form.CardNumber)
		info.ExpiryMonth = strings.TrimSpace(form.ExpiryMonth)
		info.ExpiryYear = strings.TrimSpace(form.ExpiryYear)
	}
	return info, nil
}

// maskCardNumber keeps at most the last four digits for display.
func maskCardNumber(raw string) string {
	digits := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if len(digits) <= 4 {
		return digits
	}
	return "**** " + digits[len(digits)-4:]
}

func fieldRuleMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fieldErr.Param())
	default:
		return "invalid"
	}
}

func failureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "unknown"
}
