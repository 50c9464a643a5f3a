package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcanvas/backend/internal/notifications"
	"github.com/shopcanvas/backend/pkg/enums"
	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
	"github.com/shopcanvas/backend/pkg/metrics"
	"github.com/shopcanvas/backend/pkg/outbox"
	"github.com/shopcanvas/backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// UpdateStatusInput carries the merchant-driven transition request.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	StoreID        uuid.UUID
	ActorUserID    uuid.UUID
	ActorRole      enums.MemberRole
	NewStatus      enums.OrderStatus
	TrackingNumber *string
}

// StatusChangedEvent is the outbox payload for a status transition.
type StatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	StoreID    uuid.UUID         `json:"store_id"`
	UserID     uuid.UUID         `json:"user_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}

// DeletedEvent is the outbox payload for an order removal.
type DeletedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	StoreID uuid.UUID         `json:"store_id"`
	Status  enums.OrderStatus `json:"status"`
}

// Service exposes order reads and merchant mutations on existing orders.
// Order creation lives in the checkout flow.
type Service interface {
	GetForShopper(ctx context.Context, orderID, userID uuid.UUID) (*OrderDetail, error)
	ListForShopper(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	GetForStore(ctx context.Context, orderID, storeID uuid.UUID) (*OrderDetail, error)
	ListForStore(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetail, error)
	Delete(ctx context.Context, orderID, storeID, actorUserID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notifications.Service
	metrics  *metrics.CheckoutMetrics
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, notifier notifications.Service, m *metrics.CheckoutMetrics) (Service, error) {
	if repo == nil {
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
	return &service{repo: repo, tx: tx, outbox: publisher, notifier: notifier, metrics: m}, nil
}

func (s *service) GetForShopper(ctx context.Context, orderID, userID uuid.UUID) (*OrderDetail, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return DetailFromModel(order), nil
}

func (s *service) ListForShopper(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) GetForStore(ctx context.Context, orderID, storeID uuid.UUID) (*OrderDetail, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	order, err := s.repo.FindByIDForStore(ctx, orderID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return DetailFromModel(order), nil
}

func (s *service) ListForStore(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	list, err := s.repo.ListByStore(ctx, storeID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetail, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDForStore(ctx, input.OrderID, input.StoreID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		from := order.Status
		if from == input.NewStatus {
			detail = DetailFromModel(order)
			return nil
		}
		if !from.CanTransitionTo(input.NewStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]string{
					"from": from.String(),
					"to":   input.NewStatus.String(),
				})
		}

		if err := repo.UpdateStatus(ctx, order.ID, input.NewStatus, input.TrackingNumber); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.NewStatus
		if input.TrackingNumber != nil {
			order.TrackingNumber = input.TrackingNumber
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input.ActorUserID, input.StoreID, input.ActorRole),
			Data: StatusChangedEvent{
				OrderID:    order.ID,
				StoreID:    order.StoreID,
				UserID:     order.UserID,
				FromStatus: from,
				ToStatus:   input.NewStatus,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		if err := s.notifier.RecordInTx(ctx, tx, notifications.Record{
			StoreID: order.StoreID,
			Type:    enums.NotificationOrderStatusChanged,
			Title:   "Order status updated",
			Message: fmt.Sprintf("Order %s moved from %s to %s", order.ID, from, input.NewStatus),
		}); err != nil {
			return err
		}

		s.metrics.IncStatusTransition(input.NewStatus.String())
		detail = DetailFromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) Delete(ctx context.Context, orderID, storeID, actorUserID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDForStore(ctx, orderID, storeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		affected, err := repo.Delete(ctx, orderID, storeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actorUserID, storeID, enums.MemberRoleMerchant),
			Data: DeletedEvent{
				OrderID: order.ID,
				StoreID: order.StoreID,
				Status:  order.Status,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		return s.notifier.RecordInTx(ctx, tx, notifications.Record{
			StoreID: order.StoreID,
			Type:    enums.NotificationOrderDeleted,
			Title:   "Order deleted",
			Message: fmt.Sprintf("Order %s was removed", order.ID),
		})
	})
}

func actorRef(userID, storeID uuid.UUID, role enums.MemberRole) *outbox.ActorRef {
	store := storeID
	return &outbox.ActorRef{
		UserID:  userID,
		StoreID: &store,
		Role:    role.String(),
	}
}
