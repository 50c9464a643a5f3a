package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcanvas/backend/pkg/db/models"
	"github.com/shopcanvas/backend/pkg/enums"
	"github.com/shopcanvas/backend/pkg/types"
)

// ItemDetail is one frozen line of an order as returned to clients.
type ItemDetail struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// OrderDetail aggregates the header, items and the money breakdown. Subtotal,
// shipping fee and tax are derived at read time: subtotal from the frozen line
// prices, the fee back-derived as total minus subtotal, tax always zero.
type OrderDetail struct {
	ID             uuid.UUID          `json:"id"`
	StoreID        uuid.UUID          `json:"store_id"`
	UserID         uuid.UUID          `json:"user_id"`
	Status         enums.OrderStatus  `json:"status"`
	ShippingInfo   types.ShippingInfo `json:"shipping_info"`
	PaymentInfo    types.PaymentInfo  `json:"payment_info"`
	TrackingNumber *string            `json:"tracking_number,omitempty"`
	Items          []ItemDetail       `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	ShippingFee    decimal.Decimal    `json:"shipping_fee"`
	Tax            decimal.Decimal    `json:"tax"`
	Total          decimal.Decimal    `json:"total"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// OrderSummary is the list-view projection.
type OrderSummary struct {
	ID         uuid.UUID         `json:"id"`
	StoreID    uuid.UUID         `json:"store_id"`
	Status     enums.OrderStatus `json:"status"`
	Total      decimal.Decimal   `json:"total"`
	TotalItems int               `json:"total_items"`
	CreatedAt  time.Time         `json:"created_at"`
}

// OrderList wraps a page of summaries plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ListFilters narrows the order listing. Status is optional.
type ListFilters struct {
	Status *enums.OrderStatus
}

// DetailFromModel builds the read aggregate from a persisted order.
func DetailFromModel(order *models.Order) *OrderDetail {
	items := make([]ItemDetail, 0, len(order.Items))
	subtotal := decimal.Zero
	for _, item := range order.Items {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, ItemDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			Price:        item.Price,
			LineTotal:    lineTotal,
		})
	}

	shippingFee := order.Total.Sub(subtotal)
	if shippingFee.IsNegative() {
		shippingFee = decimal.Zero
	}

	return &OrderDetail{
		ID:             order.ID,
		StoreID:        order.StoreID,
		UserID:         order.UserID,
		Status:         order.Status,
		ShippingInfo:   order.ShippingInfo,
		PaymentInfo:    order.PaymentInfo,
		TrackingNumber: order.TrackingNumber,
		Items:          items,
		Subtotal:       subtotal,
		ShippingFee:    shippingFee,
		Tax:            decimal.Zero,
		Total:          order.Total,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

func summaryFromModel(order models.Order) OrderSummary {
	totalItems := 0
	for _, item := range order.Items {
		totalItems += item.Quantity
	}
	return OrderSummary{
		ID:         order.ID,
		StoreID:    order.StoreID,
		Status:     order.Status,
		Total:      order.Total,
		TotalItems: totalItems,
		CreatedAt:  order.CreatedAt,
	}
}
