package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcanvas/backend/pkg/enums"
	"github.com/shopcanvas/backend/pkg/types"
)

// Order is the persisted order header. Total is subtotal plus the flat
// shipping fee captured at creation; the fee itself is back-derived on reads.
type Order struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID        uuid.UUID          `gorm:"column:store_id;type:uuid;not null;index"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Total          decimal.Decimal    `gorm:"column:total;type:numeric(12,3);not null"`
	Status         enums.OrderStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	ShippingInfo   types.ShippingInfo `gorm:"column:shipping_info;type:jsonb;serializer:json"`
	PaymentInfo    types.PaymentInfo  `gorm:"column:payment_info;type:jsonb;serializer:json"`
	TrackingNumber *string            `gorm:"column:tracking_number"`
	Items          []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
