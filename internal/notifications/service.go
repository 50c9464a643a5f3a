package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopcanvas/backend/pkg/db/models"
	"github.com/shopcanvas/backend/pkg/enums"
	pkgerrors "github.com/shopcanvas/backend/pkg/errors"
)

// Record is the input for writing a notification row.
type Record struct {
	StoreID uuid.UUID
	Type    enums.NotificationType
	Title   string
	Message string
	Link    *string
}

// Service persists and reads merchant-facing notifications. RecordInTx runs on
// the caller's transaction so the notification commits with the change that
// caused it.
type Service interface {
	RecordInTx(ctx context.Context, tx *gorm.DB, record Record) error
	ListForStore(ctx context.Context, storeID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, storeID uuid.UUID) error
}

type service struct {
	db *gorm.DB
}

// NewService builds the notifications service.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &service{db: db}, nil
}

func (s *service) RecordInTx(ctx context.Context, tx *gorm.DB, record Record) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if record.StoreID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	row := models.Notification{
		StoreID: record.StoreID,
		Type:    record.Type,
		Title:   record.Title,
		Message: record.Message,
		Link:    record.Link,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record notification")
	}
	return nil
}

func (s *service) ListForStore(ctx context.Context, storeID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := s.db.WithContext(ctx).Where("store_id = ?", storeID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	var rows []models.Notification
	err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

func (s *service) MarkRead(ctx context.Context, id, storeID uuid.UUID) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND store_id = ? AND read_at IS NULL", id, storeID).
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}
