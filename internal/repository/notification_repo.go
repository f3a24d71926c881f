package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kursadbilgin/club-notifier/internal/domain"
	"gorm.io/gorm"
)

const (
	defaultBatchPageSize = 20
	maxBatchPageSize     = 100
	createChunkSize      = 100
)

// BatchSummary is the derived aggregate view over one batch's rows.
type BatchSummary struct {
	BatchID      string    `gorm:"column:batch_id"`
	Content      string    `gorm:"column:content"`
	SentAt       time.Time `gorm:"column:sent_at"`
	Total        int       `gorm:"column:total"`
	Acknowledged int       `gorm:"column:acknowledged_count"`
}

// BatchListPage carries one page of batch summaries with clamped paging.
type BatchListPage struct {
	Summaries    []BatchSummary
	Page         int
	PageSize     int
	TotalPages   int
	TotalBatches int64
}

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*domain.CustomNotification) error
	GetByID(ctx context.Context, id string) (*domain.CustomNotification, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.CustomNotification, error)
	ListUnacknowledged(ctx context.Context, batchID string) ([]domain.CustomNotification, error)
	Acknowledge(ctx context.Context, recipientID string, notificationID string) (bool, error)
	GetBatchSummary(ctx context.Context, batchID string) (*BatchSummary, error)
	ListBatchSummaries(ctx context.Context, page int, pageSize int) (*BatchListPage, error)
}

type GormNotificationRepo struct {
	db *gorm.DB
}

func NewGormNotificationRepo(db *gorm.DB) *GormNotificationRepo {
	return &GormNotificationRepo{db: db}
}

// CreateBatch writes all rows of one batch. No content mutator exists on
// this repository: batch text is immutable once written.
func (r *GormNotificationRepo) CreateBatch(ctx context.Context, notifications []*domain.CustomNotification) error {
	models := make([]CustomNotificationModel, 0, len(notifications))
	modelIndexes := make([]int, 0, len(notifications))
	for i, n := range notifications {
		model := notificationModelFromDomain(n)
		if model != nil {
			models = append(models, *model)
			modelIndexes = append(modelIndexes, i)
		}
	}

	if len(models) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&models, createChunkSize).Error; err != nil {
		return err
	}

	for i := range models {
		idx := modelIndexes[i]
		if idx < len(notifications) && notifications[idx] != nil {
			*notifications[idx] = *notificationModelToDomain(&models[i])
		}
	}

	return nil
}

func (r *GormNotificationRepo) GetByID(ctx context.Context, id string) (*domain.CustomNotification, error) {
	var model CustomNotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) ListByBatch(ctx context.Context, batchID string) ([]domain.CustomNotification, error) {
	return r.listByBatch(ctx, batchID, false)
}

func (r *GormNotificationRepo) ListUnacknowledged(ctx context.Context, batchID string) ([]domain.CustomNotification, error) {
	return r.listByBatch(ctx, batchID, true)
}

func (r *GormNotificationRepo) listByBatch(ctx context.Context, batchID string, onlyUnacknowledged bool) ([]domain.CustomNotification, error) {
	query := r.db.WithContext(ctx).Where("batch_id = ?", batchID)
	if onlyUnacknowledged {
		query = query.Where("acknowledged = ?", false)
	}

	var models []CustomNotificationModel
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	notifications := make([]domain.CustomNotification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}

	return notifications, nil
}

// Acknowledge marks the notification acknowledged only when it belongs to
// the recipient. Returns false when no row matched; callers treat that as a
// silent no-op so ownership mismatches do not leak row existence.
func (r *GormNotificationRepo) Acknowledge(ctx context.Context, recipientID string, notificationID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&CustomNotificationModel{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("acknowledged", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormNotificationRepo) GetBatchSummary(ctx context.Context, batchID string) (*BatchSummary, error) {
	var summary BatchSummary
	result := r.db.WithContext(ctx).
		Model(&CustomNotificationModel{}).
		Select("batch_id, content, sent_at, COUNT(*) AS total, COUNT(*) FILTER (WHERE acknowledged) AS acknowledged_count").
		Where("batch_id = ?", batchID).
		Group("batch_id, content, sent_at").
		Scan(&summary)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return &summary, nil
}

// ListBatchSummaries groups rows by (batch_id, content, sent_at), newest
// first. Page numbers are clamped to [1, totalPages].
func (r *GormNotificationRepo) ListBatchSummaries(ctx context.Context, page int, pageSize int) (*BatchListPage, error) {
	if pageSize < 1 {
		pageSize = defaultBatchPageSize
	}
	pageSize = min(pageSize, maxBatchPageSize)

	var totalBatches int64
	err := r.db.WithContext(ctx).
		Model(&CustomNotificationModel{}).
		Distinct("batch_id").
		Count(&totalBatches).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((totalBatches + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	page = max(page, 1)
	page = min(page, totalPages)

	var summaries []BatchSummary
	err = r.db.WithContext(ctx).
		Model(&CustomNotificationModel{}).
		Select("batch_id, content, sent_at, COUNT(*) AS total, COUNT(*) FILTER (WHERE acknowledged) AS acknowledged_count").
		Group("batch_id, content, sent_at").
		Order("sent_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}

	return &BatchListPage{
		Summaries:    summaries,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		TotalBatches: totalBatches,
	}, nil
}
