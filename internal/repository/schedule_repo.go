package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kursadbilgin/club-notifier/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	settingSweepHour   = "sweep_hour"
	settingSweepMinute = "sweep_minute"

	defaultSweepHour   = 9
	defaultSweepMinute = 0
)

type ScheduleRepository interface {
	GetSweepTime(ctx context.Context) (hour int, minute int, err error)
	SetSweepTime(ctx context.Context, hour int, minute int) error
}

type GormScheduleRepo struct {
	db *gorm.DB
}

func NewGormScheduleRepo(db *gorm.DB) *GormScheduleRepo {
	return &GormScheduleRepo{db: db}
}

// GetSweepTime returns the persisted daily sweep wall-clock time, falling
// back to 09:00 when nothing has been configured yet.
func (r *GormScheduleRepo) GetSweepTime(ctx context.Context) (int, int, error) {
	hour, err := r.getIntSetting(ctx, settingSweepHour, defaultSweepHour)
	if err != nil {
		return 0, 0, err
	}

	minute, err := r.getIntSetting(ctx, settingSweepMinute, defaultSweepMinute)
	if err != nil {
		return 0, 0, err
	}

	return hour, minute, nil
}

func (r *GormScheduleRepo) SetSweepTime(ctx context.Context, hour int, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: invalid sweep time %02d:%02d", domain.ErrValidation, hour, minute)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertSetting(tx, settingSweepHour, strconv.Itoa(hour)); err != nil {
			return err
		}
		return upsertSetting(tx, settingSweepMinute, strconv.Itoa(minute))
	})
}

func (r *GormScheduleRepo) getIntSetting(ctx context.Context, key string, fallback int) (int, error) {
	var model SettingModel
	err := r.db.WithContext(ctx).First(&model, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(model.Value)
	if err != nil {
		return 0, fmt.Errorf("corrupt setting %q=%q: %w", key, model.Value, err)
	}
	return value, nil
}

func upsertSetting(tx *gorm.DB, key string, value string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{"value": value}),
	}).Create(&SettingModel{Key: key, Value: value}).Error
}
