package repository

import (
	"context"
	"rotation-workflow/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NonWorkingDayRepository interface {
	BulkCreate(ctx context.Context, days []models.NonWorkingDay) error
	ListBetween(ctx context.Context, from, to time.Time) ([]models.NonWorkingDay, error)
	DeleteAll(ctx context.Context) error
}

type GormNonWorkingDayRepository struct {
	db *gorm.DB
}

// BulkCreate добавляет дни, уже загруженные даты пропускаются
func (r *GormNonWorkingDayRepository) BulkCreate(ctx context.Context, days []models.NonWorkingDay) error {
	if len(days) == 0 {
		return nil
	}
	for i := range days {
		days[i].Date = days[i].Date.UTC()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&days).Error
}

// ListBetween возвращает нерабочие дни в отрезке [from, to] включительно
func (r *GormNonWorkingDayRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from.UTC(), to.UTC()).
		Order("date ASC").
		Find(&days).Error
	return days, err
}

func (r *GormNonWorkingDayRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM non_working_days").Error
}
