package repository

import (
	"context"
	"rotation-workflow/internal/models"
	"time"

	"gorm.io/gorm"
)

type AttendanceRepository interface {
	CreateEvent(ctx context.Context, event *models.AttendanceEvent) error
	CreateCorrection(ctx context.Context, correction *models.CorrectionRequest) error
	// ListEvents возвращает отметки людей в полуинтервале [from, to)
	ListEvents(ctx context.Context, personIDs []uint, from, to time.Time) ([]models.AttendanceEvent, error)
	// ListPendingCorrections возвращает нерешенные запросы с датой в [from, to)
	ListPendingCorrections(ctx context.Context, personIDs []uint, from, to time.Time) ([]models.CorrectionRequest, error)
}

type GormAttendanceRepository struct {
	db *gorm.DB
}

func (r *GormAttendanceRepository) CreateEvent(ctx context.Context, event *models.AttendanceEvent) error {
	event.Timestamp = event.Timestamp.UTC()
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GormAttendanceRepository) CreateCorrection(ctx context.Context, correction *models.CorrectionRequest) error {
	correction.Date = correction.Date.UTC()
	if correction.Status == "" {
		correction.Status = models.CorrectionPending
	}
	return r.db.WithContext(ctx).Create(correction).Error
}

func (r *GormAttendanceRepository) ListEvents(ctx context.Context, personIDs []uint, from, to time.Time) ([]models.AttendanceEvent, error) {
	var events []models.AttendanceEvent
	if len(personIDs) == 0 {
		return events, nil
	}
	err := r.db.WithContext(ctx).
		Where("person_id IN ? AND timestamp >= ? AND timestamp < ?", personIDs, from.UTC(), to.UTC()).
		Order("person_id ASC, timestamp ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (r *GormAttendanceRepository) ListPendingCorrections(ctx context.Context, personIDs []uint, from, to time.Time) ([]models.CorrectionRequest, error) {
	var corrections []models.CorrectionRequest
	if len(personIDs) == 0 {
		return corrections, nil
	}
	err := r.db.WithContext(ctx).
		Where("person_id IN ? AND status = ? AND date >= ? AND date < ?",
			personIDs, models.CorrectionPending, from.UTC(), to.UTC()).
		Find(&corrections).Error
	return corrections, err
}
