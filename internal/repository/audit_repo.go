package repository

import (
	"context"
	"rotation-workflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlertRepository interface {
	// Existing возвращает множество назначений, по которым оповещение alertType уже было
	Existing(ctx context.Context, assignmentIDs []uint, alertType string) (map[uint]bool, error)
	// Create сохраняет отметку; false - такая отметка уже существовала
	Create(ctx context.Context, assignmentID uint, alertType string) (bool, error)
}

type GormAlertRepository struct {
	db *gorm.DB
}

func (r *GormAlertRepository) Existing(ctx context.Context, assignmentIDs []uint, alertType string) (map[uint]bool, error) {
	existing := make(map[uint]bool)
	if len(assignmentIDs) == 0 {
		return existing, nil
	}

	var alerts []models.RotationAlert
	err := r.db.WithContext(ctx).
		Where("assignment_id IN ? AND alert_type = ?", assignmentIDs, alertType).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	for _, a := range alerts {
		existing[a.AssignmentID] = true
	}
	return existing, nil
}

func (r *GormAlertRepository) Create(ctx context.Context, assignmentID uint, alertType string) (bool, error) {
	alert := models.RotationAlert{AssignmentID: assignmentID, AlertType: alertType}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type AuditEventRepository interface {
	Create(ctx context.Context, event *models.AuditEvent) error
	ListByPerson(ctx context.Context, personID uint) ([]models.AuditEvent, error)
}

type GormAuditEventRepository struct {
	db *gorm.DB
}

func (r *GormAuditEventRepository) Create(ctx context.Context, event *models.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GormAuditEventRepository) ListByPerson(ctx context.Context, personID uint) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}
