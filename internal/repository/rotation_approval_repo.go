package repository

import (
	"context"
	"errors"
	"rotation-workflow/internal/models"

	"gorm.io/gorm"
)

type RotationApprovalRepository interface {
	GetByAssignmentID(ctx context.Context, assignmentID uint) (*models.RotationApproval, error)
	GetByAssignmentIDs(ctx context.Context, assignmentIDs []uint) ([]models.RotationApproval, error)
	Save(ctx context.Context, approval *models.RotationApproval) error
}

type GormRotationApprovalRepository struct {
	db *gorm.DB
}

func (r *GormRotationApprovalRepository) GetByAssignmentID(ctx context.Context, assignmentID uint) (*models.RotationApproval, error) {
	var approval models.RotationApproval
	err := r.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).First(&approval).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *GormRotationApprovalRepository) GetByAssignmentIDs(ctx context.Context, assignmentIDs []uint) ([]models.RotationApproval, error) {
	var approvals []models.RotationApproval
	if len(assignmentIDs) == 0 {
		return approvals, nil
	}
	err := r.db.WithContext(ctx).Where("assignment_id IN ?", assignmentIDs).Find(&approvals).Error
	return approvals, err
}

// Save вставляет запись согласования или обновляет существующую
func (r *GormRotationApprovalRepository) Save(ctx context.Context, approval *models.RotationApproval) error {
	if approval.AssignmentID == 0 {
		return errors.New("не указано назначение для согласования")
	}
	return r.db.WithContext(ctx).Save(approval).Error
}

type RotationDecisionRepository interface {
	Create(ctx context.Context, decision *models.RotationDecision) error
	ListByAssignmentIDs(ctx context.Context, assignmentIDs []uint) ([]models.RotationDecision, error)
}

type GormRotationDecisionRepository struct {
	db *gorm.DB
}

func (r *GormRotationDecisionRepository) Create(ctx context.Context, decision *models.RotationDecision) error {
	return r.db.WithContext(ctx).Create(decision).Error
}

func (r *GormRotationDecisionRepository) ListByAssignmentIDs(ctx context.Context, assignmentIDs []uint) ([]models.RotationDecision, error) {
	var decisions []models.RotationDecision
	if len(assignmentIDs) == 0 {
		return decisions, nil
	}
	err := r.db.WithContext(ctx).
		Where("assignment_id IN ?", assignmentIDs).
		Order("decided_at ASC, id ASC").
		Find(&decisions).Error
	return decisions, err
}

type RotationHistoryRepository interface {
	Create(ctx context.Context, entry *models.RotationHistory) error
	ListByPerson(ctx context.Context, personID uint) ([]models.RotationHistory, error)
}

type GormRotationHistoryRepository struct {
	db *gorm.DB
}

func (r *GormRotationHistoryRepository) Create(ctx context.Context, entry *models.RotationHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormRotationHistoryRepository) ListByPerson(ctx context.Context, personID uint) ([]models.RotationHistory, error) {
	var entries []models.RotationHistory
	err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("start_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
