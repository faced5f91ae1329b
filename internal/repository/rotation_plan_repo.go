package repository

import (
	"context"
	"errors"
	"rotation-workflow/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RotationPlanRepository interface {
	GetByPersonID(ctx context.Context, personID uint) (*models.RotationPlan, error)
	GetByPersonIDs(ctx context.Context, personIDs []uint) ([]models.RotationPlan, error)
	GetByID(ctx context.Context, id uint) (*models.RotationPlan, error)
	Save(ctx context.Context, plan *models.RotationPlan) error
	UpdateStatus(ctx context.Context, id uint, status models.PlanStatus) error
}

type GormRotationPlanRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func (r *GormRotationPlanRepository) GetByPersonID(ctx context.Context, personID uint) (*models.RotationPlan, error) {
	var plan models.RotationPlan
	err := r.db.WithContext(ctx).Where("person_id = ?", personID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get rotation plan by person")
		return nil, err
	}
	return &plan, nil
}

func (r *GormRotationPlanRepository) GetByPersonIDs(ctx context.Context, personIDs []uint) ([]models.RotationPlan, error) {
	var plans []models.RotationPlan
	if len(personIDs) == 0 {
		return plans, nil
	}
	err := r.db.WithContext(ctx).Where("person_id IN ?", personIDs).Find(&plans).Error
	return plans, err
}

func (r *GormRotationPlanRepository) GetByID(ctx context.Context, id uint) (*models.RotationPlan, error) {
	var plan models.RotationPlan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Save создает план или перезаписывает существующий (ID заполнен)
func (r *GormRotationPlanRepository) Save(ctx context.Context, plan *models.RotationPlan) error {
	if err := r.db.WithContext(ctx).Save(plan).Error; err != nil {
		r.logger.WithError(err).Error("Failed to save rotation plan")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"plan_id":   plan.ID,
		"person_id": plan.PersonID,
		"status":    plan.Status,
		"path":      len(plan.RotationPath),
	}).Info("Rotation plan saved")
	return nil
}

func (r *GormRotationPlanRepository) UpdateStatus(ctx context.Context, id uint, status models.PlanStatus) error {
	result := r.db.WithContext(ctx).Model(&models.RotationPlan{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("план ротации не найден")
	}

	r.logger.WithFields(logrus.Fields{
		"plan_id": id,
		"status":  status,
	}).Info("Rotation plan status updated")
	return nil
}
