package repository

import (
	"context"
	"errors"
	"rotation-workflow/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RotationAssignmentRepository interface {
	Create(ctx context.Context, assignment *models.RotationAssignment) error
	Update(ctx context.Context, assignment *models.RotationAssignment) error
	GetByID(ctx context.Context, id uint) (*models.RotationAssignment, error)
	ListByPerson(ctx context.Context, personID uint) ([]models.RotationAssignment, error)
	ListByPersons(ctx context.Context, personIDs []uint) ([]models.RotationAssignment, error)
	EarliestUpcoming(ctx context.Context, personID uint, departmentID *uint) (*models.RotationAssignment, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
}

type GormRotationAssignmentRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func (r *GormRotationAssignmentRepository) Create(ctx context.Context, assignment *models.RotationAssignment) error {
	if !assignment.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"person_id":     assignment.PersonID,
			"department_id": assignment.DepartmentID,
		}).Warn("Invalid rotation assignment data")
		return errors.New("некорректные данные назначения")
	}

	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create rotation assignment")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":            assignment.ID,
		"person_id":     assignment.PersonID,
		"department_id": assignment.DepartmentID,
		"status":        assignment.Status,
	}).Info("Rotation assignment created")
	return nil
}

func (r *GormRotationAssignmentRepository) Update(ctx context.Context, assignment *models.RotationAssignment) error {
	if assignment.ID == 0 || !assignment.IsValid() {
		return errors.New("некорректные данные назначения")
	}

	result := r.db.WithContext(ctx).Save(assignment)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update rotation assignment")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":     assignment.ID,
		"status": assignment.Status,
	}).Info("Rotation assignment updated")
	return nil
}

func (r *GormRotationAssignmentRepository) GetByID(ctx context.Context, id uint) (*models.RotationAssignment, error) {
	var assignment models.RotationAssignment
	result := r.db.WithContext(ctx).First(&assignment, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Rotation assignment not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get rotation assignment by ID")
		return nil, result.Error
	}

	return &assignment, nil
}

func (r *GormRotationAssignmentRepository) ListByPerson(ctx context.Context, personID uint) ([]models.RotationAssignment, error) {
	var assignments []models.RotationAssignment
	err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("start_date ASC, id ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *GormRotationAssignmentRepository) ListByPersons(ctx context.Context, personIDs []uint) ([]models.RotationAssignment, error) {
	var assignments []models.RotationAssignment
	if len(personIDs) == 0 {
		return assignments, nil
	}
	err := r.db.WithContext(ctx).
		Where("person_id IN ?", personIDs).
		Order("person_id ASC, start_date ASC, id ASC").
		Find(&assignments).Error

	r.logger.WithFields(logrus.Fields{
		"persons": len(personIDs),
		"count":   len(assignments),
	}).Debug("Retrieved rotation assignments by persons")
	return assignments, err
}

// EarliestUpcoming возвращает самое раннее UPCOMING-назначение человека,
// при заданном departmentID - только в этом отделении
func (r *GormRotationAssignmentRepository) EarliestUpcoming(ctx context.Context, personID uint, departmentID *uint) (*models.RotationAssignment, error) {
	var assignment models.RotationAssignment

	query := r.db.WithContext(ctx).Where("person_id = ? AND status = ?", personID, models.AssignmentUpcoming)
	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	}

	err := query.Order("start_date ASC, id ASC").First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *GormRotationAssignmentRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.RotationAssignment{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete rotation assignments")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"ids":           ids,
		"rows_affected": result.RowsAffected,
	}).Info("Rotation assignments deleted")
	return nil
}
