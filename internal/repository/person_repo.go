package repository

import (
	"context"
	"errors"
	"rotation-workflow/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id uint) (*models.Person, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Person, error)
	ListByOrganization(ctx context.Context, organizationID uint, roles []models.Role, departmentID *uint) ([]models.Person, error)
	UpdateDepartment(ctx context.Context, personID uint, departmentID *uint, department string) error
}

type GormPersonRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func (r *GormPersonRepository) Create(ctx context.Context, person *models.Person) error {
	if !person.IsValid() {
		return errors.New("некорректные данные сотрудника")
	}
	return r.db.WithContext(ctx).Create(person).Error
}

func (r *GormPersonRepository) GetByID(ctx context.Context, id uint) (*models.Person, error) {
	var person models.Person
	result := r.db.WithContext(ctx).First(&person, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get person by ID")
		return nil, result.Error
	}

	return &person, nil
}

func (r *GormPersonRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Person, error) {
	var persons []models.Person
	if len(ids) == 0 {
		return persons, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&persons).Error
	return persons, err
}

func (r *GormPersonRepository) ListByOrganization(ctx context.Context, organizationID uint, roles []models.Role, departmentID *uint) ([]models.Person, error) {
	var persons []models.Person

	query := r.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}
	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	}

	err := query.Order("last_name ASC, first_name ASC, id ASC").Find(&persons).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to list persons by organization")
	}
	return persons, err
}

func (r *GormPersonRepository) UpdateDepartment(ctx context.Context, personID uint, departmentID *uint, department string) error {
	result := r.db.WithContext(ctx).Model(&models.Person{}).
		Where("id = ?", personID).
		Updates(map[string]interface{}{
			"department_id": departmentID,
			"department":    department,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("сотрудник не найден")
	}

	r.logger.WithFields(logrus.Fields{
		"person_id":  personID,
		"department": department,
	}).Info("Person department updated")
	return nil
}
