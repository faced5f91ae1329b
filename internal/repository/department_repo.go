package repository

import (
	"context"
	"errors"
	"rotation-workflow/internal/models"

	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uint) (*models.Organization, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Organization, error)
}

type GormOrganizationRepository struct {
	db *gorm.DB
}

func (r *GormOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if org.WorkingDaysPerWeek == 0 {
		org.WorkingDaysPerWeek = 5
	}
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *GormOrganizationRepository) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).First(&org, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *GormOrganizationRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Organization, error) {
	var orgs []models.Organization
	if len(ids) == 0 {
		return orgs, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&orgs).Error
	return orgs, err
}

type DepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id uint) (*models.Department, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Department, error)
}

type GormDepartmentRepository struct {
	db *gorm.DB
}

func (r *GormDepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

func (r *GormDepartmentRepository) GetByID(ctx context.Context, id uint) (*models.Department, error) {
	var department models.Department
	err := r.db.WithContext(ctx).First(&department, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *GormDepartmentRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Department, error) {
	var departments []models.Department
	if len(ids) == 0 {
		return departments, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&departments).Error
	return departments, err
}
