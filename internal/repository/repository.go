package repository

import (
	"context"
	"rotation-workflow/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repositories - все репозитории ротаций поверх одного *gorm.DB
type Repositories struct {
	db     *gorm.DB
	logger *logrus.Logger

	Persons        PersonRepository
	Organizations  OrganizationRepository
	Departments    DepartmentRepository
	Plans          RotationPlanRepository
	Assignments    RotationAssignmentRepository
	Approvals      RotationApprovalRepository
	Decisions      RotationDecisionRepository
	History        RotationHistoryRepository
	Attendance     AttendanceRepository
	Alerts         AlertRepository
	Audit          AuditEventRepository
	NonWorkingDays NonWorkingDayRepository
}

// New выполняет автомиграцию и собирает репозитории
func New(db *gorm.DB) (*Repositories, error) {
	logger := newLogger()

	// Автомиграция
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Department{},
		&models.Person{},
		&models.RotationPlan{},
		&models.RotationAssignment{},
		&models.RotationApproval{},
		&models.RotationDecision{},
		&models.RotationHistory{},
		&models.AttendanceEvent{},
		&models.CorrectionRequest{},
		&models.RotationAlert{},
		&models.AuditEvent{},
		&models.NonWorkingDay{},
	); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate rotation tables")
		return nil, err
	}

	logger.Info("Rotation repositories initialized")
	return bind(db, logger), nil
}

func bind(db *gorm.DB, logger *logrus.Logger) *Repositories {
	return &Repositories{
		db:             db,
		logger:         logger,
		Persons:        &GormPersonRepository{db: db, logger: logger},
		Organizations:  &GormOrganizationRepository{db: db},
		Departments:    &GormDepartmentRepository{db: db},
		Plans:          &GormRotationPlanRepository{db: db, logger: logger},
		Assignments:    &GormRotationAssignmentRepository{db: db, logger: logger},
		Approvals:      &GormRotationApprovalRepository{db: db},
		Decisions:      &GormRotationDecisionRepository{db: db},
		History:        &GormRotationHistoryRepository{db: db},
		Attendance:     &GormAttendanceRepository{db: db},
		Alerts:         &GormAlertRepository{db: db},
		Audit:          &GormAuditEventRepository{db: db},
		NonWorkingDays: &GormNonWorkingDayRepository{db: db},
	}
}

// Transaction выполняет fn в одной транзакции; репозитории внутри fn
// работают через нее. Ошибка из fn откатывает все записи
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(bind(tx, r.logger))
	})
}
