package models

import (
	"time"

	"gorm.io/datatypes"
)

type PlanStatus string

const (
	PlanActive         PlanStatus = "ACTIVE"
	PlanCompleted      PlanStatus = "COMPLETED"
	PlanPaused         PlanStatus = "PAUSED"
	PlanRequiresAction PlanStatus = "REQUIRES_ACTION"
)

// RotationPlan - канонический маршрут человека по отделениям, один на человека
type RotationPlan struct {
	ID             uint                     `gorm:"primarykey" json:"id"`
	PersonID       uint                     `gorm:"not null;uniqueIndex" json:"person_id"`
	OrganizationID uint                     `gorm:"not null;index" json:"organization_id"`
	RotationPath   datatypes.JSONSlice[uint] `json:"rotation_path"`
	Status         PlanStatus               `gorm:"type:varchar(20);not null" json:"status"`
	StartDate      time.Time                `json:"start_date"`
	EndDate        time.Time                `json:"end_date"`
	CreatedAt      time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RotationPlan) TableName() string {
	return "rotation_plans"
}

// PathIndex возвращает позицию отделения в маршруте или -1. Маршрут может
// возвращаться в одно отделение несколько раз: берется вхождение, ближайшее
// к ordinal (порядковому номеру назначения в плане), при равенстве - более раннее
func (p *RotationPlan) PathIndex(departmentID uint, ordinal int) int {
	best := -1
	for i, id := range p.RotationPath {
		if id != departmentID {
			continue
		}
		if best < 0 || absInt(i-ordinal) < absInt(best-ordinal) {
			best = i
		}
	}
	return best
}

// NextInPath возвращает отделение, следующее по маршруту за назначением
// в departmentID с порядковым номером ordinal
func (p *RotationPlan) NextInPath(departmentID uint, ordinal int) (uint, bool) {
	idx := p.PathIndex(departmentID, ordinal)
	if idx < 0 || idx+1 >= len(p.RotationPath) {
		return 0, false
	}
	return p.RotationPath[idx+1], true
}

// Contains - входит ли отделение в маршрут
func (p *RotationPlan) Contains(departmentID uint) bool {
	return p.PathIndex(departmentID, 0) >= 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
