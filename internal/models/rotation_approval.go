package models

import "time"

type Recommendation string

const (
	RecommendApprove Recommendation = "APPROVE"
	RecommendExtend  Recommendation = "EXTEND"
	RecommendReject  Recommendation = "REJECT"
	RecommendPending Recommendation = "PENDING"
)

type AdminDecision string

const (
	AdminApprove AdminDecision = "APPROVE"
	AdminReject  AdminDecision = "REJECT"
	AdminPending AdminDecision = "PENDING"
)

// IsFinal - решение администратора вынесено
func (d AdminDecision) IsFinal() bool {
	return d == AdminApprove || d == AdminReject
}

// RotationApproval - одна изменяемая запись согласования на назначение
type RotationApproval struct {
	ID           uint `gorm:"primarykey" json:"id"`
	AssignmentID uint `gorm:"not null;uniqueIndex" json:"assignment_id"`

	SupervisorRecommendation Recommendation `gorm:"type:varchar(20);not null;default:'PENDING'" json:"supervisor_recommendation"`
	SupervisorID             *uint          `json:"supervisor_id"`
	SupervisorNotes          string         `json:"supervisor_notes"`
	SupervisorAt             *time.Time     `json:"supervisor_at"`

	AdminDecision AdminDecision `gorm:"type:varchar(20);not null;default:'PENDING'" json:"admin_decision"`
	AdminID       *uint         `json:"admin_id"`
	AdminNotes    string        `json:"admin_notes"`
	AdminAt       *time.Time    `json:"admin_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RotationApproval) TableName() string {
	return "rotation_approvals"
}

// Status - итоговый статус согласования: решение администратора, если оно окончательное,
// иначе рекомендация руководителя; пустая строка - сведений нет
func (a *RotationApproval) Status() string {
	if a == nil {
		return ""
	}
	if a.AdminDecision.IsFinal() {
		return string(a.AdminDecision)
	}
	if a.SupervisorRecommendation != "" && a.SupervisorRecommendation != RecommendPending {
		return string(a.SupervisorRecommendation)
	}
	return ""
}

// IsPending - рекомендация есть, а решения администратора еще нет
func (a *RotationApproval) IsPending() bool {
	return a != nil &&
		a.SupervisorRecommendation != RecommendPending &&
		!a.AdminDecision.IsFinal()
}

type DecisionType string

const (
	DecisionCompleted DecisionType = "COMPLETED"
	DecisionRegress   DecisionType = "REGRESS"
	DecisionDeclined  DecisionType = "DECLINED"
)

// RotationDecision - журнал прямых решений, только добавление
type RotationDecision struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	AssignmentID uint         `gorm:"not null;index" json:"assignment_id"`
	Decision     DecisionType `gorm:"type:varchar(20);not null" json:"decision"`
	Notes        string       `json:"notes"`
	Override     bool         `gorm:"not null;default:false" json:"override"`
	ActorID      uint         `gorm:"not null" json:"actor_id"`
	DecidedAt    time.Time    `gorm:"not null" json:"decided_at"`
}

func (RotationDecision) TableName() string {
	return "rotation_decisions"
}

// RotationHistory - архивная запись о завершенном, возвращенном или отклоненном назначении
type RotationHistory struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	PersonID          uint      `gorm:"not null;index" json:"person_id"`
	OrganizationID    uint      `gorm:"not null;index" json:"organization_id"`
	DepartmentID      uint      `gorm:"not null" json:"department_id"`
	AssignmentID      *uint     `gorm:"index" json:"assignment_id"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	EvaluationSummary string    `json:"evaluation_summary"`
	Outcome           string    `gorm:"type:varchar(20);not null" json:"outcome"`
	SupervisorID      *uint     `json:"supervisor_id"`
	AdminID           *uint     `json:"admin_id"`
	DecidedAt         time.Time `gorm:"not null" json:"decided_at"`
}

func (RotationHistory) TableName() string {
	return "rotation_history"
}
