package models

import (
	"fmt"
	"sort"
	"time"
)

type AssignmentStatus string

const (
	AssignmentUpcoming        AssignmentStatus = "UPCOMING"
	AssignmentActive          AssignmentStatus = "ACTIVE"
	AssignmentPendingReview   AssignmentStatus = "PENDING_REVIEW"
	AssignmentPendingApproval AssignmentStatus = "PENDING_APPROVAL"
	AssignmentRegress         AssignmentStatus = "REGRESS"
	AssignmentCompleted       AssignmentStatus = "COMPLETED"
	AssignmentDeclined        AssignmentStatus = "DECLINED"
)

// AllAssignmentStatuses - все статусы в порядке жизненного цикла
var AllAssignmentStatuses = []AssignmentStatus{
	AssignmentUpcoming,
	AssignmentActive,
	AssignmentPendingReview,
	AssignmentPendingApproval,
	AssignmentRegress,
	AssignmentCompleted,
	AssignmentDeclined,
}

// ParseAssignmentStatus проверяет строку на принадлежность к статусам
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, s := range AllAssignmentStatuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown assignment status %q", value)
}

// Rank - приоритет статуса при выборе текущего назначения.
// REGRESS равен ACTIVE: это то же текущее место, только на доработке
func (s AssignmentStatus) Rank() int {
	switch s {
	case AssignmentActive, AssignmentRegress:
		return 4
	case AssignmentPendingReview, AssignmentPendingApproval:
		return 3
	case AssignmentUpcoming:
		return 2
	case AssignmentCompleted:
		return 1
	case AssignmentDeclined:
		return 0
	}
	// неизвестный статус из БД никогда не становится текущим
	return -1
}

// IsTerminal - из COMPLETED и DECLINED переходов нет
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentCompleted || s == AssignmentDeclined
}

// IsCurrent - статусы, которых у человека может быть не больше одного
func (s AssignmentStatus) IsCurrent() bool {
	return s == AssignmentActive || s == AssignmentRegress
}

// RotationAssignment - одно размещение человека в отделении на период
type RotationAssignment struct {
	ID             uint             `gorm:"primarykey" json:"id"`
	PlanID         *uint            `gorm:"index" json:"plan_id"`
	PersonID       uint             `gorm:"not null;index" json:"person_id"`
	OrganizationID uint             `gorm:"not null;index" json:"organization_id"`
	DepartmentID   uint             `gorm:"not null;index" json:"department_id"`
	StartDate      time.Time        `gorm:"not null;index" json:"start_date"`
	EndDate        time.Time        `gorm:"not null" json:"end_date"`
	DurationType   string           `gorm:"type:varchar(20)" json:"duration_type"`
	DurationValue  int              `json:"duration_value"`
	SupervisorID   *uint            `gorm:"index" json:"supervisor_id"`
	Status         AssignmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes          string           `json:"notes"`
	ReviewDate     *time.Time       `json:"review_date"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RotationAssignment) TableName() string {
	return "rotation_assignments"
}

func (a *RotationAssignment) IsValid() bool {
	if a.PersonID == 0 || a.OrganizationID == 0 || a.DepartmentID == 0 {
		return false
	}
	if a.StartDate.IsZero() || a.EndDate.IsZero() || a.EndDate.Before(a.StartDate) {
		return false
	}
	if _, err := ParseAssignmentStatus(string(a.Status)); err != nil {
		return false
	}
	return true
}

// Progress - доля пройденного периода на момент now, в пределах [0, 1]
func (a *RotationAssignment) Progress(now time.Time) float64 {
	total := a.EndDate.Sub(a.StartDate)
	if total <= 0 {
		if now.Before(a.StartDate) {
			return 0
		}
		return 1
	}
	p := float64(now.Sub(a.StartDate)) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// CurrentAssignment выбирает "что человек делает сейчас": максимальный ранг статуса,
// при равенстве - более позднее начало, затем больший ID
func CurrentAssignment(assignments []RotationAssignment) *RotationAssignment {
	var best *RotationAssignment
	for i := range assignments {
		a := &assignments[i]
		if best == nil || outranks(a, best) {
			best = a
		}
	}
	return best
}

func outranks(a, b *RotationAssignment) bool {
	if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
		return ra > rb
	}
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.ID > b.ID
}

// SortByStart упорядочивает назначения по дате начала
func SortByStart(assignments []RotationAssignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		if !assignments[i].StartDate.Equal(assignments[j].StartDate) {
			return assignments[i].StartDate.Before(assignments[j].StartDate)
		}
		return assignments[i].ID < assignments[j].ID
	})
}
