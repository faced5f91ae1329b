package models

import "strings"

// LegacyRotationPlan - устаревший план ротации, встроенный прямо в запись человека.
// Новые данные сюда не пишутся
type LegacyRotationPlan struct {
	CurrentDepartment string   `json:"current_department,omitempty"`
	Departments       []string `json:"departments,omitempty"`
	Status            string   `json:"status,omitempty"`
	StartDate         string   `json:"start_date,omitempty"`
	EndDate           string   `json:"end_date,omitempty"`
	Supervisor        string   `json:"supervisor,omitempty"`
	ApprovalOutcome   string   `json:"approval_outcome,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// IsEmpty - встроенного плана фактически нет
func (p LegacyRotationPlan) IsEmpty() bool {
	return strings.TrimSpace(p.CurrentDepartment) == "" && len(p.Departments) == 0 && strings.TrimSpace(p.Status) == ""
}

// Department - текущее отделение по старым данным
func (p LegacyRotationPlan) Department() string {
	if d := strings.TrimSpace(p.CurrentDepartment); d != "" {
		return d
	}
	if len(p.Departments) > 0 {
		return strings.TrimSpace(p.Departments[0])
	}
	return ""
}

// MapLegacyStatus: completed -> COMPLETED, paused -> PENDING_APPROVAL, остальное -> ACTIVE
func MapLegacyStatus(value string) AssignmentStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "completed":
		return AssignmentCompleted
	case "paused":
		return AssignmentPendingApproval
	}
	return AssignmentActive
}

// MapLegacyOutcome: approved -> APPROVE, denied/rejected -> REJECT, остальное -> PENDING
func MapLegacyOutcome(value string) AdminDecision {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "approved":
		return AdminApprove
	case "denied", "rejected":
		return AdminReject
	}
	return AdminPending
}
