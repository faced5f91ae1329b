package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleIntern     Role = "intern"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// Person - стажер или сотрудник, которого проводят по отделениям
type Person struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrganizationID uint   `gorm:"not null;index" json:"organization_id"`
	FirstName      string `gorm:"not null" json:"first_name"`
	LastName       string `json:"last_name"`
	Role           Role   `gorm:"type:varchar(20);default:'intern'" json:"role"`

	// Денормализованное текущее отделение, обновляется при активации назначения
	Department   string `json:"department"`
	DepartmentID *uint  `gorm:"index" json:"department_id"`

	// Индивидуальные нормы часов (приоритетнее расписания)
	TargetHoursPerDay  *float64 `json:"target_hours_per_day"`
	TargetWeeklyHours  *float64 `json:"target_weekly_hours"`
	TargetMonthlyHours *float64 `json:"target_monthly_hours"`

	// Индивидуальное расписание "HH:MM"
	ScheduledClockIn  string `gorm:"type:varchar(5)" json:"scheduled_clock_in"`
	ScheduledClockOut string `gorm:"type:varchar(5)" json:"scheduled_clock_out"`
	BreakMinutes      *int   `json:"break_minutes"`

	// Устаревший встроенный план ротации, только для чтения
	LegacyRotation datatypes.JSONType[LegacyRotationPlan] `json:"legacy_rotation"`
}

func (Person) TableName() string {
	return "persons"
}

// FullName возвращает имя для отображения
func (p *Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Person) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p *Person) IsSupervisor() bool {
	return p.Role == RoleSupervisor
}

// HasTargets - задана ли хотя бы одна индивидуальная норма
func (p *Person) HasTargets() bool {
	return p.TargetHoursPerDay != nil || p.TargetWeeklyHours != nil || p.TargetMonthlyHours != nil
}

func (p *Person) IsValid() bool {
	if p.OrganizationID == 0 || strings.TrimSpace(p.FirstName) == "" {
		return false
	}
	switch p.Role {
	case RoleIntern, RoleSupervisor, RoleAdmin:
	default:
		return false
	}
	return true
}
