package models

import "time"

type Organization struct {
	ID                  uint      `gorm:"primarykey" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	DefaultClockIn      string    `gorm:"type:varchar(5)" json:"default_clock_in"`
	DefaultClockOut     string    `gorm:"type:varchar(5)" json:"default_clock_out"`
	DefaultBreakMinutes *int      `json:"default_break_minutes"`
	WorkingDaysPerWeek  int       `gorm:"not null;default:5" json:"working_days_per_week"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// WorkingDaysRatio - отношение рабочей недели организации к базовой пятидневке
func (o *Organization) WorkingDaysRatio() float64 {
	if o == nil || o.WorkingDaysPerWeek <= 0 || o.WorkingDaysPerWeek > 7 {
		return 1
	}
	return float64(o.WorkingDaysPerWeek) / 5
}

type Department struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Department) TableName() string {
	return "departments"
}
