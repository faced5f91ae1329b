package models

import (
	"time"
)

type AttendanceEventType string

const (
	EventClockIn       AttendanceEventType = "clock_in"
	EventClockOut      AttendanceEventType = "clock_out"
	EventBreakStart    AttendanceEventType = "break_start"
	EventBreakEnd      AttendanceEventType = "break_end"
	EventLunchStart    AttendanceEventType = "lunch_start"
	EventLunchEnd      AttendanceEventType = "lunch_end"
	EventExtraShiftIn  AttendanceEventType = "extra_shift_in"
	EventExtraShiftOut AttendanceEventType = "extra_shift_out"
)

// AttendanceEvent - отметка прихода/ухода/перерыва. Здесь только читается
type AttendanceEvent struct {
	ID        uint                `gorm:"primarykey" json:"id"`
	PersonID  uint                `gorm:"not null;index:idx_attendance_person_time" json:"person_id"`
	EventType AttendanceEventType `gorm:"type:varchar(20);not null" json:"event_type"`
	Timestamp time.Time           `gorm:"not null;index:idx_attendance_person_time" json:"timestamp"`
	CreatedAt time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (AttendanceEvent) TableName() string {
	return "attendance_events"
}

const (
	CorrectionPending  = "pending"
	CorrectionApproved = "approved"
	CorrectionRejected = "rejected"
)

// CorrectionRequest - запрос на исправление отметки
type CorrectionRequest struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	PersonID  uint      `gorm:"not null;index" json:"person_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Date      time.Time `gorm:"not null" json:"date"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CorrectionRequest) TableName() string {
	return "correction_requests"
}

func (c *CorrectionRequest) IsUnresolved() bool {
	return c.Status == CorrectionPending
}
