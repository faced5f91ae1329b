package models

import (
	"time"

	"gorm.io/datatypes"
)

const AlertDueSoon = "DUE_SOON"

// RotationAlert - отметка о том, что оповещение по назначению уже было
type RotationAlert struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_alert_assignment_type" json:"assignment_id"`
	AlertType    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_alert_assignment_type" json:"alert_type"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RotationAlert) TableName() string {
	return "rotation_alerts"
}

// AuditEvent - запись журнала аудита
type AuditEvent struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	EventType    string            `gorm:"type:varchar(40);not null;index" json:"event_type"`
	ActorID      uint              `gorm:"index" json:"actor_id"`
	PersonID     *uint             `gorm:"index" json:"person_id"`
	AssignmentID *uint             `gorm:"index" json:"assignment_id"`
	Payload      datatypes.JSONMap `json:"payload"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
