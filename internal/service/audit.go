package service

import (
	"context"
	"errors"
	"fmt"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	EventPlanCreated         = "PLAN_CREATED"
	EventPlanUpdated         = "PLAN_UPDATED"
	EventDueSoon             = "DUE_SOON"
	EventEvidenceGateFailed  = "EVIDENCE_GATE_FAILED"
	EventEvaluationSubmitted = "EVALUATION_SUBMITTED"
	EventApprovalPending     = "APPROVAL_PENDING"
	EventApprovalApproved    = "APPROVAL_APPROVED"
	EventApprovalDenied      = "APPROVAL_DENIED"
	EventRotationCompleted   = "ROTATION_COMPLETED"
	EventRotationRegressed   = "ROTATION_REGRESSED"
	EventRotationDeclined    = "ROTATION_DECLINED"
	EventDepartmentChanged   = "DEPARTMENT_CHANGED"
	EventPathDeviation       = "PATH_DEVIATION"
)

// EventLogger - получатель событий аудита и оповещений
type EventLogger interface {
	LogEvent(ctx context.Context, eventType string, payload map[string]interface{}, actorID uint) error
}

// AuditTrail пишет события в таблицу audit_events
type AuditTrail struct {
	repo repository.AuditEventRepository
}

func NewAuditTrail(repo repository.AuditEventRepository) *AuditTrail {
	return &AuditTrail{repo: repo}
}

func (a *AuditTrail) LogEvent(ctx context.Context, eventType string, payload map[string]interface{}, actorID uint) error {
	event := &models.AuditEvent{
		EventType:    eventType,
		ActorID:      actorID,
		PersonID:     payloadID(payload, "person_id"),
		AssignmentID: payloadID(payload, "assignment_id"),
		Payload:      payload,
	}
	return a.repo.Create(ctx, event)
}

func payloadID(payload map[string]interface{}, key string) *uint {
	switch v := payload[key].(type) {
	case uint:
		return &v
	case *uint:
		return v
	case int:
		if v > 0 {
			id := uint(v)
			return &id
		}
	}
	return nil
}

// Notifier - канал доставки текстовых оповещений (Telegram-клиент)
type Notifier interface {
	Notify(chatID int64, text string) error
}

// TelegramNotifier пересылает события в чат аудита
type TelegramNotifier struct {
	notifier Notifier
	chatID   int64
}

func NewTelegramNotifier(notifier Notifier, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{notifier: notifier, chatID: chatID}
}

func (t *TelegramNotifier) LogEvent(_ context.Context, eventType string, payload map[string]interface{}, actorID uint) error {
	return t.notifier.Notify(t.chatID, formatEvent(eventType, payload, actorID))
}

// formatEvent собирает сообщение вида "📋 APPROVAL_APPROVED (actor 3)\nassignment_id: 7"
func formatEvent(eventType string, payload map[string]interface{}, actorID uint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s (actor %d)", eventType, actorID)

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %v", k, payload[k])
	}
	return b.String()
}

// MultiEventLogger рассылает событие всем получателям; ошибка одного не мешает остальным
type MultiEventLogger struct {
	loggers []EventLogger
}

func NewMultiEventLogger(loggers ...EventLogger) *MultiEventLogger {
	return &MultiEventLogger{loggers: loggers}
}

func (m *MultiEventLogger) LogEvent(ctx context.Context, eventType string, payload map[string]interface{}, actorID uint) error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.LogEvent(ctx, eventType, payload, actorID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type pendingEvent struct {
	eventType string
	payload   map[string]interface{}
}

// eventBatch копит события внутри транзакции; отправляются они только после фиксации
type eventBatch struct {
	events []pendingEvent
}

func (b *eventBatch) add(eventType string, payload map[string]interface{}) {
	b.events = append(b.events, pendingEvent{eventType: eventType, payload: payload})
}

func (b *eventBatch) flush(ctx context.Context, sink EventLogger, actorID uint, logger *logrus.Logger) {
	if sink == nil {
		return
	}
	for _, e := range b.events {
		if err := sink.LogEvent(ctx, e.eventType, e.payload, actorID); err != nil {
			logger.WithError(err).WithField("event_type", e.eventType).Error("Failed to log event")
		}
	}
	b.events = nil
}
