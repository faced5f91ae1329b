package service

import (
	"context"
	"fmt"
	"rotation-workflow/internal/config"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"rotation-workflow/pkg/calendar"
	"time"

	"github.com/sirupsen/logrus"
)

// workflow - общее состояние сервисов, которые переводят назначения по статусам
type workflow struct {
	repos    *repository.Repositories
	evidence *EvidenceService
	events   EventLogger
	rules    config.RotationRules
	clock    Clock
	logger   *logrus.Logger
}

func newWorkflow(repos *repository.Repositories, evidence *EvidenceService, events EventLogger, rules config.RotationRules, clock Clock) workflow {
	if clock == nil {
		clock = SystemClock()
	}
	return workflow{
		repos:    repos,
		evidence: evidence,
		events:   events,
		rules:    rules,
		clock:    clock,
		logger:   newLogger(),
	}
}

func (w *workflow) location() *time.Location {
	if w.rules.Location == nil {
		return time.UTC
	}
	return w.rules.Location
}

func (w *workflow) today() time.Time {
	return calendar.DayIn(w.clock.Now(), w.location())
}

func (w *workflow) loadAssignment(ctx context.Context, repos *repository.Repositories, id uint) (*models.RotationAssignment, error) {
	a, err := repos.Assignments.GetByID(ctx, id)
	if err != nil {
		return nil, internalError("failed to load assignment", err)
	}
	if a == nil {
		return nil, notFoundError(fmt.Sprintf("назначение %d не найдено", id))
	}
	return a, nil
}

// evidenceRange - период назначения, обрезанный сегодняшним днем
func (w *workflow) evidenceRange(a *models.RotationAssignment) (time.Time, time.Time) {
	start := calendar.Day(a.StartDate)
	end := calendar.Day(a.EndDate)
	if today := w.today(); today.Before(end) {
		end = today
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}

// checkEvidenceGate проверяет посещаемость перед COMPLETED. Без override провал
// возвращается как конфликт и сразу пишется в аудит; с override провал
// откладывается в batch и уйдет в аудит после фиксации перехода
func (w *workflow) checkEvidenceGate(ctx context.Context, a *models.RotationAssignment, actorID uint, override bool, notes string, batch *eventBatch) (*Evidence, error) {
	start, end := w.evidenceRange(a)
	ev, err := w.evidence.ComputeEvidence(ctx, a.PersonID, start, end)
	if err != nil {
		return nil, passThrough("failed to compute evidence", err)
	}

	threshold := w.rules.AttendanceThreshold
	if ev.PassesGate(threshold) {
		return ev, nil
	}

	payload := map[string]interface{}{
		"assignment_id":          a.ID,
		"person_id":              a.PersonID,
		"attendance_rate":        ev.AttendanceRate,
		"unresolved_corrections": ev.UnresolvedCorrectionsCount,
		"threshold":              threshold,
		"overridden":             override,
	}

	w.logger.WithFields(logrus.Fields{
		"assignment_id":   a.ID,
		"attendance_rate": ev.AttendanceRate,
		"unresolved":      ev.UnresolvedCorrectionsCount,
		"override":        override,
	}).Warn("Evidence gate failed")

	if override {
		batch.add(EventEvidenceGateFailed, payload)
		return ev, nil
	}

	failed := &eventBatch{}
	failed.add(EventEvidenceGateFailed, payload)
	failed.flush(ctx, w.events, actorID, w.logger)

	return nil, conflictError("показатели посещаемости не позволяют завершить ротацию", map[string]interface{}{
		"attendance_rate":        ev.AttendanceRate,
		"unresolved_corrections": ev.UnresolvedCorrectionsCount,
		"threshold":              threshold,
	})
}

// ensureSingleCurrent проверяет, что у человека нет другого ACTIVE/REGRESS назначения
func ensureSingleCurrent(ctx context.Context, tx *repository.Repositories, personID, exceptID uint) error {
	assignments, err := tx.Assignments.ListByPerson(ctx, personID)
	if err != nil {
		return internalError("failed to list assignments", err)
	}
	for _, other := range assignments {
		if other.ID != exceptID && other.Status.IsCurrent() {
			return conflictError("у сотрудника уже есть текущая ротация", map[string]interface{}{
				"assignment_id": other.ID,
				"status":        other.Status,
			})
		}
	}
	return nil
}

// ensureNoOverlap проверяет период назначения против остальных назначений человека
func ensureNoOverlap(ctx context.Context, tx *repository.Repositories, a *models.RotationAssignment) error {
	assignments, err := tx.Assignments.ListByPerson(ctx, a.PersonID)
	if err != nil {
		return internalError("failed to list assignments", err)
	}
	intervals := []Interval{{Label: assignmentLabel(a), Start: a.StartDate, End: a.EndDate}}
	for i := range assignments {
		if assignments[i].ID == a.ID {
			continue
		}
		intervals = append(intervals, Interval{
			Label: assignmentLabel(&assignments[i]),
			Start: assignments[i].StartDate,
			End:   assignments[i].EndDate,
		})
	}
	return ValidateNoOverlap(intervals)
}

func assignmentLabel(a *models.RotationAssignment) string {
	if a.ID == 0 {
		return "new assignment"
	}
	return fmt.Sprintf("assignment %d", a.ID)
}

// archive пишет строку истории по назначению
func (w *workflow) archive(ctx context.Context, tx *repository.Repositories, a *models.RotationAssignment, outcome string, summary string, adminID *uint) error {
	entry := &models.RotationHistory{
		PersonID:          a.PersonID,
		OrganizationID:    a.OrganizationID,
		DepartmentID:      a.DepartmentID,
		AssignmentID:      &a.ID,
		StartDate:         a.StartDate,
		EndDate:           a.EndDate,
		EvaluationSummary: summary,
		Outcome:           outcome,
		SupervisorID:      a.SupervisorID,
		AdminID:           adminID,
		DecidedAt:         w.clock.Now().UTC(),
	}
	if err := tx.History.Create(ctx, entry); err != nil {
		return internalError("failed to write rotation history", err)
	}
	return nil
}

// activate переводит назначение в ACTIVE и переносит на человека его отделение
func (w *workflow) activate(ctx context.Context, tx *repository.Repositories, next *models.RotationAssignment, batch *eventBatch) error {
	if err := ensureSingleCurrent(ctx, tx, next.PersonID, next.ID); err != nil {
		return err
	}

	next.Status = models.AssignmentActive
	if next.ID == 0 {
		if err := tx.Assignments.Create(ctx, next); err != nil {
			return internalError("failed to create assignment", err)
		}
	} else if err := tx.Assignments.Update(ctx, next); err != nil {
		return internalError("failed to activate assignment", err)
	}

	return w.moveDepartment(ctx, tx, next.PersonID, next.DepartmentID, next.ID, batch)
}

func (w *workflow) moveDepartment(ctx context.Context, tx *repository.Repositories, personID, departmentID, assignmentID uint, batch *eventBatch) error {
	dept, err := tx.Departments.GetByID(ctx, departmentID)
	if err != nil {
		return internalError("failed to load department", err)
	}
	name := ""
	if dept != nil {
		name = dept.Name
	}

	if err := tx.Persons.UpdateDepartment(ctx, personID, &departmentID, name); err != nil {
		return internalError("failed to update person department", err)
	}

	batch.add(EventDepartmentChanged, map[string]interface{}{
		"person_id":     personID,
		"assignment_id": assignmentID,
		"department_id": departmentID,
		"department":    name,
	})
	return nil
}

// planFor возвращает план, которому принадлежит назначение
func planFor(ctx context.Context, tx *repository.Repositories, a *models.RotationAssignment) (*models.RotationPlan, error) {
	var (
		plan *models.RotationPlan
		err  error
	)
	if a.PlanID != nil {
		plan, err = tx.Plans.GetByID(ctx, *a.PlanID)
	} else {
		plan, err = tx.Plans.GetByPersonID(ctx, a.PersonID)
	}
	if err != nil {
		return nil, internalError("failed to load rotation plan", err)
	}
	return plan, nil
}

func setPlanStatus(ctx context.Context, tx *repository.Repositories, plan *models.RotationPlan, status models.PlanStatus) error {
	if plan == nil || plan.Status == status {
		return nil
	}
	if err := tx.Plans.UpdateStatus(ctx, plan.ID, status); err != nil {
		return internalError("failed to update plan status", err)
	}
	plan.Status = status
	return nil
}

func assignmentPayload(a *models.RotationAssignment) map[string]interface{} {
	return map[string]interface{}{
		"assignment_id": a.ID,
		"person_id":     a.PersonID,
		"department_id": a.DepartmentID,
		"status":        string(a.Status),
		"start_date":    calendar.FormatDate(a.StartDate),
		"end_date":      calendar.FormatDate(a.EndDate),
	}
}
