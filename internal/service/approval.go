package service

import (
	"context"
	"rotation-workflow/internal/config"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"strings"

	"github.com/sirupsen/logrus"
)

type AdminDecisionInput struct {
	Decision models.AdminDecision
	Notes    string
	Override bool
	// Next - следующее назначение, если по маршруту плана готового нет
	Next *ScheduleRow
	// FinalRotation подтверждает, что это последняя ротация и план можно закрыть
	FinalRotation bool
}

type AdminDecisionResult struct {
	Assignment    *models.RotationAssignment `json:"assignment"`
	Approval      *models.RotationApproval   `json:"approval"`
	Next          *models.RotationAssignment `json:"next,omitempty"`
	Evidence      *Evidence                  `json:"evidence,omitempty"`
	PlanCompleted bool                       `json:"plan_completed"`
	PathDeviation bool                       `json:"path_deviation"`
}

// ApprovalService - решение администратора по рекомендации руководителя
type ApprovalService struct {
	workflow
}

func NewApprovalService(
	repos *repository.Repositories,
	evidence *EvidenceService,
	events EventLogger,
	rules config.RotationRules,
	clock Clock,
) *ApprovalService {
	return &ApprovalService{workflow: newWorkflow(repos, evidence, events, rules, clock)}
}

// AdminDecide применяет решение администратора к назначению в PENDING_REVIEW.
// REJECT возвращает его в PENDING_APPROVAL; APPROVE проходит проверку посещаемости,
// завершает назначение и активирует следующее по маршруту плана
func (s *ApprovalService) AdminDecide(ctx context.Context, actorID, assignmentID uint, input AdminDecisionInput) (*AdminDecisionResult, error) {
	s.logger.WithFields(logrus.Fields{
		"actor_id":      actorID,
		"assignment_id": assignmentID,
		"decision":      input.Decision,
		"override":      input.Override,
		"final":         input.FinalRotation,
	}).Info("Admin deciding assignment")

	notes := strings.TrimSpace(input.Notes)
	switch input.Decision {
	case models.AdminApprove:
		if input.Override && notes == "" {
			return nil, validationError("для обхода проверки посещаемости нужен комментарий")
		}
	case models.AdminReject:
	default:
		return nil, validationError("решение администратора должно быть APPROVE или REJECT")
	}

	actor, err := loadActor(ctx, s.repos, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	a, err := s.loadAssignment(ctx, s.repos, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := requireSameOrganization(actor, a.OrganizationID); err != nil {
		return nil, err
	}
	if a.Status != models.AssignmentPendingReview {
		return nil, conflictError("решение администратора возможно только после оценки руководителя", map[string]interface{}{
			"status": a.Status,
		})
	}

	batch := &eventBatch{}
	result := &AdminDecisionResult{Assignment: a}

	if input.Decision == models.AdminApprove {
		ev, err := s.checkEvidenceGate(ctx, a, actor.ID, input.Override, notes, batch)
		if err != nil {
			return nil, err
		}
		result.Evidence = ev
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		approval, err := s.recordAdminDecision(ctx, tx, actor, a, input.Decision, notes)
		if err != nil {
			return err
		}
		result.Approval = approval

		if input.Decision == models.AdminReject {
			a.Status = models.AssignmentPendingApproval
			if err := tx.Assignments.Update(ctx, a); err != nil {
				return internalError("failed to update assignment", err)
			}
			payload := assignmentPayload(a)
			payload["notes"] = notes
			batch.add(EventApprovalDenied, payload)
			return nil
		}

		return s.approve(ctx, tx, actor, a, input, result, batch)
	})
	if err != nil {
		s.logger.WithError(err).WithField("assignment_id", assignmentID).Warn("Admin decision rejected")
		return nil, passThrough("failed to apply admin decision", err)
	}

	batch.flush(ctx, s.events, actor.ID, s.logger)

	s.logger.WithFields(logrus.Fields{
		"assignment_id":  a.ID,
		"status":         a.Status,
		"plan_completed": result.PlanCompleted,
	}).Info("Admin decision applied")

	return result, nil
}

func (s *ApprovalService) recordAdminDecision(ctx context.Context, tx *repository.Repositories, actor *models.Person, a *models.RotationAssignment, decision models.AdminDecision, notes string) (*models.RotationApproval, error) {
	approval, err := tx.Approvals.GetByAssignmentID(ctx, a.ID)
	if err != nil {
		return nil, internalError("failed to load approval", err)
	}
	if approval == nil {
		approval = &models.RotationApproval{AssignmentID: a.ID, SupervisorRecommendation: models.RecommendPending}
	}

	now := s.clock.Now().UTC()
	approval.AdminDecision = decision
	approval.AdminID = &actor.ID
	approval.AdminNotes = notes
	approval.AdminAt = &now

	if err := tx.Approvals.Save(ctx, approval); err != nil {
		return nil, internalError("failed to save approval", err)
	}
	return approval, nil
}

func (s *ApprovalService) approve(ctx context.Context, tx *repository.Repositories, actor *models.Person, a *models.RotationAssignment, input AdminDecisionInput, result *AdminDecisionResult, batch *eventBatch) error {
	a.Status = models.AssignmentCompleted
	if err := tx.Assignments.Update(ctx, a); err != nil {
		return internalError("failed to complete assignment", err)
	}

	summary := ""
	if result.Evidence != nil {
		summary = result.Evidence.Summary()
	}
	if err := s.archive(ctx, tx, a, string(models.AdminApprove), summary, &actor.ID); err != nil {
		return err
	}

	plan, err := planFor(ctx, tx, a)
	if err != nil {
		return err
	}

	next, err := s.nextByPath(ctx, tx, a, plan)
	if err != nil {
		return err
	}

	if next == nil && input.Next != nil {
		next, err = s.buildNext(ctx, tx, a, plan, input.Next, result, batch)
		if err != nil {
			return err
		}
	}

	approvedPayload := assignmentPayload(a)
	approvedPayload["approval_id"] = result.Approval.ID
	batch.add(EventApprovalApproved, approvedPayload)
	batch.add(EventRotationCompleted, assignmentPayload(a))

	if next != nil {
		if err := s.activate(ctx, tx, next, batch); err != nil {
			return err
		}
		result.Next = next
		return nil
	}

	if !input.FinalRotation {
		return conflictError("следующая ротация не найдена: укажите ее или подтвердите завершение плана", map[string]interface{}{
			"assignment_id":  a.ID,
			"final_rotation": false,
		})
	}

	if err := setPlanStatus(ctx, tx, plan, models.PlanCompleted); err != nil {
		return err
	}
	result.PlanCompleted = true
	return nil
}

// nextByPath ищет следующее назначение по маршруту плана: самое раннее UPCOMING
// в отделении, которое идет за текущим. Если текущего отделения в маршруте нет
// (или нет плана), берется самое раннее UPCOMING вообще
func (s *ApprovalService) nextByPath(ctx context.Context, tx *repository.Repositories, a *models.RotationAssignment, plan *models.RotationPlan) (*models.RotationAssignment, error) {
	if plan != nil && plan.Contains(a.DepartmentID) {
		ordinal, err := pathOrdinal(ctx, tx, a, plan)
		if err != nil {
			return nil, err
		}
		nextDept, ok := plan.NextInPath(a.DepartmentID, ordinal)
		if !ok {
			return nil, nil
		}
		next, err := tx.Assignments.EarliestUpcoming(ctx, a.PersonID, &nextDept)
		if err != nil {
			return nil, internalError("failed to find next assignment", err)
		}
		return next, nil
	}

	next, err := tx.Assignments.EarliestUpcoming(ctx, a.PersonID, nil)
	if err != nil {
		return nil, internalError("failed to find next assignment", err)
	}
	return next, nil
}

// pathOrdinal - сколько назначений человека по маршруту плана начинается раньше a.
// Назначения в отделениях вне маршрута не считаются
func pathOrdinal(ctx context.Context, tx *repository.Repositories, a *models.RotationAssignment, plan *models.RotationPlan) (int, error) {
	assignments, err := tx.Assignments.ListByPerson(ctx, a.PersonID)
	if err != nil {
		return 0, internalError("failed to list assignments", err)
	}

	ordinal := 0
	for i := range assignments {
		other := &assignments[i]
		if other.ID == a.ID || !plan.Contains(other.DepartmentID) {
			continue
		}
		if other.PlanID != nil && *other.PlanID != plan.ID {
			continue
		}
		if other.StartDate.Before(a.StartDate) || (other.StartDate.Equal(a.StartDate) && other.ID < a.ID) {
			ordinal++
		}
	}
	return ordinal, nil
}

// buildNext готовит назначение из строки, переданной администратором
func (s *ApprovalService) buildNext(ctx context.Context, tx *repository.Repositories, a *models.RotationAssignment, plan *models.RotationPlan, row *ScheduleRow, result *AdminDecisionResult, batch *eventBatch) (*models.RotationAssignment, error) {
	defaultStart := a.EndDate.AddDate(0, 0, 1)
	rows, err := NormalizeSchedule([]ScheduleRow{*row}, &defaultStart)
	if err != nil {
		return nil, err
	}
	scheduled := rows[0]

	dept, err := tx.Departments.GetByID(ctx, scheduled.DepartmentID)
	if err != nil {
		return nil, internalError("failed to load department", err)
	}
	if dept == nil {
		return nil, validationError("отделение следующей ротации не найдено")
	}
	if dept.OrganizationID != a.OrganizationID {
		return nil, conflictError("отделение принадлежит другой организации", map[string]interface{}{
			"department_id": dept.ID,
		})
	}

	next := &models.RotationAssignment{
		PlanID:         a.PlanID,
		PersonID:       a.PersonID,
		OrganizationID: a.OrganizationID,
		DepartmentID:   scheduled.DepartmentID,
		StartDate:      scheduled.StartDate,
		EndDate:        scheduled.EndDate,
		DurationType:   scheduled.DurationType,
		DurationValue:  scheduled.DurationValue,
		SupervisorID:   scheduled.SupervisorID,
		Status:         models.AssignmentActive,
	}
	if plan != nil && next.PlanID == nil {
		next.PlanID = &plan.ID
	}
	if err := ensureNoOverlap(ctx, tx, next); err != nil {
		return nil, err
	}

	if plan != nil && !plan.Contains(next.DepartmentID) {
		result.PathDeviation = true
		batch.add(EventPathDeviation, map[string]interface{}{
			"assignment_id": a.ID,
			"person_id":     a.PersonID,
			"department_id": next.DepartmentID,
			"plan_id":       plan.ID,
		})
		s.logger.WithFields(logrus.Fields{
			"person_id":     a.PersonID,
			"department_id": next.DepartmentID,
		}).Warn("Next assignment is outside the rotation path")
	}

	return next, nil
}
