package service

import (
	"context"
	"rotation-workflow/internal/config"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"rotation-workflow/pkg/calendar"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type EvaluateInput struct {
	Recommendation models.Recommendation
	Notes          string
}

type DecideInput struct {
	Status     models.AssignmentStatus
	Notes      string
	Override   bool
	ReviewDate *time.Time
	EndDate    *time.Time
}

// DecisionResult - итог прямого решения по назначению
type DecisionResult struct {
	Assignment *models.RotationAssignment `json:"assignment"`
	Next       *models.RotationAssignment `json:"next,omitempty"`
	Evidence   *Evidence                  `json:"evidence,omitempty"`
	PlanStatus models.PlanStatus          `json:"plan_status,omitempty"`
}

// AssignmentService - переходы назначения: оценка руководителя и прямые решения
type AssignmentService struct {
	workflow
}

func NewAssignmentService(
	repos *repository.Repositories,
	evidence *EvidenceService,
	events EventLogger,
	rules config.RotationRules,
	clock Clock,
) *AssignmentService {
	return &AssignmentService{workflow: newWorkflow(repos, evidence, events, rules, clock)}
}

// Evaluate записывает рекомендацию руководителя и переводит назначение в PENDING_REVIEW.
// Решение администратора при этом сбрасывается в PENDING
func (s *AssignmentService) Evaluate(ctx context.Context, actorID, assignmentID uint, input EvaluateInput) (*models.RotationAssignment, *models.RotationApproval, error) {
	s.logger.WithFields(logrus.Fields{
		"actor_id":       actorID,
		"assignment_id":  assignmentID,
		"recommendation": input.Recommendation,
	}).Info("Submitting evaluation")

	switch input.Recommendation {
	case models.RecommendApprove, models.RecommendExtend, models.RecommendReject:
	default:
		return nil, nil, validationError("рекомендация должна быть APPROVE, EXTEND или REJECT")
	}

	actor, err := loadActor(ctx, s.repos, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireRole(actor, models.RoleSupervisor, models.RoleAdmin); err != nil {
		return nil, nil, err
	}

	a, err := s.loadAssignment(ctx, s.repos, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireSameOrganization(actor, a.OrganizationID); err != nil {
		return nil, nil, err
	}
	if actor.IsSupervisor() && a.SupervisorID != nil && *a.SupervisorID != actor.ID {
		return nil, nil, authorizationError("назначение закреплено за другим руководителем")
	}

	switch a.Status {
	case models.AssignmentActive, models.AssignmentPendingApproval, models.AssignmentRegress:
	default:
		return nil, nil, conflictError("назначение нельзя отправить на оценку в текущем статусе", map[string]interface{}{
			"status": a.Status,
		})
	}

	batch := &eventBatch{}
	var approval *models.RotationApproval
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		a.Status = models.AssignmentPendingReview
		if err := tx.Assignments.Update(ctx, a); err != nil {
			return internalError("failed to update assignment", err)
		}

		approval, err = tx.Approvals.GetByAssignmentID(ctx, a.ID)
		if err != nil {
			return internalError("failed to load approval", err)
		}
		if approval == nil {
			approval = &models.RotationApproval{AssignmentID: a.ID}
		}

		now := s.clock.Now().UTC()
		approval.SupervisorRecommendation = input.Recommendation
		approval.SupervisorID = &actor.ID
		approval.SupervisorNotes = strings.TrimSpace(input.Notes)
		approval.SupervisorAt = &now
		approval.AdminDecision = models.AdminPending
		approval.AdminID = nil
		approval.AdminNotes = ""
		approval.AdminAt = nil

		if err := tx.Approvals.Save(ctx, approval); err != nil {
			return internalError("failed to save approval", err)
		}

		payload := assignmentPayload(a)
		payload["recommendation"] = string(input.Recommendation)
		batch.add(EventEvaluationSubmitted, payload)
		batch.add(EventApprovalPending, map[string]interface{}{
			"assignment_id": a.ID,
			"person_id":     a.PersonID,
			"approval_id":   approval.ID,
		})
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("assignment_id", assignmentID).Error("Failed to submit evaluation")
		return nil, nil, passThrough("failed to submit evaluation", err)
	}

	batch.flush(ctx, s.events, actor.ID, s.logger)

	s.logger.WithFields(logrus.Fields{
		"assignment_id": a.ID,
		"approval_id":   approval.ID,
	}).Info("Evaluation submitted")

	return a, approval, nil
}

// Decide выполняет прямое решение COMPLETED, REGRESS или DECLINED.
// Каждое решение добавляет строку в журнал решений и в историю ротаций
func (s *AssignmentService) Decide(ctx context.Context, actorID, assignmentID uint, input DecideInput) (*DecisionResult, error) {
	s.logger.WithFields(logrus.Fields{
		"actor_id":      actorID,
		"assignment_id": assignmentID,
		"status":        input.Status,
		"override":      input.Override,
	}).Info("Deciding assignment")

	notes := strings.TrimSpace(input.Notes)
	switch input.Status {
	case models.AssignmentCompleted:
		if input.Override && notes == "" {
			return nil, validationError("для обхода проверки посещаемости нужен комментарий")
		}
	case models.AssignmentRegress, models.AssignmentDeclined:
		if notes == "" {
			return nil, validationError("для этого решения нужен комментарий")
		}
	default:
		return nil, validationError("решение должно быть COMPLETED, REGRESS или DECLINED")
	}

	actor, err := loadActor(ctx, s.repos, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, models.RoleSupervisor, models.RoleAdmin); err != nil {
		return nil, err
	}

	a, err := s.loadAssignment(ctx, s.repos, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := requireSameOrganization(actor, a.OrganizationID); err != nil {
		return nil, err
	}
	if a.Status.IsTerminal() {
		return nil, conflictError("назначение уже закрыто", map[string]interface{}{"status": a.Status})
	}

	batch := &eventBatch{}
	result := &DecisionResult{}

	switch input.Status {
	case models.AssignmentCompleted:
		ev, err := s.checkEvidenceGate(ctx, a, actor.ID, input.Override, notes, batch)
		if err != nil {
			return nil, err
		}
		result.Evidence = ev
		err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
			return s.complete(ctx, tx, actor, a, notes, input.Override, ev, result, batch)
		})
		if err != nil {
			return nil, passThrough("failed to complete assignment", err)
		}

	case models.AssignmentRegress:
		err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
			return s.regress(ctx, tx, actor, a, notes, input, batch)
		})
		if err != nil {
			return nil, passThrough("failed to regress assignment", err)
		}

	case models.AssignmentDeclined:
		err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
			return s.decline(ctx, tx, actor, a, notes, result, batch)
		})
		if err != nil {
			return nil, passThrough("failed to decline assignment", err)
		}
	}

	batch.flush(ctx, s.events, actor.ID, s.logger)
	result.Assignment = a

	s.logger.WithFields(logrus.Fields{
		"assignment_id": a.ID,
		"status":        a.Status,
	}).Info("Assignment decided")

	return result, nil
}

func (s *AssignmentService) record(ctx context.Context, tx *repository.Repositories, actor *models.Person, a *models.RotationAssignment, decision models.DecisionType, notes string, override bool) error {
	entry := &models.RotationDecision{
		AssignmentID: a.ID,
		Decision:     decision,
		Notes:        notes,
		Override:     override,
		ActorID:      actor.ID,
		DecidedAt:    s.clock.Now().UTC(),
	}
	if err := tx.Decisions.Create(ctx, entry); err != nil {
		return internalError("failed to record decision", err)
	}
	return nil
}

func adminIDOf(actor *models.Person) *uint {
	if actor.IsAdmin() {
		id := actor.ID
		return &id
	}
	return nil
}

func (s *AssignmentService) complete(ctx context.Context, tx *repository.Repositories, actor *models.Person, a *models.RotationAssignment, notes string, override bool, ev *Evidence, result *DecisionResult, batch *eventBatch) error {
	a.Status = models.AssignmentCompleted
	if notes != "" {
		a.Notes = notes
	}
	if err := tx.Assignments.Update(ctx, a); err != nil {
		return internalError("failed to complete assignment", err)
	}
	if err := s.record(ctx, tx, actor, a, models.DecisionCompleted, notes, override); err != nil {
		return err
	}
	if err := s.archive(ctx, tx, a, string(models.DecisionCompleted), ev.Summary(), adminIDOf(actor)); err != nil {
		return err
	}
	batch.add(EventRotationCompleted, assignmentPayload(a))

	next, err := tx.Assignments.EarliestUpcoming(ctx, a.PersonID, nil)
	if err != nil {
		return internalError("failed to find next assignment", err)
	}
	if next != nil {
		if err := s.activate(ctx, tx, next, batch); err != nil {
			return err
		}
		result.Next = next
		return nil
	}

	plan, err := planFor(ctx, tx, a)
	if err != nil {
		return err
	}
	if err := setPlanStatus(ctx, tx, plan, models.PlanCompleted); err != nil {
		return err
	}
	if plan != nil {
		result.PlanStatus = plan.Status
	}
	return nil
}

func (s *AssignmentService) regress(ctx context.Context, tx *repository.Repositories, actor *models.Person, a *models.RotationAssignment, notes string, input DecideInput, batch *eventBatch) error {
	if err := ensureSingleCurrent(ctx, tx, a.PersonID, a.ID); err != nil {
		return err
	}

	if input.EndDate != nil {
		end := calendar.Day(*input.EndDate)
		if end.Before(calendar.Day(a.StartDate)) {
			return validationError("новая дата окончания раньше даты начала")
		}
		a.EndDate = end
		if err := ensureNoOverlap(ctx, tx, a); err != nil {
			return err
		}
	}

	review := a.EndDate.AddDate(0, 0, s.rules.RegressReviewDays)
	if input.ReviewDate != nil {
		review = calendar.Day(*input.ReviewDate)
	}
	a.ReviewDate = &review
	a.Status = models.AssignmentRegress
	a.Notes = notes

	if err := tx.Assignments.Update(ctx, a); err != nil {
		return internalError("failed to regress assignment", err)
	}
	if err := s.record(ctx, tx, actor, a, models.DecisionRegress, notes, false); err != nil {
		return err
	}
	if err := s.archive(ctx, tx, a, string(models.DecisionRegress), notes, adminIDOf(actor)); err != nil {
		return err
	}

	payload := assignmentPayload(a)
	payload["review_date"] = calendar.FormatDate(review)
	payload["notes"] = notes
	batch.add(EventRotationRegressed, payload)
	return nil
}

func (s *AssignmentService) decline(ctx context.Context, tx *repository.Repositories, actor *models.Person, a *models.RotationAssignment, notes string, result *DecisionResult, batch *eventBatch) error {
	a.Status = models.AssignmentDeclined
	a.Notes = notes
	if err := tx.Assignments.Update(ctx, a); err != nil {
		return internalError("failed to decline assignment", err)
	}
	if err := s.record(ctx, tx, actor, a, models.DecisionDeclined, notes, false); err != nil {
		return err
	}
	if err := s.archive(ctx, tx, a, string(models.DecisionDeclined), notes, adminIDOf(actor)); err != nil {
		return err
	}

	plan, err := planFor(ctx, tx, a)
	if err != nil {
		return err
	}
	if err := setPlanStatus(ctx, tx, plan, models.PlanRequiresAction); err != nil {
		return err
	}
	if plan != nil {
		result.PlanStatus = plan.Status
	}

	payload := assignmentPayload(a)
	payload["notes"] = notes
	batch.add(EventRotationDeclined, payload)
	return nil
}
