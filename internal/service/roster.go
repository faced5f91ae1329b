package service

import (
	"context"
	"rotation-workflow/internal/config"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"rotation-workflow/pkg/calendar"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ReasonPlanMissing           = "ROTATION_PLAN_MISSING"
	ReasonDueSoon               = "DUE_SOON"
	ReasonApprovalPending       = "APPROVAL_PENDING"
	ReasonBelowAttendance       = "BELOW_ATTENDANCE"
	ReasonUnresolvedCorrections = "UNRESOLVED_CORRECTIONS"
)

type RosterQuery struct {
	DepartmentID *uint
	Roles        []models.Role
	Now          *time.Time
}

type RosterEntry struct {
	PersonID       uint              `json:"person_id"`
	Name           string            `json:"name"`
	Role           models.Role       `json:"role"`
	Department     string            `json:"department"`
	Source         Source            `json:"source"`
	Current        *Placement        `json:"current,omitempty"`
	Progress       *float64          `json:"progress,omitempty"`
	ApprovalStatus string            `json:"approval_status,omitempty"`
	Evidence       *Evidence         `json:"evidence,omitempty"`
	PlanStatus     models.PlanStatus `json:"plan_status,omitempty"`
	ActionNeeded   bool              `json:"action_needed"`
	Reasons        []string          `json:"reasons"`
}

// RosterService - сводка по всем людям организации
type RosterService struct {
	readModel
}

func NewRosterService(
	repos *repository.Repositories,
	evidence *EvidenceService,
	events EventLogger,
	rules config.RotationRules,
	clock Clock,
) *RosterService {
	return &RosterService{readModel: newReadModel(repos, evidence, events, rules, clock)}
}

// Roster строит сводку. Связанные данные читаются пачками, а не по человеку.
// Первое обнаружение скорого окончания ротации сохраняет отметку и пишет DUE_SOON
func (s *RosterService) Roster(ctx context.Context, actorID uint, query RosterQuery) ([]RosterEntry, error) {
	actor, err := loadActor(ctx, s.repos, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, models.RoleSupervisor, models.RoleAdmin); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if query.Now != nil {
		now = *query.Now
	}
	today := calendar.DayIn(now, s.location())

	roles := query.Roles
	if len(roles) == 0 {
		roles = []models.Role{models.RoleIntern}
	}

	persons, err := s.repos.Persons.ListByOrganization(ctx, actor.OrganizationID, roles, query.DepartmentID)
	if err != nil {
		return nil, internalError("failed to list persons", err)
	}
	if len(persons) == 0 {
		return []RosterEntry{}, nil
	}

	personIDs := make([]uint, len(persons))
	for i := range persons {
		personIDs[i] = persons[i].ID
	}

	assignments, err := s.repos.Assignments.ListByPersons(ctx, personIDs)
	if err != nil {
		return nil, internalError("failed to list assignments", err)
	}
	byPerson := make(map[uint][]models.RotationAssignment)
	for _, a := range assignments {
		byPerson[a.PersonID] = append(byPerson[a.PersonID], a)
	}

	plans, err := s.repos.Plans.GetByPersonIDs(ctx, personIDs)
	if err != nil {
		return nil, internalError("failed to load plans", err)
	}
	planByPerson := make(map[uint]*models.RotationPlan, len(plans))
	for i := range plans {
		planByPerson[plans[i].PersonID] = &plans[i]
	}

	resolutions := make([]Resolution, len(persons))
	var currentIDs, departmentIDs, supervisorIDs []uint
	for i := range persons {
		res := s.resolver.Resolve(LegacyInput{Person: &persons[i], Assignments: byPerson[persons[i].ID]})
		resolutions[i] = res
		if c := res.Current; c != nil {
			if c.AssignmentID != nil {
				currentIDs = append(currentIDs, *c.AssignmentID)
			}
			if c.DepartmentID != nil {
				departmentIDs = append(departmentIDs, *c.DepartmentID)
			}
			if c.SupervisorID != nil {
				supervisorIDs = append(supervisorIDs, *c.SupervisorID)
			}
		}
	}

	approvals, err := s.repos.Approvals.GetByAssignmentIDs(ctx, currentIDs)
	if err != nil {
		return nil, internalError("failed to load approvals", err)
	}
	approvalByAssignment := make(map[uint]*models.RotationApproval, len(approvals))
	for i := range approvals {
		approvalByAssignment[approvals[i].AssignmentID] = &approvals[i]
	}

	names, err := s.loadNames(ctx, departmentIDs, supervisorIDs)
	if err != nil {
		return nil, err
	}

	alerted, err := s.repos.Alerts.Existing(ctx, currentIDs, models.AlertDueSoon)
	if err != nil {
		return nil, internalError("failed to load alerts", err)
	}

	var requests []EvidenceRequest
	requestIndex := make(map[int]int)
	for i, res := range resolutions {
		if start, end, ok := evidenceWindow(res.Current, today); ok {
			requestIndex[i] = len(requests)
			requests = append(requests, EvidenceRequest{PersonID: persons[i].ID, StartDate: start, EndDate: end})
		}
	}
	evidence, err := s.evidence.ComputeMany(ctx, requests)
	if err != nil {
		return nil, passThrough("failed to compute evidence", err)
	}

	window := today.AddDate(0, 0, s.rules.DueSoonWindowDays)
	entries := make([]RosterEntry, 0, len(persons))
	var dueSoon []*models.RotationAssignment

	for i := range persons {
		person := &persons[i]
		res := resolutions[i]
		names.fill(res.Current)

		entry := RosterEntry{
			PersonID:   person.ID,
			Name:       person.FullName(),
			Role:       person.Role,
			Department: person.Department,
			Source:     res.Source,
			Current:    res.Current,
			Progress:   placementProgress(res.Current, now),
			Reasons:    []string{},
		}

		plan := planByPerson[person.ID]
		if plan != nil {
			entry.PlanStatus = plan.Status
		} else {
			entry.Reasons = append(entry.Reasons, ReasonPlanMissing)
		}

		if c := res.Current; c != nil {
			var approval *models.RotationApproval
			if c.AssignmentID != nil {
				approval = approvalByAssignment[*c.AssignmentID]
			}
			entry.ApprovalStatus = c.ApprovalStatus
			if status := approval.Status(); status != "" {
				entry.ApprovalStatus = status
			}
			c.ApprovalStatus = entry.ApprovalStatus

			if c.AssignmentID != nil && !c.Status.IsTerminal() && c.EndDate != nil {
				end := calendar.Day(*c.EndDate)
				if !end.Before(today) && !end.After(window) && !alerted[*c.AssignmentID] {
					entry.Reasons = append(entry.Reasons, ReasonDueSoon)
					a := currentOf(byPerson[person.ID], *c.AssignmentID)
					if a != nil {
						dueSoon = append(dueSoon, a)
					}
				}
			}

			if approval.IsPending() || c.Status == models.AssignmentPendingReview {
				entry.Reasons = append(entry.Reasons, ReasonApprovalPending)
			}
		}

		if idx, ok := requestIndex[i]; ok {
			ev := evidence[idx]
			entry.Evidence = &ev
			if ev.ExpectedHours > 0 && !ev.MeetsThreshold(s.rules.AttendanceThreshold) {
				entry.Reasons = append(entry.Reasons, ReasonBelowAttendance)
			}
			if ev.UnresolvedCorrectionsCount > 0 {
				entry.Reasons = append(entry.Reasons, ReasonUnresolvedCorrections)
			}
		}

		entry.ActionNeeded = len(entry.Reasons) > 0
		entries = append(entries, entry)
	}

	s.recordDueSoon(ctx, actor.ID, dueSoon)

	s.logger.WithFields(logrus.Fields{
		"actor_id": actor.ID,
		"persons":  len(entries),
		"due_soon": len(dueSoon),
	}).Info("Roster built")

	return entries, nil
}

func currentOf(assignments []models.RotationAssignment, id uint) *models.RotationAssignment {
	for i := range assignments {
		if assignments[i].ID == id {
			return &assignments[i]
		}
	}
	return nil
}

// recordDueSoon сохраняет отметки о скором окончании; событие пишется
// только для отметок, которых до этого не было
func (s *RosterService) recordDueSoon(ctx context.Context, actorID uint, assignments []*models.RotationAssignment) {
	batch := &eventBatch{}
	for _, a := range assignments {
		created, err := s.repos.Alerts.Create(ctx, a.ID, models.AlertDueSoon)
		if err != nil {
			s.logger.WithError(err).WithField("assignment_id", a.ID).Error("Failed to store due-soon alert")
			continue
		}
		if created {
			batch.add(EventDueSoon, assignmentPayload(a))
		}
	}
	batch.flush(ctx, s.events, actorID, s.logger)
}
