package service

import (
	"context"
	"fmt"
	"rotation-workflow/internal/config"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"rotation-workflow/pkg/calendar"
	"time"
)

type PersonSummary struct {
	ID             uint        `json:"id"`
	Name           string      `json:"name"`
	Role           models.Role `json:"role"`
	OrganizationID uint        `json:"organization_id"`
	Department     string      `json:"department"`
	DepartmentID   *uint       `json:"department_id,omitempty"`
}

type HistoryEntry struct {
	models.RotationHistory
	DepartmentName string `json:"department_name"`
	SupervisorName string `json:"supervisor_name,omitempty"`
	AdminName      string `json:"admin_name,omitempty"`
}

type PathStep struct {
	DepartmentID   uint   `json:"department_id"`
	DepartmentName string `json:"department_name"`
}

type PlanView struct {
	ID        uint              `json:"id"`
	Status    models.PlanStatus `json:"status"`
	StartDate time.Time         `json:"start_date"`
	EndDate   time.Time         `json:"end_date"`
	Path      []PathStep        `json:"path"`
}

type Timeline struct {
	Person         PersonSummary            `json:"person"`
	Source         Source                   `json:"source"`
	Current        *Placement               `json:"current,omitempty"`
	Assignments    []Placement              `json:"assignments"`
	History        []HistoryEntry           `json:"history"`
	Approval       *models.RotationApproval `json:"approval,omitempty"`
	ApprovalStatus string                   `json:"approval_status,omitempty"`
	Evidence       *Evidence                `json:"evidence,omitempty"`
	Plan           *PlanView                `json:"plan,omitempty"`
}

// timelineData - сырые данные, из которых собрана хронология; нужны досье
type timelineData struct {
	actor       *models.Person
	person      *models.Person
	assignments []models.RotationAssignment
	plan        *models.RotationPlan
	names       *nameBook
	today       time.Time
}

// TimelineService - хронология ротаций одного человека
type TimelineService struct {
	readModel
}

func NewTimelineService(
	repos *repository.Repositories,
	evidence *EvidenceService,
	events EventLogger,
	rules config.RotationRules,
	clock Clock,
) *TimelineService {
	return &TimelineService{readModel: newReadModel(repos, evidence, events, rules, clock)}
}

func (s *TimelineService) Timeline(ctx context.Context, actorID, personID uint) (*Timeline, error) {
	timeline, _, err := s.build(ctx, actorID, personID)
	return timeline, err
}

func (s *TimelineService) build(ctx context.Context, actorID, personID uint) (*Timeline, *timelineData, error) {
	actor, err := loadActor(ctx, s.repos, actorID)
	if err != nil {
		return nil, nil, err
	}

	person, err := s.repos.Persons.GetByID(ctx, personID)
	if err != nil {
		return nil, nil, internalError("failed to load person", err)
	}
	if person == nil {
		return nil, nil, notFoundError(fmt.Sprintf("сотрудник %d не найден", personID))
	}
	if err := canView(actor, person); err != nil {
		return nil, nil, err
	}

	assignments, err := s.repos.Assignments.ListByPerson(ctx, person.ID)
	if err != nil {
		return nil, nil, internalError("failed to list assignments", err)
	}
	history, err := s.repos.History.ListByPerson(ctx, person.ID)
	if err != nil {
		return nil, nil, internalError("failed to list history", err)
	}
	plan, err := s.repos.Plans.GetByPersonID(ctx, person.ID)
	if err != nil {
		return nil, nil, internalError("failed to load plan", err)
	}

	res := s.resolver.Resolve(LegacyInput{Person: person, Assignments: assignments, History: history})

	var departmentIDs, personIDs []uint
	for _, a := range assignments {
		departmentIDs = append(departmentIDs, a.DepartmentID)
		if a.SupervisorID != nil {
			personIDs = append(personIDs, *a.SupervisorID)
		}
	}
	for _, h := range history {
		departmentIDs = append(departmentIDs, h.DepartmentID)
		if h.SupervisorID != nil {
			personIDs = append(personIDs, *h.SupervisorID)
		}
		if h.AdminID != nil {
			personIDs = append(personIDs, *h.AdminID)
		}
	}
	if plan != nil {
		departmentIDs = append(departmentIDs, plan.RotationPath...)
	}
	if res.Current != nil && res.Current.DepartmentID != nil {
		departmentIDs = append(departmentIDs, *res.Current.DepartmentID)
	}

	names, err := s.loadNames(ctx, departmentIDs, personIDs)
	if err != nil {
		return nil, nil, err
	}

	timeline := &Timeline{
		Person: PersonSummary{
			ID:             person.ID,
			Name:           person.FullName(),
			Role:           person.Role,
			OrganizationID: person.OrganizationID,
			Department:     person.Department,
			DepartmentID:   person.DepartmentID,
		},
		Source:      res.Source,
		Current:     res.Current,
		Assignments: res.Assignments,
		History:     make([]HistoryEntry, 0, len(history)),
	}
	if timeline.Assignments == nil {
		timeline.Assignments = []Placement{}
	}
	for i := range timeline.Assignments {
		names.fill(&timeline.Assignments[i])
	}
	names.fill(timeline.Current)

	for _, h := range history {
		dept := h.DepartmentID
		timeline.History = append(timeline.History, HistoryEntry{
			RotationHistory: h,
			DepartmentName:  names.department(&dept),
			SupervisorName:  names.person(h.SupervisorID),
			AdminName:       names.person(h.AdminID),
		})
	}

	if plan != nil {
		view := &PlanView{ID: plan.ID, Status: plan.Status, StartDate: plan.StartDate, EndDate: plan.EndDate, Path: []PathStep{}}
		for _, id := range plan.RotationPath {
			dept := id
			view.Path = append(view.Path, PathStep{DepartmentID: id, DepartmentName: names.department(&dept)})
		}
		timeline.Plan = view
	}

	if c := timeline.Current; c != nil {
		timeline.ApprovalStatus = c.ApprovalStatus
		if c.AssignmentID != nil {
			approval, err := s.repos.Approvals.GetByAssignmentID(ctx, *c.AssignmentID)
			if err != nil {
				return nil, nil, internalError("failed to load approval", err)
			}
			timeline.Approval = approval
			if status := approval.Status(); status != "" {
				timeline.ApprovalStatus = status
			}
			c.ApprovalStatus = timeline.ApprovalStatus
		}
	}

	today := calendar.DayIn(s.clock.Now(), s.location())
	if start, end, ok := evidenceWindow(timeline.Current, today); ok {
		ev, err := s.evidence.ComputeEvidence(ctx, person.ID, start, end)
		if err != nil {
			return nil, nil, passThrough("failed to compute evidence", err)
		}
		timeline.Evidence = ev
	}

	data := &timelineData{
		actor:       actor,
		person:      person,
		assignments: assignments,
		plan:        plan,
		names:       names,
		today:       today,
	}
	return timeline, data, nil
}

// Evidence считает показатели посещаемости человека за произвольный период
// с теми же правами просмотра, что и хронология
func (s *TimelineService) Evidence(ctx context.Context, actorID, personID uint, start, end time.Time) (*Evidence, error) {
	actor, err := loadActor(ctx, s.repos, actorID)
	if err != nil {
		return nil, err
	}
	person, err := s.repos.Persons.GetByID(ctx, personID)
	if err != nil {
		return nil, internalError("failed to load person", err)
	}
	if person == nil {
		return nil, notFoundError(fmt.Sprintf("сотрудник %d не найден", personID))
	}
	if err := canView(actor, person); err != nil {
		return nil, err
	}
	return s.evidence.ComputeEvidence(ctx, person.ID, start, end)
}
