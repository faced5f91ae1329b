package service

import (
	"context"
	"fmt"
	"rotation-workflow/internal/config"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type PlanInput struct {
	PersonID  uint
	StartDate *time.Time
	Rows      []ScheduleRow
}

type PlanResult struct {
	Plan        *models.RotationPlan        `json:"plan"`
	Assignments []models.RotationAssignment `json:"assignments"`
	Created     bool                        `json:"created"`
}

// PlanService - маршрут ротаций человека и его назначения
type PlanService struct {
	repos  *repository.Repositories
	events EventLogger
	rules  config.RotationRules
	logger *logrus.Logger
}

func NewPlanService(repos *repository.Repositories, events EventLogger, rules config.RotationRules) *PlanService {
	return &PlanService{
		repos:  repos,
		events: events,
		rules:  rules,
		logger: newLogger(),
	}
}

// CreateOrReplacePlan создает или заменяет план человека. Все незакрытые назначения
// удаляются и строятся заново по графику: первая строка становится ACTIVE
// (текущее назначение сохраняется, если отделение совпадает), остальные UPCOMING
func (s *PlanService) CreateOrReplacePlan(ctx context.Context, actorID uint, input PlanInput) (*PlanResult, error) {
	s.logger.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"person_id": input.PersonID,
		"rows":      len(input.Rows),
	}).Info("Creating rotation plan")

	rows, err := NormalizeSchedule(input.Rows, input.StartDate)
	if err != nil {
		return nil, err
	}

	actor, err := loadActor(ctx, s.repos, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	person, err := s.repos.Persons.GetByID(ctx, input.PersonID)
	if err != nil {
		return nil, internalError("failed to load person", err)
	}
	if person == nil {
		return nil, notFoundError(fmt.Sprintf("сотрудник %d не найден", input.PersonID))
	}
	if err := requireSameOrganization(actor, person.OrganizationID); err != nil {
		return nil, err
	}

	departments, err := s.checkDepartments(ctx, person.OrganizationID, rows)
	if err != nil {
		return nil, err
	}

	path := make(datatypes.JSONSlice[uint], len(rows))
	for i, r := range rows {
		path[i] = r.DepartmentID
	}

	batch := &eventBatch{}
	result := &PlanResult{}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		existing, err := tx.Assignments.ListByPerson(ctx, person.ID)
		if err != nil {
			return internalError("failed to list assignments", err)
		}

		var terminal, open []models.RotationAssignment
		for _, a := range existing {
			if a.Status.IsTerminal() {
				terminal = append(terminal, a)
			} else {
				open = append(open, a)
			}
		}

		// назначение, которое сейчас в работе, переживает замену плана
		var kept *models.RotationAssignment
		if current := models.CurrentAssignment(open); current != nil && current.Status != models.AssignmentUpcoming {
			if current.DepartmentID != rows[0].DepartmentID {
				return conflictError("первая строка графика не совпадает с текущей ротацией", map[string]interface{}{
					"assignment_id":        current.ID,
					"current_department":   current.DepartmentID,
					"requested_department": rows[0].DepartmentID,
				})
			}
			kept = current
		}

		intervals := make([]Interval, 0, len(terminal)+len(rows))
		for i := range terminal {
			intervals = append(intervals, Interval{
				Label: assignmentLabel(&terminal[i]),
				Start: terminal[i].StartDate,
				End:   terminal[i].EndDate,
			})
		}
		for i, r := range rows {
			intervals = append(intervals, Interval{Label: fmt.Sprintf("row %d", i+1), Start: r.StartDate, End: r.EndDate})
		}
		if err := ValidateNoOverlap(intervals); err != nil {
			return err
		}

		var drop []uint
		for _, a := range open {
			if kept == nil || a.ID != kept.ID {
				drop = append(drop, a.ID)
			}
		}
		if err := tx.Assignments.DeleteByIDs(ctx, drop); err != nil {
			return internalError("failed to delete open assignments", err)
		}

		plan, err := tx.Plans.GetByPersonID(ctx, person.ID)
		if err != nil {
			return internalError("failed to load rotation plan", err)
		}
		result.Created = plan == nil
		if plan == nil {
			plan = &models.RotationPlan{PersonID: person.ID}
		}
		plan.OrganizationID = person.OrganizationID
		plan.RotationPath = path
		plan.Status = models.PlanActive
		plan.StartDate = rows[0].StartDate
		plan.EndDate = rows[len(rows)-1].EndDate
		if err := tx.Plans.Save(ctx, plan); err != nil {
			return internalError("failed to save rotation plan", err)
		}
		result.Plan = plan

		for i, r := range rows {
			a := models.RotationAssignment{
				PlanID:         &plan.ID,
				PersonID:       person.ID,
				OrganizationID: person.OrganizationID,
				DepartmentID:   r.DepartmentID,
				StartDate:      r.StartDate,
				EndDate:        r.EndDate,
				DurationType:   r.DurationType,
				DurationValue:  r.DurationValue,
				SupervisorID:   r.SupervisorID,
				Status:         models.AssignmentUpcoming,
			}

			switch {
			case i == 0 && kept != nil:
				a.ID = kept.ID
				a.Status = kept.Status
				a.Notes = kept.Notes
				a.ReviewDate = kept.ReviewDate
				a.CreatedAt = kept.CreatedAt
				if err := tx.Assignments.Update(ctx, &a); err != nil {
					return internalError("failed to update current assignment", err)
				}
			case i == 0:
				a.Status = models.AssignmentActive
				if err := tx.Assignments.Create(ctx, &a); err != nil {
					return internalError("failed to create assignment", err)
				}
			default:
				if err := tx.Assignments.Create(ctx, &a); err != nil {
					return internalError("failed to create assignment", err)
				}
			}
			result.Assignments = append(result.Assignments, a)
		}

		first := result.Assignments[0]
		if person.DepartmentID == nil || *person.DepartmentID != first.DepartmentID {
			name := departments[first.DepartmentID].Name
			if err := tx.Persons.UpdateDepartment(ctx, person.ID, &first.DepartmentID, name); err != nil {
				return internalError("failed to update person department", err)
			}
			batch.add(EventDepartmentChanged, map[string]interface{}{
				"person_id":     person.ID,
				"assignment_id": first.ID,
				"department_id": first.DepartmentID,
				"department":    name,
			})
		}

		eventType := EventPlanUpdated
		if result.Created {
			eventType = EventPlanCreated
		}
		batch.add(eventType, map[string]interface{}{
			"person_id":   person.ID,
			"plan_id":     plan.ID,
			"path":        []uint(path),
			"assignments": len(result.Assignments),
			"dropped":     len(drop),
		})
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("person_id", input.PersonID).Warn("Rotation plan rejected")
		return nil, passThrough("failed to save rotation plan", err)
	}

	batch.flush(ctx, s.events, actor.ID, s.logger)

	s.logger.WithFields(logrus.Fields{
		"person_id": person.ID,
		"plan_id":   result.Plan.ID,
		"created":   result.Created,
	}).Info("Rotation plan saved")

	return result, nil
}

// checkDepartments проверяет, что все отделения графика существуют и принадлежат организации
func (s *PlanService) checkDepartments(ctx context.Context, organizationID uint, rows []ScheduledRow) (map[uint]models.Department, error) {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.DepartmentID)
	}

	departments, err := s.repos.Departments.GetByIDs(ctx, ids)
	if err != nil {
		return nil, internalError("failed to load departments", err)
	}

	byID := make(map[uint]models.Department, len(departments))
	for _, d := range departments {
		byID[d.ID] = d
	}
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, validationError(fmt.Sprintf("отделение %d не найдено", id))
		}
		if d.OrganizationID != organizationID {
			return nil, conflictError("отделение принадлежит другой организации", map[string]interface{}{
				"department_id": id,
			})
		}
	}
	return byID, nil
}
