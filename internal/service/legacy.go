package service

import (
	"fmt"
	"rotation-workflow/internal/models"
	"rotation-workflow/pkg/calendar"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source - откуда взято представление о ротациях человека
type Source string

const (
	SourceRelational Source = "relational"
	SourceLegacyPlan Source = "legacy_plan"
	SourceDepartment Source = "department"
	SourceNone       Source = "none"
)

// syntheticNamespace - пространство имен для детерминированных идентификаторов
var syntheticNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rotation-workflow/legacy-placement"))

// SyntheticID строит стабильный идентификатор для записи, собранной из старых данных
func SyntheticID(personID uint, source Source) string {
	return uuid.NewSHA1(syntheticNamespace, []byte(fmt.Sprintf("person:%d:%s", personID, source))).String()
}

// Placement - назначение в представлении для чтения: настоящее или восстановленное
type Placement struct {
	ID             string                  `json:"id"`
	AssignmentID   *uint                   `json:"assignment_id,omitempty"`
	DepartmentID   *uint                   `json:"department_id,omitempty"`
	DepartmentName string                  `json:"department_name"`
	StartDate      *time.Time              `json:"start_date,omitempty"`
	EndDate        *time.Time              `json:"end_date,omitempty"`
	Status         models.AssignmentStatus `json:"status"`
	SupervisorID   *uint                   `json:"supervisor_id,omitempty"`
	SupervisorName string                  `json:"supervisor_name,omitempty"`
	ApprovalStatus string                  `json:"approval_status,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	Synthetic      bool                    `json:"synthetic"`
}

// Resolution - результат разрешения текущего положения человека
type Resolution struct {
	Source      Source
	Current     *Placement
	Assignments []Placement
}

// LegacyInput - все, что известно о человеке для разрешения
type LegacyInput struct {
	Person      *models.Person
	Assignments []models.RotationAssignment
	History     []models.RotationHistory
}

// ResolverStrategy - одна ступень цепочки: ok=false передает ход следующей
type ResolverStrategy interface {
	Resolve(in LegacyInput) (Resolution, bool)
}

// LegacyResolver перебирает стратегии по порядку до первой сработавшей
type LegacyResolver struct {
	strategies []ResolverStrategy
}

func NewLegacyResolver(strategies ...ResolverStrategy) *LegacyResolver {
	if len(strategies) == 0 {
		strategies = []ResolverStrategy{
			relationalStrategy{},
			embeddedPlanStrategy{},
			departmentStringStrategy{},
		}
	}
	return &LegacyResolver{strategies: strategies}
}

func (r *LegacyResolver) Resolve(in LegacyInput) Resolution {
	for _, s := range r.strategies {
		if res, ok := s.Resolve(in); ok {
			return res
		}
	}
	return Resolution{Source: SourceNone}
}

type relationalStrategy struct{}

func (relationalStrategy) Resolve(in LegacyInput) (Resolution, bool) {
	if len(in.Assignments) == 0 && len(in.History) == 0 {
		return Resolution{}, false
	}

	sorted := append([]models.RotationAssignment(nil), in.Assignments...)
	models.SortByStart(sorted)

	res := Resolution{Source: SourceRelational, Assignments: make([]Placement, 0, len(sorted))}
	for i := range sorted {
		res.Assignments = append(res.Assignments, placementOf(&sorted[i]))
	}
	if current := models.CurrentAssignment(sorted); current != nil {
		p := placementOf(current)
		res.Current = &p
	}
	return res, true
}

func placementOf(a *models.RotationAssignment) Placement {
	id, dept := a.ID, a.DepartmentID
	start, end := a.StartDate, a.EndDate
	return Placement{
		ID:           strconv.FormatUint(uint64(a.ID), 10),
		AssignmentID: &id,
		DepartmentID: &dept,
		StartDate:    &start,
		EndDate:      &end,
		Status:       a.Status,
		SupervisorID: a.SupervisorID,
		Notes:        a.Notes,
	}
}

type embeddedPlanStrategy struct{}

func (embeddedPlanStrategy) Resolve(in LegacyInput) (Resolution, bool) {
	if in.Person == nil {
		return Resolution{}, false
	}
	legacy := in.Person.LegacyRotation.Data()
	if legacy.IsEmpty() {
		return Resolution{}, false
	}

	p := Placement{
		ID:             SyntheticID(in.Person.ID, SourceLegacyPlan),
		DepartmentName: legacy.Department(),
		StartDate:      parseLegacyDate(legacy.StartDate),
		EndDate:        parseLegacyDate(legacy.EndDate),
		Status:         models.MapLegacyStatus(legacy.Status),
		SupervisorName: strings.TrimSpace(legacy.Supervisor),
		Notes:          legacy.Notes,
		Synthetic:      true,
	}
	if outcome := models.MapLegacyOutcome(legacy.ApprovalOutcome); outcome.IsFinal() {
		p.ApprovalStatus = string(outcome)
	} else if strings.TrimSpace(legacy.ApprovalOutcome) != "" {
		p.ApprovalStatus = string(models.AdminPending)
	}

	return Resolution{Source: SourceLegacyPlan, Current: &p, Assignments: []Placement{p}}, true
}

func parseLegacyDate(value string) *time.Time {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if t, err := calendar.ParseDate(value); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(value)); err == nil {
		d := calendar.Day(t)
		return &d
	}
	return nil
}

type departmentStringStrategy struct{}

func (departmentStringStrategy) Resolve(in LegacyInput) (Resolution, bool) {
	if in.Person == nil || strings.TrimSpace(in.Person.Department) == "" {
		return Resolution{}, false
	}

	p := Placement{
		ID:             SyntheticID(in.Person.ID, SourceDepartment),
		DepartmentID:   in.Person.DepartmentID,
		DepartmentName: strings.TrimSpace(in.Person.Department),
		Status:         models.AssignmentActive,
		Synthetic:      true,
	}
	return Resolution{Source: SourceDepartment, Current: &p, Assignments: []Placement{p}}, true
}
