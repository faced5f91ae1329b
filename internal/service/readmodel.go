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

// readModel - общая основа построителей представлений
type readModel struct {
	repos    *repository.Repositories
	evidence *EvidenceService
	resolver *LegacyResolver
	events   EventLogger
	rules    config.RotationRules
	clock    Clock
	logger   *logrus.Logger
}

func newReadModel(repos *repository.Repositories, evidence *EvidenceService, events EventLogger, rules config.RotationRules, clock Clock) readModel {
	if clock == nil {
		clock = SystemClock()
	}
	return readModel{
		repos:    repos,
		evidence: evidence,
		resolver: NewLegacyResolver(),
		events:   events,
		rules:    rules,
		clock:    clock,
		logger:   newLogger(),
	}
}

func (r *readModel) location() *time.Location {
	if r.rules.Location == nil {
		return time.UTC
	}
	return r.rules.Location
}

// nameBook - имена отделений и людей, загруженные одним запросом на тип
type nameBook struct {
	departments map[uint]string
	people      map[uint]string
}

func (r *readModel) loadNames(ctx context.Context, departmentIDs, personIDs []uint) (*nameBook, error) {
	book := &nameBook{departments: map[uint]string{}, people: map[uint]string{}}

	departments, err := r.repos.Departments.GetByIDs(ctx, uniqueIDs(departmentIDs))
	if err != nil {
		return nil, internalError("failed to load departments", err)
	}
	for _, d := range departments {
		book.departments[d.ID] = d.Name
	}

	people, err := r.repos.Persons.GetByIDs(ctx, uniqueIDs(personIDs))
	if err != nil {
		return nil, internalError("failed to load persons", err)
	}
	for i := range people {
		book.people[people[i].ID] = people[i].FullName()
	}
	return book, nil
}

func (b *nameBook) department(id *uint) string {
	if id == nil {
		return ""
	}
	return b.departments[*id]
}

func (b *nameBook) person(id *uint) string {
	if id == nil {
		return ""
	}
	return b.people[*id]
}

// fill дописывает имена в представление назначения
func (b *nameBook) fill(p *Placement) {
	if p == nil {
		return
	}
	if p.DepartmentName == "" {
		p.DepartmentName = b.department(p.DepartmentID)
	}
	if p.SupervisorName == "" {
		p.SupervisorName = b.person(p.SupervisorID)
	}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

// evidenceWindow - [start, min(end, today)]; ok=false, если период еще не начался
func evidenceWindow(p *Placement, today time.Time) (time.Time, time.Time, bool) {
	if p == nil || p.StartDate == nil {
		return time.Time{}, time.Time{}, false
	}
	start := calendar.Day(*p.StartDate)
	if today.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	end := today
	if p.EndDate != nil && p.EndDate.Before(end) {
		end = calendar.Day(*p.EndDate)
	}
	return start, end, true
}

func placementProgress(p *Placement, now time.Time) *float64 {
	if p == nil || p.StartDate == nil || p.EndDate == nil {
		return nil
	}
	a := models.RotationAssignment{StartDate: *p.StartDate, EndDate: *p.EndDate}
	progress := a.Progress(now)
	return &progress
}
