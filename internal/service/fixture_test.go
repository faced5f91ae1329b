package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rotation-workflow/internal/config"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"rotation-workflow/pkg/calendar"

	"github.com/stretchr/testify/require"
)

// recordingLogger запоминает события для проверок
type recordingLogger struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Type    string
	Payload map[string]interface{}
	ActorID uint
}

func (r *recordingLogger) LogEvent(_ context.Context, eventType string, payload map[string]interface{}, actorID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: eventType, Payload: payload, ActorID: actorID})
	return nil
}

func (r *recordingLogger) ofType(eventType string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	repos    *repository.Repositories
	rules    config.RotationRules
	recorder *recordingLogger

	org        models.Organization
	otherOrg   models.Organization
	admin      models.Person
	supervisor models.Person
	intern     models.Person
	icu        models.Department
	er         models.Department
	surgery    models.Department
	foreign    models.Department

	evidence    *EvidenceService
	assignments *AssignmentService
	approvals   *ApprovalService
	plans       *PlanService
	roster      *RosterService
	timelines   *TimelineService
	dossiers    *DossierService
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := calendar.Date(y, m, d)
	return &t
}

// newFixture поднимает базу в памяти: организация с графиком 09:00-17:00 без
// перерыва (8 часов в день), три отделения, администратор, руководитель и стажер
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	db, err := repository.OpenSQLite(":memory:")
	require.NoError(t, err)
	repos, err := repository.New(db)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		repos:    repos,
		rules:    config.DefaultRules(),
		recorder: &recordingLogger{},
	}

	f.org = models.Organization{Name: "City Hospital", DefaultClockIn: "09:00", DefaultClockOut: "17:00", DefaultBreakMinutes: intPtr(0), WorkingDaysPerWeek: 5}
	require.NoError(t, repos.Organizations.Create(f.ctx, &f.org))
	f.otherOrg = models.Organization{Name: "Other Clinic"}
	require.NoError(t, repos.Organizations.Create(f.ctx, &f.otherOrg))

	for _, d := range []*models.Department{&f.icu, &f.er, &f.surgery} {
		d.OrganizationID = f.org.ID
	}
	f.icu.Name, f.er.Name, f.surgery.Name = "ICU", "ER", "Surgery"
	f.foreign = models.Department{OrganizationID: f.otherOrg.ID, Name: "Radiology"}
	for _, d := range []*models.Department{&f.icu, &f.er, &f.surgery, &f.foreign} {
		require.NoError(t, repos.Departments.Create(f.ctx, d))
	}

	f.admin = models.Person{OrganizationID: f.org.ID, FirstName: "Anna", LastName: "Admin", Role: models.RoleAdmin}
	f.supervisor = models.Person{OrganizationID: f.org.ID, FirstName: "Sam", LastName: "Senior", Role: models.RoleSupervisor}
	f.intern = models.Person{OrganizationID: f.org.ID, FirstName: "Ivan", LastName: "Intern", Role: models.RoleIntern}
	for _, p := range []*models.Person{&f.admin, &f.supervisor, &f.intern} {
		require.NoError(t, repos.Persons.Create(f.ctx, p))
	}

	clock := FixedClock(now)
	events := NewMultiEventLogger(NewAuditTrail(repos.Audit), f.recorder)
	f.evidence = NewEvidenceService(repos, f.rules)
	f.assignments = NewAssignmentService(repos, f.evidence, events, f.rules, clock)
	f.approvals = NewApprovalService(repos, f.evidence, events, f.rules, clock)
	f.plans = NewPlanService(repos, events, f.rules)
	f.roster = NewRosterService(repos, f.evidence, events, f.rules, clock)
	f.timelines = NewTimelineService(repos, f.evidence, events, f.rules, clock)
	f.dossiers = NewDossierService(f.timelines)
	return f
}

func (f *fixture) newIntern(first string) models.Person {
	p := models.Person{OrganizationID: f.org.ID, FirstName: first, LastName: "Intern", Role: models.RoleIntern}
	require.NoError(f.t, f.repos.Persons.Create(f.ctx, &p))
	return p
}

func (f *fixture) assign(personID, departmentID uint, start, end time.Time, status models.AssignmentStatus) models.RotationAssignment {
	a := models.RotationAssignment{
		PersonID:       personID,
		OrganizationID: f.org.ID,
		DepartmentID:   departmentID,
		StartDate:      start,
		EndDate:        end,
		Status:         status,
		SupervisorID:   &f.supervisor.ID,
	}
	require.NoError(f.t, f.repos.Assignments.Create(f.ctx, &a))
	return a
}

func (f *fixture) plan(personID uint, path ...uint) models.RotationPlan {
	p := models.RotationPlan{PersonID: personID, OrganizationID: f.org.ID, RotationPath: path, Status: models.PlanActive}
	require.NoError(f.t, f.repos.Plans.Save(f.ctx, &p))
	return p
}

func (f *fixture) event(personID uint, eventType models.AttendanceEventType, day time.Time, clock string) {
	minutes, err := calendar.ParseClock(clock)
	require.NoError(f.t, err)
	e := models.AttendanceEvent{PersonID: personID, EventType: eventType, Timestamp: day.Add(time.Duration(minutes) * time.Minute)}
	require.NoError(f.t, f.repos.Attendance.CreateEvent(f.ctx, &e))
}

// eventAt - отметка с точным временем (с секундами)
func (f *fixture) eventAt(personID uint, eventType models.AttendanceEventType, at time.Time) {
	e := models.AttendanceEvent{PersonID: personID, EventType: eventType, Timestamp: at}
	require.NoError(f.t, f.repos.Attendance.CreateEvent(f.ctx, &e))
}

// workDay - приход и уход в один день
func (f *fixture) workDay(personID uint, day time.Time, in, out string) {
	f.event(personID, models.EventClockIn, day, in)
	f.event(personID, models.EventClockOut, day, out)
}

func (f *fixture) reload(id uint) *models.RotationAssignment {
	a, err := f.repos.Assignments.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	require.NotNil(f.t, a)
	return a
}
