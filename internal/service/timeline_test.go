package service

import (
	"testing"

	"rotation-workflow/internal/models"
	"rotation-workflow/pkg/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completedThenActive: ICU 1-5 января закрыта администратором, ER 8-19 января активна,
// Surgery 22-26 января запланирована вне маршрута
func completedThenActive(f *fixture) (icu, er, surgery models.RotationAssignment) {
	f.plan(f.intern.ID, f.icu.ID, f.er.ID)
	icu = f.assign(f.intern.ID, f.icu.ID, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 5), models.AssignmentActive)
	er = f.assign(f.intern.ID, f.er.ID, calendar.Date(2024, 1, 8), calendar.Date(2024, 1, 19), models.AssignmentUpcoming)
	attend(f, f.intern.ID, 1, 2, 3, 4, 5)

	_, err := f.assignments.Decide(f.ctx, f.admin.ID, icu.ID, DecideInput{Status: models.AssignmentCompleted})
	require.NoError(f.t, err)

	surgery = f.assign(f.intern.ID, f.surgery.ID, calendar.Date(2024, 1, 22), calendar.Date(2024, 1, 26), models.AssignmentUpcoming)
	return icu, er, surgery
}

func TestTimeline_ResolvesNamesAndPlan(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 20))
	icu, er, _ := completedThenActive(f)

	tl, err := f.timelines.Timeline(f.ctx, f.supervisor.ID, f.intern.ID)
	require.NoError(t, err)

	assert.Equal(t, "Ivan Intern", tl.Person.Name)
	assert.Equal(t, "ER", tl.Person.Department)
	assert.Equal(t, SourceRelational, tl.Source)
	require.Len(t, tl.Assignments, 3)
	assert.Equal(t, "ICU", tl.Assignments[0].DepartmentName)
	assert.Equal(t, "Surgery", tl.Assignments[2].DepartmentName)

	require.NotNil(t, tl.Current)
	assert.Equal(t, er.ID, *tl.Current.AssignmentID)
	assert.Equal(t, "ER", tl.Current.DepartmentName)
	assert.Equal(t, "Sam Senior", tl.Current.SupervisorName)

	require.Len(t, tl.History, 1)
	h := tl.History[0]
	require.NotNil(t, h.AssignmentID)
	assert.Equal(t, icu.ID, *h.AssignmentID)
	assert.Equal(t, "ICU", h.DepartmentName)
	assert.Equal(t, "Sam Senior", h.SupervisorName)
	assert.Equal(t, "Anna Admin", h.AdminName)
	assert.Equal(t, "COMPLETED", h.Outcome)

	require.NotNil(t, tl.Plan)
	assert.Equal(t, []PathStep{
		{DepartmentID: f.icu.ID, DepartmentName: "ICU"},
		{DepartmentID: f.er.ID, DepartmentName: "ER"},
	}, tl.Plan.Path)

	// показатели за период ER: 8-19 января, 10 рабочих дней без отметок
	require.NotNil(t, tl.Evidence)
	assert.Equal(t, 80.0, tl.Evidence.ExpectedHours)
	assert.Equal(t, 0.0, tl.Evidence.ActualHours)
	assert.Nil(t, tl.Approval)
}

func TestTimeline_EmptyPerson(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 20))

	tl, err := f.timelines.Timeline(f.ctx, f.intern.ID, f.intern.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceNone, tl.Source)
	assert.NotNil(t, tl.Assignments)
	assert.Empty(t, tl.Assignments)
	assert.NotNil(t, tl.History)
	assert.Nil(t, tl.Current)
	assert.Nil(t, tl.Plan)
	assert.Nil(t, tl.Evidence)
}

func TestTimeline_Permissions(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 20))
	other := f.newIntern("Olga")

	_, err := f.timelines.Timeline(f.ctx, other.ID, f.intern.ID)
	assert.True(t, IsKind(err, KindAuthorization), "intern sees only own timeline")

	outsider := models.Person{OrganizationID: f.otherOrg.ID, FirstName: "Otto", Role: models.RoleAdmin}
	require.NoError(t, f.repos.Persons.Create(f.ctx, &outsider))
	_, err = f.timelines.Timeline(f.ctx, outsider.ID, f.intern.ID)
	assert.True(t, IsKind(err, KindAuthorization))

	_, err = f.timelines.Timeline(f.ctx, f.admin.ID, 4242)
	assert.True(t, IsKind(err, KindNotFound))

	_, err = f.dossiers.Dossier(f.ctx, other.ID, f.intern.ID)
	assert.True(t, IsKind(err, KindAuthorization))
}

func TestDossier_CollectsEverything(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 20))
	icu, er, surgery := completedThenActive(f)

	d, err := f.dossiers.Dossier(f.ctx, f.admin.ID, f.intern.ID)
	require.NoError(t, err)

	assert.Equal(t, SourceRelational, d.Source)
	require.Len(t, d.Decisions, 1)
	assert.Equal(t, icu.ID, d.Decisions[0].AssignmentID)
	assert.Equal(t, models.DecisionCompleted, d.Decisions[0].Decision)
	assert.Empty(t, d.Approvals)

	types := map[string]int{}
	for _, e := range d.AuditEvents {
		types[e.EventType]++
	}
	assert.Equal(t, 1, types[EventRotationCompleted])
	assert.Equal(t, 1, types[EventDepartmentChanged])

	// Surgery еще не началась, показателей по ней нет
	require.Len(t, d.AssignmentEvidence, 2)
	assert.Equal(t, icu.ID, d.AssignmentEvidence[0].AssignmentID)
	assert.Equal(t, 100.0, d.AssignmentEvidence[0].Evidence.AttendanceRate)
	assert.Equal(t, er.ID, d.AssignmentEvidence[1].AssignmentID)
	assert.Equal(t, 0.0, d.AssignmentEvidence[1].Evidence.AttendanceRate)

	require.Len(t, d.PathViolations, 1)
	assert.Equal(t, PathViolation{
		AssignmentID:   surgery.ID,
		DepartmentID:   f.surgery.ID,
		DepartmentName: "Surgery",
		Status:         models.AssignmentUpcoming,
	}, d.PathViolations[0])
}

func TestDossier_NoPlanNoViolations(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 20))
	f.assign(f.intern.ID, f.surgery.ID, calendar.Date(2024, 2, 1), calendar.Date(2024, 2, 10), models.AssignmentUpcoming)

	d, err := f.dossiers.Dossier(f.ctx, f.supervisor.ID, f.intern.ID)
	require.NoError(t, err)
	assert.Empty(t, d.PathViolations)
	assert.Empty(t, d.AssignmentEvidence)
	assert.NotNil(t, d.AssignmentEvidence)
	assert.Nil(t, d.Evidence)
}

func TestTimelineEvidence_ChecksViewRights(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 20))
	attend(f, f.intern.ID, 1, 2)

	ev, err := f.timelines.Evidence(f.ctx, f.intern.ID, f.intern.ID, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 100.0, ev.AttendanceRate)

	other := f.newIntern("Olga")
	_, err = f.timelines.Evidence(f.ctx, other.ID, f.intern.ID, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 2))
	assert.True(t, IsKind(err, KindAuthorization))

	_, err = f.timelines.Evidence(f.ctx, f.admin.ID, f.intern.ID, calendar.Date(2024, 1, 2), calendar.Date(2024, 1, 1))
	assert.True(t, IsKind(err, KindValidation))
}
