package service

import (
	"testing"

	"rotation-workflow/internal/models"
	"rotation-workflow/pkg/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoWeekRows(f *fixture) []ScheduleRow {
	return []ScheduleRow{
		{DepartmentID: f.icu.ID, StartDate: datePtr(2024, 1, 1), DurationType: "weeks", DurationValue: 2},
		{DepartmentID: f.er.ID, DurationType: "weeks", DurationValue: 2},
	}
}

func TestCreatePlan_TwoRowsFirstActive(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 2))

	res, err := f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: twoWeekRows(f)})
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Len(t, res.Assignments, 2)

	first, second := res.Assignments[0], res.Assignments[1]
	assert.Equal(t, calendar.Date(2024, 1, 1), first.StartDate)
	assert.Equal(t, calendar.Date(2024, 1, 14), first.EndDate)
	assert.Equal(t, models.AssignmentActive, first.Status)
	assert.Equal(t, calendar.Date(2024, 1, 15), second.StartDate)
	assert.Equal(t, calendar.Date(2024, 1, 28), second.EndDate)
	assert.Equal(t, models.AssignmentUpcoming, second.Status)

	assert.Equal(t, []uint{f.icu.ID, f.er.ID}, []uint(res.Plan.RotationPath))
	assert.Equal(t, models.PlanActive, res.Plan.Status)
	assert.Equal(t, calendar.Date(2024, 1, 28), res.Plan.EndDate)

	person, err := f.repos.Persons.GetByID(f.ctx, f.intern.ID)
	require.NoError(t, err)
	assert.Equal(t, "ICU", person.Department)
	require.NotNil(t, person.DepartmentID)
	assert.Equal(t, f.icu.ID, *person.DepartmentID)

	assert.Len(t, f.recorder.ofType(EventPlanCreated), 1)
	assert.Len(t, f.recorder.ofType(EventDepartmentChanged), 1)
}

func TestReplacePlan_KeepsCurrentAssignmentIdentity(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 2))
	first, err := f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: twoWeekRows(f)})
	require.NoError(t, err)

	rows := []ScheduleRow{
		{DepartmentID: f.icu.ID, StartDate: datePtr(2024, 1, 1), DurationType: "weeks", DurationValue: 3},
		{DepartmentID: f.surgery.ID, DurationType: "weeks", DurationValue: 1},
	}
	second, err := f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: rows})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Plan.ID, second.Plan.ID)
	assert.Equal(t, first.Assignments[0].ID, second.Assignments[0].ID)
	assert.Equal(t, calendar.Date(2024, 1, 21), second.Assignments[0].EndDate)

	all, err := f.repos.Assignments.ListByPerson(f.ctx, f.intern.ID)
	require.NoError(t, err)
	require.Len(t, all, 2, "old upcoming rows are replaced")
	assert.Equal(t, f.surgery.ID, all[1].DepartmentID)

	assert.Len(t, f.recorder.ofType(EventPlanUpdated), 1)
}

func TestReplacePlan_FirstRowMismatchConflicts(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 2))
	_, err := f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: twoWeekRows(f)})
	require.NoError(t, err)

	rows := []ScheduleRow{{DepartmentID: f.surgery.ID, StartDate: datePtr(2024, 1, 1), DurationType: "weeks", DurationValue: 2}}
	_, err = f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: rows})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))

	all, err := f.repos.Assignments.ListByPerson(f.ctx, f.intern.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2, "nothing was deleted")
}

func TestReplacePlan_KeepsTerminalHistoryAndRejectsOverlap(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 3, 1))
	done := f.assign(f.intern.ID, f.icu.ID, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 31), models.AssignmentCompleted)

	rows := []ScheduleRow{{DepartmentID: f.er.ID, StartDate: datePtr(2024, 1, 20), DurationType: "weeks", DurationValue: 2}}
	_, err := f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: rows})
	assert.True(t, IsKind(err, KindConflict))

	rows[0].StartDate = datePtr(2024, 2, 1)
	res, err := f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: rows})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, res.Assignments[0].Status)
	assert.Equal(t, models.AssignmentCompleted, f.reload(done.ID).Status)
}

func TestCreatePlan_Rejections(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 2))

	_, err := f.plans.CreateOrReplacePlan(f.ctx, f.supervisor.ID, PlanInput{PersonID: f.intern.ID, Rows: twoWeekRows(f)})
	assert.True(t, IsKind(err, KindAuthorization))

	_, err = f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: 4242, Rows: twoWeekRows(f)})
	assert.True(t, IsKind(err, KindNotFound))

	rows := []ScheduleRow{{DepartmentID: f.foreign.ID, StartDate: datePtr(2024, 1, 1), DurationType: "weeks", DurationValue: 1}}
	_, err = f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: rows})
	assert.True(t, IsKind(err, KindConflict))

	rows = []ScheduleRow{{DepartmentID: 777, StartDate: datePtr(2024, 1, 1), DurationType: "weeks", DurationValue: 1}}
	_, err = f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: f.intern.ID, Rows: rows})
	assert.True(t, IsKind(err, KindValidation))

	outsider := models.Person{OrganizationID: f.otherOrg.ID, FirstName: "Out", Role: models.RoleIntern}
	require.NoError(t, f.repos.Persons.Create(f.ctx, &outsider))
	_, err = f.plans.CreateOrReplacePlan(f.ctx, f.admin.ID, PlanInput{PersonID: outsider.ID, Rows: twoWeekRows(f)})
	assert.True(t, IsKind(err, KindAuthorization))

	plan, err := f.repos.Plans.GetByPersonID(f.ctx, f.intern.ID)
	require.NoError(t, err)
	assert.Nil(t, plan)
}
