package service

import (
	"testing"
	"time"

	"rotation-workflow/internal/models"
	"rotation-workflow/pkg/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// activeWeek - ICU на неделю 1-5 января 2024, следующая ротация ER с 8 января
func activeWeek(f *fixture) (models.RotationAssignment, models.RotationAssignment, models.RotationPlan) {
	plan := f.plan(f.intern.ID, f.icu.ID, f.er.ID)
	current := f.assign(f.intern.ID, f.icu.ID, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 5), models.AssignmentActive)
	next := f.assign(f.intern.ID, f.er.ID, calendar.Date(2024, 1, 8), calendar.Date(2024, 1, 19), models.AssignmentUpcoming)
	return current, next, plan
}

// attend - полные восьмичасовые дни с 1 января по указанное число
func attend(f *fixture, personID uint, days ...int) {
	for _, d := range days {
		f.workDay(personID, calendar.Date(2024, 1, d), "09:00", "17:00")
	}
}

func TestDecideCompleted_PassingEvidenceActivatesNext(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, next, _ := activeWeek(f)
	attend(f, f.intern.ID, 1, 2, 3, 4) // 32 из 40 часов = 80%

	res, err := f.assignments.Decide(f.ctx, f.supervisor.ID, current.ID, DecideInput{Status: models.AssignmentCompleted})
	require.NoError(t, err)
	require.NotNil(t, res.Evidence)
	assert.Equal(t, 80.0, res.Evidence.AttendanceRate)
	assert.Equal(t, models.AssignmentCompleted, f.reload(current.ID).Status)

	require.NotNil(t, res.Next)
	assert.Equal(t, next.ID, res.Next.ID)
	assert.Equal(t, models.AssignmentActive, f.reload(next.ID).Status)

	history, err := f.repos.History.ListByPerson(f.ctx, f.intern.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "COMPLETED", history[0].Outcome)
	assert.Contains(t, history[0].EvaluationSummary, "attendance 80.00%")

	decisions, err := f.repos.Decisions.ListByAssignmentIDs(f.ctx, []uint{current.ID})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, models.DecisionCompleted, decisions[0].Decision)

	person, err := f.repos.Persons.GetByID(f.ctx, f.intern.ID)
	require.NoError(t, err)
	assert.Equal(t, "ER", person.Department)

	assert.Len(t, f.recorder.ofType(EventRotationCompleted), 1)
	assert.Len(t, f.recorder.ofType(EventDepartmentChanged), 1)
	assert.Empty(t, f.recorder.ofType(EventEvidenceGateFailed))
}

func TestDecideCompleted_GateFailsClosed(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, next, _ := activeWeek(f)
	attend(f, f.intern.ID, 1, 2) // 40%

	_, err := f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{Status: models.AssignmentCompleted})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 40.0, e.Details["attendance_rate"])
	assert.Equal(t, 75.0, e.Details["threshold"])

	assert.Equal(t, models.AssignmentActive, f.reload(current.ID).Status)
	assert.Equal(t, models.AssignmentUpcoming, f.reload(next.ID).Status)

	history, err := f.repos.History.ListByPerson(f.ctx, f.intern.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	failures := f.recorder.ofType(EventEvidenceGateFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, false, failures[0].Payload["overridden"])
}

func TestDecideCompleted_UnresolvedCorrectionsBlock(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, _, _ := activeWeek(f)
	attend(f, f.intern.ID, 1, 2, 3, 4, 5)
	require.NoError(t, f.repos.Attendance.CreateCorrection(f.ctx, &models.CorrectionRequest{
		PersonID: f.intern.ID, Status: models.CorrectionPending, Date: calendar.Date(2024, 1, 3),
	}))

	_, err := f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{Status: models.AssignmentCompleted})
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, models.AssignmentActive, f.reload(current.ID).Status)
}

func TestDecideCompleted_Override(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, _, _ := activeWeek(f)

	_, err := f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{Status: models.AssignmentCompleted, Override: true})
	assert.True(t, IsKind(err, KindValidation), "override without notes")

	res, err := f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{
		Status: models.AssignmentCompleted, Override: true, Notes: "sick leave agreed with HR",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentCompleted, res.Assignment.Status)

	failures := f.recorder.ofType(EventEvidenceGateFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, true, failures[0].Payload["overridden"])

	decisions, err := f.repos.Decisions.ListByAssignmentIDs(f.ctx, []uint{current.ID})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.True(t, decisions[0].Override)

	// событие аудита сохранено в базе вместе с назначением
	audit, err := f.repos.Audit.ListByPerson(f.ctx, f.intern.ID)
	require.NoError(t, err)
	var stored []models.AuditEvent
	for _, e := range audit {
		if e.EventType == EventEvidenceGateFailed {
			stored = append(stored, e)
		}
	}
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].AssignmentID)
	assert.Equal(t, current.ID, *stored[0].AssignmentID)
}

func TestDecideCompleted_LastAssignmentCompletesPlan(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	plan := f.plan(f.intern.ID, f.icu.ID)
	current := f.assign(f.intern.ID, f.icu.ID, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 5), models.AssignmentActive)
	attend(f, f.intern.ID, 1, 2, 3, 4, 5)

	res, err := f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{Status: models.AssignmentCompleted})
	require.NoError(t, err)
	assert.Nil(t, res.Next)
	assert.Equal(t, models.PlanCompleted, res.PlanStatus)

	stored, err := f.repos.Plans.GetByID(f.ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanCompleted, stored.Status)
}

func TestDecide_NotesRequired(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, _, _ := activeWeek(f)

	for _, status := range []models.AssignmentStatus{models.AssignmentRegress, models.AssignmentDeclined} {
		_, err := f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{Status: status, Notes: "   "})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindValidation), status)
	}
	assert.Equal(t, models.AssignmentActive, f.reload(current.ID).Status)

	_, err := f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{Status: models.AssignmentUpcoming})
	assert.True(t, IsKind(err, KindValidation))
}

func TestDecideRegress_DefaultsReviewDateAndExtends(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, _, _ := activeWeek(f)

	res, err := f.assignments.Decide(f.ctx, f.supervisor.ID, current.ID, DecideInput{Status: models.AssignmentRegress, Notes: "needs more practice"})
	require.NoError(t, err)
	require.NotNil(t, res.Assignment.ReviewDate)
	assert.Equal(t, calendar.Date(2024, 1, 12), *res.Assignment.ReviewDate)

	stored := f.reload(current.ID)
	assert.Equal(t, models.AssignmentRegress, stored.Status)
	assert.Equal(t, "needs more practice", stored.Notes)

	// продление на следующую ротацию - пересечение
	_, err = f.assignments.Decide(f.ctx, f.supervisor.ID, current.ID, DecideInput{
		Status: models.AssignmentRegress, Notes: "extend", EndDate: datePtr(2024, 1, 10),
	})
	assert.True(t, IsKind(err, KindConflict))

	res, err = f.assignments.Decide(f.ctx, f.supervisor.ID, current.ID, DecideInput{
		Status: models.AssignmentRegress, Notes: "extend", EndDate: datePtr(2024, 1, 7), ReviewDate: datePtr(2024, 1, 7),
	})
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2024, 1, 7), res.Assignment.EndDate)
	assert.Equal(t, calendar.Date(2024, 1, 7), *res.Assignment.ReviewDate)

	history, err := f.repos.History.ListByPerson(f.ctx, f.intern.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Len(t, f.recorder.ofType(EventRotationRegressed), 2)
}

func TestDecideDeclined_PlanRequiresAction(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, _, plan := activeWeek(f)

	res, err := f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{Status: models.AssignmentDeclined, Notes: "left the program"})
	require.NoError(t, err)
	assert.Equal(t, models.PlanRequiresAction, res.PlanStatus)

	stored, err := f.repos.Plans.GetByID(f.ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanRequiresAction, stored.Status)

	history, err := f.repos.History.ListByPerson(f.ctx, f.intern.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "DECLINED", history[0].Outcome)
	require.NotNil(t, history[0].AdminID)
	assert.Equal(t, f.admin.ID, *history[0].AdminID)

	_, err = f.assignments.Decide(f.ctx, f.admin.ID, current.ID, DecideInput{Status: models.AssignmentRegress, Notes: "again"})
	assert.True(t, IsKind(err, KindConflict), "terminal assignment")
}

func TestDecideCompleted_RateRoundingUpStillFails(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, next, _ := activeWeek(f)
	attend(f, f.intern.ID, 1, 2, 3)
	thu := calendar.Date(2024, 1, 4)
	f.event(f.intern.ID, models.EventClockIn, thu, "09:00")
	f.eventAt(f.intern.ID, models.EventClockOut, thu.Add(14*time.Hour+59*time.Minute+58*time.Second))

	_, err := f.assignments.Decide(f.ctx, f.supervisor.ID, current.ID, DecideInput{Status: models.AssignmentCompleted})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, models.AssignmentActive, f.reload(current.ID).Status)
	assert.Equal(t, models.AssignmentUpcoming, f.reload(next.ID).Status)
}

func TestDecide_Authorization(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, _, _ := activeWeek(f)

	_, err := f.assignments.Decide(f.ctx, f.intern.ID, current.ID, DecideInput{Status: models.AssignmentDeclined, Notes: "x"})
	assert.True(t, IsKind(err, KindAuthorization))

	_, err = f.assignments.Decide(f.ctx, 0, current.ID, DecideInput{Status: models.AssignmentDeclined, Notes: "x"})
	assert.True(t, IsKind(err, KindAuthorization))

	_, err = f.assignments.Decide(f.ctx, f.admin.ID, 999, DecideInput{Status: models.AssignmentDeclined, Notes: "x"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestEvaluate(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, next, _ := activeWeek(f)

	a, approval, err := f.assignments.Evaluate(f.ctx, f.supervisor.ID, current.ID, EvaluateInput{Recommendation: models.RecommendApprove, Notes: "good"})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPendingReview, a.Status)
	assert.Equal(t, models.RecommendApprove, approval.SupervisorRecommendation)
	assert.Equal(t, models.AdminPending, approval.AdminDecision)
	require.NotNil(t, approval.SupervisorID)
	assert.Equal(t, f.supervisor.ID, *approval.SupervisorID)

	assert.Len(t, f.recorder.ofType(EventEvaluationSubmitted), 1)
	assert.Len(t, f.recorder.ofType(EventApprovalPending), 1)

	// повторная оценка из PENDING_REVIEW невозможна
	_, _, err = f.assignments.Evaluate(f.ctx, f.supervisor.ID, current.ID, EvaluateInput{Recommendation: models.RecommendExtend})
	assert.True(t, IsKind(err, KindConflict))

	_, _, err = f.assignments.Evaluate(f.ctx, f.supervisor.ID, next.ID, EvaluateInput{Recommendation: models.RecommendApprove})
	assert.True(t, IsKind(err, KindConflict), "upcoming assignment")

	_, _, err = f.assignments.Evaluate(f.ctx, f.intern.ID, current.ID, EvaluateInput{Recommendation: models.RecommendApprove})
	assert.True(t, IsKind(err, KindAuthorization))

	_, _, err = f.assignments.Evaluate(f.ctx, f.supervisor.ID, current.ID, EvaluateInput{Recommendation: models.RecommendPending})
	assert.True(t, IsKind(err, KindValidation))
}

func TestEvaluate_OtherSupervisorRejected(t *testing.T) {
	f := newFixture(t, calendar.Date(2024, 1, 6))
	current, _, _ := activeWeek(f)
	other := models.Person{OrganizationID: f.org.ID, FirstName: "Oleg", Role: models.RoleSupervisor}
	require.NoError(t, f.repos.Persons.Create(f.ctx, &other))

	_, _, err := f.assignments.Evaluate(f.ctx, other.ID, current.ID, EvaluateInput{Recommendation: models.RecommendApprove})
	assert.True(t, IsKind(err, KindAuthorization))

	// администратор может оценить любое назначение организации
	_, _, err = f.assignments.Evaluate(f.ctx, f.admin.ID, current.ID, EvaluateInput{Recommendation: models.RecommendReject})
	assert.NoError(t, err)
}
