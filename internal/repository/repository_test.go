package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"rotation-workflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func setupRepos(t *testing.T) *Repositories {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repos, err := New(db)
	require.NoError(t, err)
	return repos
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMissingRowsReturnNil(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	person, err := repos.Persons.GetByID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, person)

	plan, err := repos.Plans.GetByPersonID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, plan)

	assignment, err := repos.Assignments.GetByID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, assignment)
}

func TestPersonValidationAndLegacyPlan(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	err := repos.Persons.Create(ctx, &models.Person{OrganizationID: 1, FirstName: "Ivan", Role: "janitor"})
	assert.Error(t, err)

	p := models.Person{
		OrganizationID: 1,
		FirstName:      "Ivan",
		Role:           models.RoleIntern,
		LegacyRotation: datatypes.NewJSONType(models.LegacyRotationPlan{
			CurrentDepartment: "ICU",
			Status:            "paused",
		}),
	}
	require.NoError(t, repos.Persons.Create(ctx, &p))

	loaded, err := repos.Persons.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "ICU", loaded.LegacyRotation.Data().CurrentDepartment)
	assert.Equal(t, "paused", loaded.LegacyRotation.Data().Status)
}

func TestTransactionRollsBack(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	a := models.RotationAssignment{
		PersonID: 1, OrganizationID: 1, DepartmentID: 1,
		StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 5),
		Status: models.AssignmentUpcoming,
	}
	require.NoError(t, repos.Assignments.Create(ctx, &a))

	boom := errors.New("boom")
	err := repos.Transaction(ctx, func(tx *Repositories) error {
		a.Status = models.AssignmentActive
		if err := tx.Assignments.Update(ctx, &a); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reloaded, err := repos.Assignments.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentUpcoming, reloaded.Status)
}

func TestEarliestUpcoming(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	for _, a := range []models.RotationAssignment{
		{DepartmentID: 2, StartDate: date(2024, 2, 1), EndDate: date(2024, 2, 5), Status: models.AssignmentUpcoming},
		{DepartmentID: 3, StartDate: date(2024, 1, 8), EndDate: date(2024, 1, 12), Status: models.AssignmentUpcoming},
		{DepartmentID: 1, StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 5), Status: models.AssignmentActive},
	} {
		a.PersonID, a.OrganizationID = 1, 1
		require.NoError(t, repos.Assignments.Create(ctx, &a))
	}

	next, err := repos.Assignments.EarliestUpcoming(ctx, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, uint(3), next.DepartmentID)

	dept := uint(2)
	next, err = repos.Assignments.EarliestUpcoming(ctx, 1, &dept)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 2, 1), next.StartDate.UTC())

	dept = 1
	next, err = repos.Assignments.EarliestUpcoming(ctx, 1, &dept)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestAlertsAreStoredOnce(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	created, err := repos.Alerts.Create(ctx, 7, "DUE_SOON")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repos.Alerts.Create(ctx, 7, "DUE_SOON")
	require.NoError(t, err)
	assert.False(t, created)

	existing, err := repos.Alerts.Existing(ctx, []uint{7, 8}, "DUE_SOON")
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{7: true}, existing)
}

func TestPlanPathRoundTrip(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	plan := models.RotationPlan{PersonID: 1, OrganizationID: 1, RotationPath: []uint{3, 1, 2}, Status: models.PlanActive}
	require.NoError(t, repos.Plans.Save(ctx, &plan))
	require.NoError(t, repos.Plans.UpdateStatus(ctx, plan.ID, models.PlanRequiresAction))

	loaded, err := repos.Plans.GetByPersonID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []uint{3, 1, 2}, []uint(loaded.RotationPath))
	assert.Equal(t, models.PlanRequiresAction, loaded.Status)

	assert.Error(t, repos.Plans.UpdateStatus(ctx, 999, models.PlanCompleted))
}
