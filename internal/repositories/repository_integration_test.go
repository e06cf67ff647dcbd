package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-system/internal/entities"
	"leave-system/internal/migrate"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/types"
)

var testPool *pgxpool.Pool

// TestMain поднимает схему в тестовой БД. Без TEST_DATABASE_URL интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		pool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Не удалось подключиться к тестовой БД: %v\n", err)
			os.Exit(1)
		}
		runner, err := migrate.New(pool, dsn, "../../migrations", zap.NewNop())
		if err == nil {
			err = runner.Ensure(context.Background())
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Не удалось применить миграции: %v\n", err)
			os.Exit(1)
		}
		testPool = pool
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE TABLE employee_leaves, external_authorizations, team_exit_permissions, team_leaves, users, teams, organizational_units RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

func seedUser(t *testing.T, repo UserRepositoryInterface, email string) uint64 {
	t.Helper()
	id, err := repo.Create(context.Background(), nil, &entities.User{
		FirstName:               "Тест",
		LastName:                "Пользователь",
		Email:                   email,
		Password:                "hash",
		Role:                    constants.RoleUser,
		LeaveDays:               constants.DefaultLeaveDays,
		ExternalActivitiesLimit: constants.DefaultExternalActivitiesLimit,
	})
	require.NoError(t, err)
	return id
}

func TestUserRepository_Integration_CreateFindDuplicate(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewUserRepository(testPool, zap.NewNop())

	id := seedUser(t, repo, "ivan@example.com")

	user, err := repo.FindByEmail(ctx, nil, "ivan@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, constants.DefaultLeaveDays, user.LeaveDays)
	assert.Nil(t, user.TeamID)

	_, err = repo.FindByEmail(ctx, nil, "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.Create(ctx, nil, &entities.User{FirstName: "a", LastName: "b", Email: "ivan@example.com", Password: "x", Role: constants.RoleUser})
	var httpErr *apperrors.HttpError
	assert.True(t, errors.As(err, &httpErr))
}

func TestUserRepository_Integration_ResetsAndReturnDue(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewUserRepository(testPool, zap.NewNop())

	first := seedUser(t, repo, "a@example.com")
	seedUser(t, repo, "b@example.com")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, repo.UpdateLeaveState(ctx, nil, first, true, &past))

	due, err := repo.FindReturnDue(ctx, nil, time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, first, due[0].ID)

	reset, err := repo.ResetLeaveDays(ctx, nil, 26)
	require.NoError(t, err)
	assert.Len(t, reset, 2)

	users, total, err := repo.GetAll(ctx, types.Filter{Search: "b@", WithPagination: true, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Len(t, users, 1)
}

func TestEmployeeLeaveRepository_Integration_DeleteOtherPending(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	users := NewUserRepository(testPool, zap.NewNop())
	leaves := NewEmployeeLeaveRepository(testPool, zap.NewNop())

	userID := seedUser(t, users, "leave@example.com")
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	create := func(status constants.Status) uint64 {
		id, err := leaves.Create(ctx, nil, &entities.EmployeeLeave{
			UserID:               userID,
			LeaveType:            constants.LeaveTypePersonal,
			ExceptionalLeaveType: constants.ExceptionalNone,
			TimeOfDay:            constants.TimeOfDayInapplicable,
			StartDate:            start,
			EndDate:              start.Add(48 * time.Hour),
			Status:               status,
		})
		require.NoError(t, err)
		return id
	}

	target := create(constants.StatusPending)
	create(constants.StatusPending)
	create(constants.StatusPending)
	accepted := create(constants.StatusAccepted)

	deleted, err := leaves.DeleteOtherPending(ctx, nil, userID, target)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := leaves.ListByUserID(ctx, userID)
	require.NoError(t, err)
	ids := []uint64{left[0].ID, left[1].ID}
	assert.ElementsMatch(t, []uint64{target, accepted}, ids)
}

func TestTxManager_Integration_RollsBackOnError(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	users := NewUserRepository(testPool, zap.NewNop())
	txManager := NewTxManager(testPool)

	boom := errors.New("boom")
	err := txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		_, err := users.Create(ctx, tx, &entities.User{FirstName: "a", LastName: "b", Email: "tx@example.com", Password: "x", Role: constants.RoleUser})
		require.NoError(t, err)
		_, err = users.FindByIDForUpdate(ctx, tx, 1)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = users.FindByEmail(ctx, nil, "tx@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamRepository_Integration_MoveMembersToUnit(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	users := NewUserRepository(testPool, zap.NewNop())
	teams := NewTeamRepository(testPool, zap.NewNop())
	units := NewOrganizationalUnitRepository(testPool, zap.NewNop())

	managerID := seedUser(t, users, "boss@example.com")
	memberID := seedUser(t, users, "member@example.com")

	unitID, err := units.Create(ctx, nil, &entities.OrganizationalUnit{Name: "IT", ManagerID: &managerID})
	require.NoError(t, err)
	teamID, err := teams.Create(ctx, nil, &entities.Team{Name: "Backend", MinimumAttendance: 10, ManagerID: &managerID})
	require.NoError(t, err)
	require.NoError(t, users.SetTeam(ctx, nil, memberID, &teamID))

	moved, err := users.MoveTeamMembersToUnit(ctx, nil, teamID, unitID)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, unitID, *moved[0].OrganizationalUnitID)

	managed, err := teams.FindByManagerID(ctx, nil, managerID)
	require.NoError(t, err)
	assert.Len(t, managed, 1)

	require.NoError(t, teams.ClearManager(ctx, nil, managerID))
	team, err := teams.FindByID(ctx, nil, teamID)
	require.NoError(t, err)
	assert.Nil(t, team.ManagerID)
}
