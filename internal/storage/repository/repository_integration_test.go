package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/migrations"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и накатывает миграции.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, storage.CheckDatabaseReady(ctx))

	t.Cleanup(func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return storage
}

// seedTeam создаёт менеджера, двух лидов и двух QA, у каждого по одной активности за сегодня.
func seedTeam(t *testing.T, s *Storage) map[string]*models.User {
	ctx := context.Background()
	team := map[string]*models.User{
		"m1": {Name: "Mona Manager", Email: "m1@example.com", Role: models.RoleManager},
		"l1": {Name: "Lee Lead", Email: "l1@example.com", Role: models.RoleLead},
		"l2": {Name: "Lou Lead", Email: "l2@example.com", Role: models.RoleLead},
		"q1": {Name: "Quinn QA", Email: "q1@example.com", Role: models.RoleQA},
		"q2": {Name: "Quentin QA", Email: "q2@example.com", Role: models.RoleQA},
	}
	now := time.Now()
	for key, u := range team {
		u.PasswordHash = "hash"
		require.NoError(t, s.CreateUser(ctx, u))
		note := "work of " + key
		require.NoError(t, s.CreateActivity(ctx, &models.Activity{
			UserID:        u.ID,
			Date:          now,
			ActivityType:  models.ActivityDaily,
			ManualTesting: &note,
		}))
	}
	return team
}

func owners(activities []models.Activity) []string {
	out := make([]string, 0, len(activities))
	for _, a := range activities {
		out = append(out, a.User.Email)
	}
	return out
}

func TestStorageIntegration_Visibility(t *testing.T) {
	s := setupTestStorage(t)
	team := seedTeam(t, s)
	ctx := context.Background()

	tests := []struct {
		name  string
		scope models.Scope
		want  []string
	}{
		{
			name:  "manager sees everyone",
			scope: models.Scope{All: true},
			want:  []string{"m1@example.com", "l1@example.com", "l2@example.com", "q1@example.com", "q2@example.com"},
		},
		{
			name:  "lead sees self and QA only",
			scope: models.Scope{SelfID: team["l1"].ID, PeerRole: models.RoleQA},
			want:  []string{"l1@example.com", "q1@example.com", "q2@example.com"},
		},
		{
			name:  "qa sees only self",
			scope: models.Scope{SelfID: team["q2"].ID},
			want:  []string{"q2@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListActivities(ctx, models.ActivityQuery{Scope: tt.scope})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, owners(got))
		})
	}

	users, err := s.ListUsers(ctx, models.Scope{PeerRole: models.RoleQA})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Quentin QA", users[0].Name, "users are ordered by name")
}

func TestStorageIntegration_DateBoundsAndName(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	u := &models.User{Name: "Quinn QA", Email: "q1@example.com", PasswordHash: "hash", Role: models.RoleQA}
	require.NoError(t, s.CreateUser(ctx, u))

	today := time.Now()
	yesterday := today.AddDate(0, 0, -1)
	for _, d := range []time.Time{yesterday, today} {
		require.NoError(t, s.CreateActivity(ctx, &models.Activity{UserID: u.ID, Date: d, ActivityType: models.ActivityDaily}))
	}

	y, m, dd := today.Date()
	startOfToday := time.Date(y, m, dd, 0, 0, 0, 0, today.Location())

	got, err := s.ListActivities(ctx, models.ActivityQuery{Scope: models.Scope{All: true}, From: &startOfToday})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.WithinDuration(t, today, got[0].Date, time.Millisecond)

	got, err = s.ListActivities(ctx, models.ActivityQuery{Scope: models.Scope{All: true}, OwnerName: "quinn", Ascending: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Before(got[1].Date))

	got, err = s.ListActivities(ctx, models.ActivityQuery{Scope: models.Scope{All: true}, OwnerName: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStorageIntegration_Users(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	u := &models.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", Role: models.RoleQA}
	require.NoError(t, s.CreateUser(ctx, u))

	dup := &models.User{Name: "Ann 2", Email: "ann@example.com", PasswordHash: "hash", Role: models.RoleQA}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrDuplicate)

	require.NoError(t, s.UpdatePassword(ctx, u.ID, "new-hash"))
	got, err := s.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	up := &models.User{Name: "Ann Updated", Email: "ann@example.com", PasswordHash: "h2", Role: models.RoleLead}
	require.NoError(t, s.UpsertUser(ctx, up))
	assert.Equal(t, u.ID, up.ID)

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLead, got.Role)

	_, err = s.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
