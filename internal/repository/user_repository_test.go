package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labwatch/labwatch-api/internal/models"
)

func userRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "password_hash", "code", "prefix",
		"firstname", "lastname", "is_active", "is_del", "level",
		"created_at", "updated_at",
	}).AddRow(
		"64f1a2b3c4d5e6f708192a3b", "alice", "hash", "A01", "Ms",
		"Alice", "Smith", true, false, string(models.LevelAdmin),
		now, now,
	)
}

func TestFindByUsernameExcludesDeleted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1 AND is_del = FALSE LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(userRow(time.Now()))

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.LevelAdmin, user.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersOrderedByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE is_del = FALSE ORDER BY username ASC")).
		WillReturnRows(userRow(time.Now()))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
