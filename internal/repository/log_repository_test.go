package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labwatch/labwatch-api/internal/models"
	"github.com/labwatch/labwatch-api/internal/taxonomy"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
}

var logRowColumns = []string{
	"id", "timestamp", "request_method", "request_endpoint",
	"response_status_code", "response_message", "response_time_ms",
	"action", "user_id", "labnumber",
	"owner_username", "owner_code", "owner_prefix",
	"owner_firstname", "owner_lastname", "owner_level",
}

func sampleLogRow(rows *sqlmock.Rows, id, action string) *sqlmock.Rows {
	return rows.AddRow(
		id, fixedClock(), "GET", "/api/orders",
		"200", "OK", int64(42),
		action, "64f1a2b3c4d5e6f708192a3b", "{LAB-1,LAB-2}",
		"alice", "A01", "Ms", "Alice", "Smith", "admin",
	)
}

func TestLogListDefaultWindowAndOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db, taxonomy.New(nil), fixedClock)

	dayStart := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2026, 8, 29, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM logs l JOIN users u ON u.id = l.user_id AND u.is_del = FALSE WHERE l.timestamp BETWEEN $1 AND $2 AND l.response_time_ms BETWEEN $3 AND $4")).
		WithArgs(dayStart, dayEnd, int64(0), int64(999999)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	listRows := sampleLogRow(sqlmock.NewRows(logRowColumns), "1", "labOrder")
	mock.ExpectQuery(`ORDER BY l\.timestamp DESC, l\.id ASC LIMIT 50 OFFSET 0$`).
		WithArgs(dayStart, dayEnd, int64(0), int64(999999)).
		WillReturnRows(listRows)

	filter := &models.LogFilter{MinTimeMs: 0, MaxTimeMs: 999999, Page: 1, Limit: 50, SortOrder: models.SortOrderNone}
	rows, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "labOrder", rows[0].Action)
	assert.Equal(t, []string{"LAB-1", "LAB-2"}, []string(rows[0].Labnumber))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogListBuildsAllConstraints(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db, taxonomy.New(nil), fixedClock)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	expected := "SELECT COUNT(*) FROM logs l JOIN users u ON u.id = l.user_id AND u.is_del = FALSE WHERE " +
		"l.timestamp BETWEEN $1 AND $2 AND l.action IN ($3,$4) AND l.user_id IN ($5) AND " +
		"l.response_status_code ILIKE $6 AND " +
		"EXISTS (SELECT 1 FROM unnest(l.labnumber) AS ln WHERE ln ILIKE $7) AND " +
		"l.response_time_ms BETWEEN $8 AND $9"
	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs(start, end, "approve", "save", "64f1a2b3c4d5e6f708192a3b", "%40%", "%lab-1%", int64(100), int64(500)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(`LIMIT 25 OFFSET 25$`).
		WillReturnRows(sqlmock.NewRows(logRowColumns))

	filter := &models.LogFilter{
		Actions:    []string{"approve", "save"},
		UserIDs:    []string{"64f1a2b3c4d5e6f708192a3b"},
		StartDate:  &start,
		EndDate:    &end,
		StatusCode: "40",
		Labnumber:  "lab-1",
		MinTimeMs:  100,
		MaxTimeMs:  500,
		Page:       2,
		Limit:      25,
		SortOrder:  models.SortOrderNone,
	}
	rows, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogListActionSortUsesTaxonomyRank(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	order := taxonomy.New([]string{"labOrder", "save", "rerun"})
	repo := NewLogRepository(db, order, fixedClock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	rankClause := "ORDER BY CASE l.action WHEN $5 THEN 0 WHEN $6 THEN 1 WHEN $7 THEN 2 ELSE 3 END ASC, l.id ASC"
	dayStart := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2026, 8, 29, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	listRows := sqlmock.NewRows(logRowColumns)
	sampleLogRow(listRows, "1", "labOrder")
	sampleLogRow(listRows, "2", "save")
	sampleLogRow(listRows, "3", "rerun")
	sampleLogRow(listRows, "4", "unknownX")

	mock.ExpectQuery(regexp.QuoteMeta(rankClause)).
		WithArgs(dayStart, dayEnd, int64(0), int64(999999), "labOrder", "save", "rerun").
		WillReturnRows(listRows)

	filter := &models.LogFilter{
		MinTimeMs: 0, MaxTimeMs: 999999, Page: 1, Limit: 50,
		SortBy: models.SortByAction, SortOrder: models.SortOrderAsc,
	}
	rows, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, rows, 4)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogExportSkipsCountAndPaging(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db, taxonomy.New(nil), fixedClock)

	listRows := sampleLogRow(sqlmock.NewRows(logRowColumns), "1", "save")
	// The export query ends at the ORDER BY: no LIMIT, no OFFSET, no count.
	mock.ExpectQuery(`ORDER BY l\.response_time_ms DESC, l\.id ASC$`).
		WillReturnRows(listRows)

	filter := &models.LogFilter{
		MinTimeMs: 0, MaxTimeMs: 999999,
		SortBy: models.SortByTimeMs, SortOrder: models.SortOrderDesc,
		Export: true,
	}
	rows, err := repo.Export(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogCreateAssignsIDAndTimestamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLogRepository(db, taxonomy.New(nil), fixedClock)

	mock.ExpectExec("INSERT INTO logs").WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.Log{
		RequestMethod:      "POST",
		RequestEndpoint:    "/api/orders",
		ResponseStatusCode: "201",
		ResponseMessage:    "Created",
		ResponseTimeMs:     12,
		Action:             "labOrder",
		UserID:             "64f1a2b3c4d5e6f708192a3b",
	}
	require.NoError(t, repo.Create(context.Background(), log))
	assert.Regexp(t, "^[a-f0-9]{24}$", log.ID)
	assert.Equal(t, fixedClock(), log.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}
