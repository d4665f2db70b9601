package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labwatch/labwatch-api/internal/models"
	"github.com/labwatch/labwatch-api/internal/taxonomy"
	appErrors "github.com/labwatch/labwatch-api/pkg/errors"
)

type mockLogRepo struct {
	rows       []models.LogWithUser
	total      int
	err        error
	lastFilter *models.LogFilter
	created    []*models.Log
}

func (m *mockLogRepo) List(ctx context.Context, filter *models.LogFilter) ([]models.LogWithUser, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.rows, m.total, nil
}

func (m *mockLogRepo) Export(ctx context.Context, filter *models.LogFilter) ([]models.LogWithUser, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *mockLogRepo) Create(ctx context.Context, log *models.Log) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, log)
	return nil
}

func logRow(id, action string) models.LogWithUser {
	return models.LogWithUser{
		Log: models.Log{
			ID:                 id,
			Timestamp:          time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local),
			RequestMethod:      "GET",
			RequestEndpoint:    "/api/orders",
			ResponseStatusCode: "200",
			ResponseMessage:    "OK",
			ResponseTimeMs:     10,
			Action:             action,
			UserID:             "64f1a2b3c4d5e6f708192a3b",
		},
		OwnerUsername: "alice",
		OwnerLevel:    models.LevelUser,
	}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "aaaaaaaaaaaaaaaaaaaaaaaa", Level: models.LevelAdmin}
}

func userClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "bbbbbbbbbbbbbbbbbbbbbbbb", Level: models.LevelUser}
}

func TestLogServiceListPaginationMetadata(t *testing.T) {
	repo := &mockLogRepo{rows: []models.LogWithUser{logRow("1", "save")}, total: 1200}
	svc := NewLogService(repo, taxonomy.New(nil), zap.NewNop())

	filter := &models.LogFilter{Page: 1, Limit: 50}
	items, pagination, err := svc.List(context.Background(), filter, adminClaims())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1200, pagination.TotalCount)
	assert.Equal(t, 24, pagination.TotalPages)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.Limit)
}

func TestLogServiceListEmptyResult(t *testing.T) {
	repo := &mockLogRepo{total: 0}
	svc := NewLogService(repo, taxonomy.New(nil), zap.NewNop())

	items, pagination, err := svc.List(context.Background(), &models.LogFilter{Page: 99, Limit: 50}, adminClaims())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, pagination.TotalCount)
	assert.Equal(t, 0, pagination.TotalPages)
}

func TestLogServiceTotalPagesRoundsUp(t *testing.T) {
	repo := &mockLogRepo{total: 101}
	svc := NewLogService(repo, taxonomy.New(nil), zap.NewNop())

	_, pagination, err := svc.List(context.Background(), &models.LogFilter{Page: 1, Limit: 50}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, 3, pagination.TotalPages)
}

func TestLogServiceUserLevelScopedToOwnID(t *testing.T) {
	repo := &mockLogRepo{}
	svc := NewLogService(repo, taxonomy.New(nil), zap.NewNop())

	// The caller-supplied userId constraint must be ignored entirely.
	filter := &models.LogFilter{Page: 1, Limit: 50, UserIDs: []string{"64f1a2b3c4d5e6f708192a3b"}}
	_, _, err := svc.List(context.Background(), filter, userClaims())
	require.NoError(t, err)
	assert.Equal(t, []string{"bbbbbbbbbbbbbbbbbbbbbbbb"}, repo.lastFilter.UserIDs)
}

func TestLogServiceAdminKeepsSuppliedUserIDs(t *testing.T) {
	repo := &mockLogRepo{}
	svc := NewLogService(repo, taxonomy.New(nil), zap.NewNop())

	filter := &models.LogFilter{Page: 1, Limit: 50, UserIDs: []string{"64f1a2b3c4d5e6f708192a3b"}}
	_, _, err := svc.List(context.Background(), filter, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, []string{"64f1a2b3c4d5e6f708192a3b"}, repo.lastFilter.UserIDs)
}

func TestLogServiceMissingClaimsRejected(t *testing.T) {
	svc := NewLogService(&mockLogRepo{}, taxonomy.New(nil), zap.NewNop())

	_, _, err := svc.List(context.Background(), &models.LogFilter{Page: 1, Limit: 50}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogServiceStorageFailureIsOpaque(t *testing.T) {
	repo := &mockLogRepo{err: errors.New("connection refused: 10.0.0.5")}
	svc := NewLogService(repo, taxonomy.New(nil), zap.NewNop())

	_, _, err := svc.List(context.Background(), &models.LogFilter{Page: 1, Limit: 50}, adminClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, "failed to fetch logs", appErr.Message)
}

func TestLogServiceExportScopesAndMaps(t *testing.T) {
	repo := &mockLogRepo{rows: []models.LogWithUser{logRow("1", "labOrder"), logRow("2", "save")}}
	svc := NewLogService(repo, taxonomy.New(nil), zap.NewNop())

	items, err := svc.ExportAll(context.Background(), &models.LogFilter{Export: true}, userClaims())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, []string{"bbbbbbbbbbbbbbbbbbbbbbbb"}, repo.lastFilter.UserIDs)
	assert.Equal(t, "29/08/2026 10:00:00", items[0].Timestamp)
}

func TestLogServiceDataset(t *testing.T) {
	svc := NewLogService(&mockLogRepo{}, taxonomy.New(nil), zap.NewNop())

	row := logRow("1", "save")
	row.Labnumber = []string{"LAB-1", "LAB-2"}
	dataset := svc.Dataset([]models.LogItem{row.Item()})

	require.Len(t, dataset.Rows, 1)
	assert.Len(t, dataset.Headers, len(dataset.Rows[0]))
	assert.Contains(t, dataset.Rows[0], "LAB-1; LAB-2")
	assert.Contains(t, dataset.Rows[0], "save")
	assert.Contains(t, dataset.Rows[0], "alice")
}

func TestLogServiceActions(t *testing.T) {
	svc := NewLogService(&mockLogRepo{}, taxonomy.New([]string{"labOrder", "save"}), zap.NewNop())
	assert.Equal(t, []string{"labOrder", "save"}, svc.Actions())
}

func TestLogServiceRecord(t *testing.T) {
	repo := &mockLogRepo{}
	svc := NewLogService(repo, taxonomy.New(nil), zap.NewNop())

	entry := &models.Log{Action: "labOrder", UserID: "64f1a2b3c4d5e6f708192a3b"}
	require.NoError(t, svc.Record(context.Background(), entry))
	require.Len(t, repo.created, 1)
}
