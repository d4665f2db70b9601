package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/labwatch/labwatch-api/internal/models"
	"github.com/labwatch/labwatch-api/internal/taxonomy"
	appErrors "github.com/labwatch/labwatch-api/pkg/errors"
	"github.com/labwatch/labwatch-api/pkg/export"
)

type logRepository interface {
	List(ctx context.Context, filter *models.LogFilter) ([]models.LogWithUser, int, error)
	Export(ctx context.Context, filter *models.LogFilter) ([]models.LogWithUser, error)
	Create(ctx context.Context, log *models.Log) error
}

// LogService executes log queries. It narrows the filter to the caller's
// own entries for non-admin levels before any storage access, then maps
// rows onto their response shape.
type LogService struct {
	repo   logRepository
	order  *taxonomy.Order
	logger *zap.Logger
}

// NewLogService constructs a LogService.
func NewLogService(repo logRepository, order *taxonomy.Order, logger *zap.Logger) *LogService {
	if order == nil {
		order = taxonomy.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogService{repo: repo, order: order, logger: logger}
}

// List returns one page of logs with pagination metadata.
func (s *LogService) List(ctx context.Context, filter *models.LogFilter, claims *models.JWTClaims) ([]models.LogItem, *models.Pagination, error) {
	if err := s.enforceScope(filter, claims); err != nil {
		return nil, nil, err
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("log list query failed", zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch logs")
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}

	pagination := &models.Pagination{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalCount: total,
		TotalPages: totalPages,
	}

	return toItems(rows), pagination, nil
}

// ExportAll returns every matching log in the selected order, without
// pagination metadata.
func (s *LogService) ExportAll(ctx context.Context, filter *models.LogFilter, claims *models.JWTClaims) ([]models.LogItem, error) {
	if err := s.enforceScope(filter, claims); err != nil {
		return nil, err
	}

	rows, err := s.repo.Export(ctx, filter)
	if err != nil {
		s.logger.Error("log export query failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export logs")
	}

	return toItems(rows), nil
}

// Record stores one log entry on behalf of the request instrumentation.
func (s *LogService) Record(ctx context.Context, log *models.Log) error {
	if err := s.repo.Create(ctx, log); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record log")
	}
	return nil
}

// Actions returns the configured action order for filter dropdowns.
func (s *LogService) Actions() []string {
	return s.order.Names()
}

// Dataset shapes exported items into a tabular dataset for CSV/PDF output.
func (s *LogService) Dataset(items []models.LogItem) export.Dataset {
	headers := []string{"Timestamp", "Action", "Username", "Method", "Endpoint", "Status", "Time (ms)", "Lab Numbers"}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Timestamp,
			item.Action,
			item.User.Username,
			item.Request.Method,
			item.Request.Endpoint,
			item.Response.StatusCode,
			strconv.FormatInt(item.Response.TimeMs, 10),
			strings.Join(item.Labnumber, "; "),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// enforceScope applies the access-control override: callers below admin
// level only ever see their own entries, whatever userId values they sent.
// It runs before the filter reaches the repository.
func (s *LogService) enforceScope(filter *models.LogFilter, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if claims.Level != models.LevelAdmin {
		filter.ScopeToUser(claims.UserID)
	}
	return nil
}

func toItems(rows []models.LogWithUser) []models.LogItem {
	items := make([]models.LogItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].Item())
	}
	return items
}
