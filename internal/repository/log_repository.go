package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/labwatch/labwatch-api/internal/models"
	"github.com/labwatch/labwatch-api/internal/taxonomy"
)

const logColumns = `l.id, l.timestamp, l.request_method, l.request_endpoint,
       l.response_status_code, l.response_message, l.response_time_ms,
       l.action, l.user_id, l.labnumber,
       u.username AS owner_username, u.code AS owner_code, u.prefix AS owner_prefix,
       u.firstname AS owner_firstname, u.lastname AS owner_lastname, u.level AS owner_level`

// LogRepository provides read access to the logs collection. The join to
// users excludes soft-deleted owners inside the query itself, so counting
// and pagination always agree with the rows returned.
type LogRepository struct {
	db    *sqlx.DB
	order *taxonomy.Order
	now   func() time.Time
}

// NewLogRepository constructs a LogRepository. The clock is injected so
// the implicit "today" window is deterministic under test.
func NewLogRepository(db *sqlx.DB, order *taxonomy.Order, now func() time.Time) *LogRepository {
	if order == nil {
		order = taxonomy.New(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &LogRepository{db: db, order: order, now: now}
}

// List returns one page of matching logs plus the total match count.
func (r *LogRepository) List(ctx context.Context, filter *models.LogFilter) ([]models.LogWithUser, int, error) {
	where, args := r.buildWhere(filter)

	countQuery := "SELECT COUNT(*) " + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	orderClause, args := r.buildOrder(filter, args)
	offset := (filter.Page - 1) * filter.Limit
	listQuery := fmt.Sprintf("SELECT %s %s %s LIMIT %d OFFSET %d", logColumns, where, orderClause, filter.Limit, offset)

	var rows []models.LogWithUser
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}

	return rows, total, nil
}

// Export returns every matching log in the selected order, uncounted and
// unpaginated.
func (r *LogRepository) Export(ctx context.Context, filter *models.LogFilter) ([]models.LogWithUser, error) {
	where, args := r.buildWhere(filter)
	orderClause, args := r.buildOrder(filter, args)
	query := fmt.Sprintf("SELECT %s %s %s", logColumns, where, orderClause)

	var rows []models.LogWithUser
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("export logs: %w", err)
	}

	return rows, nil
}

// Create inserts one log entry. Entries are immutable afterwards.
func (r *LogRepository) Create(ctx context.Context, log *models.Log) error {
	if log.ID == "" {
		log.ID = models.NewID()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = r.now()
	}

	const query = `INSERT INTO logs
	(id, timestamp, request_method, request_endpoint, response_status_code, response_message, response_time_ms, action, user_id, labnumber)
	VALUES (:id, :timestamp, :request_method, :request_endpoint, :response_status_code, :response_message, :response_time_ms, :action, :user_id, :labnumber)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	return nil
}

// buildWhere translates the validated filter into the shared predicate for
// both the count and page queries. Every active constraint is AND-ed.
func (r *LogRepository) buildWhere(filter *models.LogFilter) (string, []interface{}) {
	args := make([]interface{}, 0, 8)

	start, end := r.todayBounds()
	if filter.StartDate != nil {
		start = *filter.StartDate
	}
	if filter.EndDate != nil {
		end = *filter.EndDate
	}

	conditions := make([]string, 0, 6)

	args = append(args, start, end)
	conditions = append(conditions, fmt.Sprintf("l.timestamp BETWEEN $%d AND $%d", len(args)-1, len(args)))

	if len(filter.Actions) > 0 {
		placeholders := make([]string, len(filter.Actions))
		for i, action := range filter.Actions {
			args = append(args, action)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("l.action IN (%s)", strings.Join(placeholders, ",")))
	}

	if len(filter.UserIDs) > 0 {
		placeholders := make([]string, len(filter.UserIDs))
		for i, id := range filter.UserIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("l.user_id IN (%s)", strings.Join(placeholders, ",")))
	}

	if filter.StatusCode != "" {
		args = append(args, "%"+filter.StatusCode+"%")
		conditions = append(conditions, fmt.Sprintf("l.response_status_code ILIKE $%d", len(args)))
	}

	if filter.Labnumber != "" {
		args = append(args, "%"+filter.Labnumber+"%")
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(l.labnumber) AS ln WHERE ln ILIKE $%d)", len(args)))
	}

	args = append(args, filter.MinTimeMs, filter.MaxTimeMs)
	conditions = append(conditions, fmt.Sprintf("l.response_time_ms BETWEEN $%d AND $%d", len(args)-1, len(args)))

	where := "FROM logs l JOIN users u ON u.id = l.user_id AND u.is_del = FALSE WHERE " + strings.Join(conditions, " AND ")
	return where, args
}

// buildOrder resolves the sort specification into an ORDER BY clause.
// sortBy=action ranks by the injected taxonomy via a CASE expression
// computed before LIMIT/OFFSET; a lexical sort on the action string would
// not respect the categorical order. Every path ends on l.id ASC so that
// identical criteria always return identical row order.
func (r *LogRepository) buildOrder(filter *models.LogFilter, args []interface{}) (string, []interface{}) {
	if filter.SortOrder == models.SortOrderNone || filter.SortBy == "" {
		return "ORDER BY l.timestamp DESC, l.id ASC", args
	}

	direction := "ASC"
	if filter.SortOrder == models.SortOrderDesc {
		direction = "DESC"
	}

	switch filter.SortBy {
	case models.SortByTimestamp:
		return fmt.Sprintf("ORDER BY l.timestamp %s, l.id ASC", direction), args
	case models.SortByTimeMs:
		return fmt.Sprintf("ORDER BY l.response_time_ms %s, l.id ASC", direction), args
	case models.SortByAction:
		rank := strings.Builder{}
		rank.WriteString("CASE l.action")
		for i, name := range r.order.Names() {
			args = append(args, name)
			rank.WriteString(fmt.Sprintf(" WHEN $%d THEN %d", len(args), i))
		}
		rank.WriteString(fmt.Sprintf(" ELSE %d END", r.order.Sentinel()))
		return fmt.Sprintf("ORDER BY %s %s, l.id ASC", rank.String(), direction), args
	default:
		return "ORDER BY l.timestamp DESC, l.id ASC", args
	}
}

// todayBounds spans the server-local current day, 00:00:00.000 through
// 23:59:59.999.
func (r *LogRepository) todayBounds() (time.Time, time.Time) {
	now := r.now()
	year, month, day := now.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	end := time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), now.Location())
	return start, end
}
