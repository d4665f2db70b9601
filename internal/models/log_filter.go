package models

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// SortBy values accepted by the log listing.
const (
	SortByTimestamp = "timestamp"
	SortByTimeMs    = "timeMs"
	SortByAction    = "action"
)

// SortOrder values accepted by the log listing.
const (
	SortOrderNone = "none"
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

const (
	defaultMinTimeMs = 0
	defaultMaxTimeMs = 999999
)

// AllValue is the sentinel meaning "no constraint" for action and userId.
const AllValue = "all"

var hexIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LogFilter is the validated bag of constraints for one log query. It is
// request scoped and never reused across requests.
type LogFilter struct {
	Actions    []string
	UserIDs    []string
	StartDate  *time.Time
	EndDate    *time.Time
	StatusCode string
	Labnumber  string
	MinTimeMs  int64
	MaxTimeMs  int64
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
	Export     bool
}

// ScopeToUser overrides the user constraint to exactly one id. Callers at
// the restricted level always go through here before the filter reaches
// storage, whatever userId values the client supplied.
func (f *LogFilter) ScopeToUser(id string) {
	f.UserIDs = []string{id}
}

// FilterLimits carries the configured listing bounds into parsing.
type FilterLimits struct {
	DefaultLimit int
	MaxLimit     int
}

// ParseLogFilter validates raw query values into a LogFilter. The first
// violated rule wins and is returned as the error message; unknown keys
// are ignored. When export is true, page and limit are ignored entirely.
func ParseLogFilter(query url.Values, limits FilterLimits, export bool) (*LogFilter, error) {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = 50
	}

	filter := &LogFilter{
		MinTimeMs: defaultMinTimeMs,
		MaxTimeMs: defaultMaxTimeMs,
		Page:      1,
		Limit:     limits.DefaultLimit,
		SortOrder: SortOrderNone,
		Export:    export,
	}

	filter.Actions = multiValues(query, "action")

	var err error
	if filter.StartDate, err = parseDate(query.Get("startDate")); err != nil {
		return nil, err
	}
	if filter.EndDate, err = parseDate(query.Get("endDate")); err != nil {
		return nil, err
	}

	userIDs := multiValues(query, "userId")
	for _, id := range userIDs {
		if !hexIDPattern.MatchString(id) {
			return nil, errors.New("invalid userId format")
		}
	}
	filter.UserIDs = userIDs

	filter.StatusCode = query.Get("statusCode")
	filter.Labnumber = query.Get("labnumber")

	if filter.MinTimeMs, err = parseNonNegative(query.Get("minTimeMs"), "minTimeMs", defaultMinTimeMs); err != nil {
		return nil, err
	}
	if filter.MaxTimeMs, err = parseNonNegative(query.Get("maxTimeMs"), "maxTimeMs", defaultMaxTimeMs); err != nil {
		return nil, err
	}
	if filter.MinTimeMs > filter.MaxTimeMs {
		return nil, errors.New("minTimeMs cannot be greater than maxTimeMs")
	}

	if !export {
		if raw := query.Get("page"); raw != "" {
			page, convErr := strconv.Atoi(raw)
			if convErr != nil || page < 1 {
				return nil, errors.New("page must be at least 1")
			}
			filter.Page = page
		}
		if raw := query.Get("limit"); raw != "" {
			limit, convErr := strconv.Atoi(raw)
			if convErr != nil || limit < 1 {
				return nil, errors.New("limit must be at least 1")
			}
			if limits.MaxLimit > 0 && limit > limits.MaxLimit {
				return nil, fmt.Errorf("limit cannot exceed %d", limits.MaxLimit)
			}
			filter.Limit = limit
		}
	}

	switch sortBy := query.Get("sortBy"); sortBy {
	case "", SortByTimestamp, SortByTimeMs, SortByAction:
		filter.SortBy = sortBy
	default:
		return nil, errors.New("invalid sortBy value")
	}

	switch sortOrder := query.Get("sortOrder"); sortOrder {
	case "":
		filter.SortOrder = SortOrderNone
	case SortOrderNone, SortOrderAsc, SortOrderDesc:
		filter.SortOrder = sortOrder
	default:
		return nil, errors.New("invalid sortOrder value")
	}

	return filter, nil
}

// multiValues gathers repeated query values, dropping empties and the
// literal "all" sentinel.
func multiValues(query url.Values, key string) []string {
	raw := query[key]
	out := make([]string, 0, len(raw))
	for _, value := range raw {
		if value == "" || value == AllValue {
			continue
		}
		out = append(out, value)
	}
	return out
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid date format")
}

func parseNonNegative(raw, field string, fallback int64) (int64, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s cannot be negative", field)
	}
	return value, nil
}
