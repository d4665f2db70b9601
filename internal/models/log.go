package models

import (
	"time"

	"github.com/lib/pq"
)

// TimestampLayout is the display format for log timestamps, applied at the
// response boundary only. Filtering and sorting always use the raw instant.
const TimestampLayout = "02/01/2006 15:04:05"

// Log represents one immutable activity record in the logs table.
type Log struct {
	ID                 string         `db:"id"`
	Timestamp          time.Time      `db:"timestamp"`
	RequestMethod      string         `db:"request_method"`
	RequestEndpoint    string         `db:"request_endpoint"`
	ResponseStatusCode string         `db:"response_status_code"`
	ResponseMessage    string         `db:"response_message"`
	ResponseTimeMs     int64          `db:"response_time_ms"`
	Action             string         `db:"action"`
	UserID             string         `db:"user_id"`
	Labnumber          pq.StringArray `db:"labnumber"`
}

// LogWithUser is a log row joined to its (non-deleted) owning user.
type LogWithUser struct {
	Log
	OwnerUsername  string    `db:"owner_username"`
	OwnerCode      string    `db:"owner_code"`
	OwnerPrefix    string    `db:"owner_prefix"`
	OwnerFirstname string    `db:"owner_firstname"`
	OwnerLastname  string    `db:"owner_lastname"`
	OwnerLevel     UserLevel `db:"owner_level"`
}

// LogRequest is the request portion of a log item.
type LogRequest struct {
	Method   string `json:"method"`
	Endpoint string `json:"endpoint"`
}

// LogResponse is the response portion of a log item. StatusCode is text on
// purpose: the source system stores it that way and filters by substring.
type LogResponse struct {
	StatusCode string `json:"statusCode"`
	Message    string `json:"message"`
	TimeMs     int64  `json:"timeMs"`
}

// LogItem is the externally visible shape of one log entry.
type LogItem struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Request   LogRequest  `json:"request"`
	Response  LogResponse `json:"response"`
	Action    string      `json:"action"`
	Labnumber []string    `json:"labnumber"`
	User      UserInfo    `json:"user"`
}

// Item renders the joined row for a response, formatting the timestamp in
// server-local time.
func (l *LogWithUser) Item() LogItem {
	labs := make([]string, len(l.Labnumber))
	copy(labs, l.Labnumber)

	return LogItem{
		ID:        l.ID,
		Timestamp: l.Timestamp.Local().Format(TimestampLayout),
		Request: LogRequest{
			Method:   l.RequestMethod,
			Endpoint: l.RequestEndpoint,
		},
		Response: LogResponse{
			StatusCode: l.ResponseStatusCode,
			Message:    l.ResponseMessage,
			TimeMs:     l.ResponseTimeMs,
		},
		Action:    l.Action,
		Labnumber: labs,
		User: UserInfo{
			ID:        l.UserID,
			Username:  l.OwnerUsername,
			Code:      l.OwnerCode,
			Prefix:    l.OwnerPrefix,
			Firstname: l.OwnerFirstname,
			Lastname:  l.OwnerLastname,
			Level:     l.OwnerLevel,
		},
	}
}
