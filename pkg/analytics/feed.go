package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// FeedParams filter and page the activity feed. Cursor is the created_at of
// the last entry from the previous page; zero means "from the top".
type FeedParams struct {
	Cursor    time.Time
	Limit     int
	EventType string
}

// FeedPage is one cursor-paginated page. Total is a real COUNT(*) under the
// same filters, and NextCursor is the created_at of the oldest entry on this
// page (nil when the page is empty).
type FeedPage struct {
	Entries    []Event    `json:"entries"`
	Total      int64      `json:"total"`
	Limit      int        `json:"limit"`
	NextCursor *time.Time `json:"next_cursor,omitempty"`
}

// ActivityFeed returns one page of events, newest first.
func (t *Tracker) ActivityFeed(ctx context.Context, params FeedParams) (*FeedPage, error) {
	if t.db == nil {
		return &FeedPage{Entries: []Event{}, Limit: params.Limit}, nil
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	var cursor interface{}
	if !params.Cursor.IsZero() {
		cursor = params.Cursor
	}

	// The COUNT mirrors the SELECT's WHERE clause exactly so total always
	// matches what paging through would return.
	var total int64
	var err error
	if params.EventType != "" {
		err = t.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM analytics_events
			WHERE ($1::timestamptz IS NULL OR created_at < $1) AND event_type = $2`,
			cursor, params.EventType).Scan(&total)
	} else {
		err = t.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM analytics_events
			WHERE ($1::timestamptz IS NULL OR created_at < $1)`,
			cursor).Scan(&total)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count activity events: %w", err)
	}

	var rows *sql.Rows
	if params.EventType != "" {
		rows, err = t.db.QueryContext(ctx, `
			SELECT id, event_type, contract_id, user_address, network, metadata, created_at
			FROM analytics_events
			WHERE ($1::timestamptz IS NULL OR created_at < $1) AND event_type = $2
			ORDER BY created_at DESC LIMIT $3`,
			cursor, params.EventType, limit)
	} else {
		rows, err = t.db.QueryContext(ctx, `
			SELECT id, event_type, contract_id, user_address, network, metadata, created_at
			FROM analytics_events
			WHERE ($1::timestamptz IS NULL OR created_at < $1)
			ORDER BY created_at DESC LIMIT $2`,
			cursor, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer rows.Close()

	entries := make([]Event, 0, limit)
	for rows.Next() {
		var e Event
		var contractID, userAddress, network sql.NullString
		if err := rows.Scan(&e.ID, &e.EventType, &contractID, &userAddress, &network, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		e.ContractID = contractID.String
		e.UserAddress = userAddress.String
		e.Network = network.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity events: %w", err)
	}

	page := &FeedPage{Entries: entries, Total: total, Limit: limit}
	if len(entries) > 0 {
		last := entries[len(entries)-1].CreatedAt
		page.NextCursor = &last
	}
	return page, nil
}

// DeleteOlderThan removes events past the retention window and returns the
// number deleted. Run by the maintenance job.
func (t *Tracker) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if t.db == nil {
		return 0, nil
	}
	res, err := t.db.ExecContext(ctx, `DELETE FROM analytics_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired events: %w", err)
	}
	return res.RowsAffected()
}
