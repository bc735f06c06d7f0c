package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"auditwatch/internal/constants"
	"auditwatch/pkg/metrics"
)

type Store interface {
	Add(ctx context.Context, item Item) error
	List(ctx context.Context, limit int) ([]Item, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, item Item) error {
	query := `
		INSERT INTO event_log_items (id, event_type, description, severity, category, raised_at, related_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.EventType, item.Description,
		item.Severity, item.Category, item.RaisedAt,
		pq.Array(item.RelatedTo),
	)
	observe("insert_event_log_item", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert event log item: %w", err)
	}
	return nil
}

// List returns the newest items first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Item, error) {
	query := `
		SELECT id, event_type, description, severity, category, raised_at, related_to
		FROM event_log_items
		ORDER BY raised_at DESC
		LIMIT $1
	`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		observe("list_event_log_items", start, err)
		return nil, fmt.Errorf("failed to list event log items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var related pq.StringArray
		if err := rows.Scan(
			&item.ID, &item.EventType, &item.Description,
			&item.Severity, &item.Category, &item.RaisedAt, &related,
		); err != nil {
			observe("list_event_log_items", start, err)
			return nil, fmt.Errorf("failed to scan event log item: %w", err)
		}
		item.RaisedAt = item.RaisedAt.UTC()
		item.RelatedTo = []string(related)
		items = append(items, item)
	}

	err = rows.Err()
	observe("list_event_log_items", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate event log items: %w", err)
	}
	return items, nil
}

func observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IncDatabaseQuery(constants.ServiceNameMonitoring, "postgres", operation, status)
	metrics.ObserveDatabaseQueryDuration(constants.ServiceNameMonitoring, "postgres", operation, time.Since(start))
}
