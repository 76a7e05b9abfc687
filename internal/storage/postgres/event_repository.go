package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/hangout-planner/internal/calendar"
	"github.com/cimillas/hangout-planner/internal/domain"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Ping checks the pool can still reach the database.
func (r *EventRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// InsertEvent relies on the primary key to reject duplicate ids.
func (r *EventRepository) InsertEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, title, start_date, end_date, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, stmt,
		event.ID,
		event.Title,
		event.StartDate.Time(),
		event.EndDate.Time(),
		event.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEventIDConflict
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	const query = `
SELECT id, title, start_date, end_date, created_at
FROM events
WHERE id = $1`

	var (
		event      domain.Event
		start, end time.Time
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(&event.ID, &event.Title, &start, &end, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	event.StartDate = calendar.FromTime(start)
	event.EndDate = calendar.FromTime(end)
	event.CreatedAt = event.CreatedAt.UTC()
	return event, nil
}

// ListResponses returns responses in first-submission order.
func (r *EventRepository) ListResponses(ctx context.Context, eventID string) ([]domain.Response, error) {
	const query = `
SELECT event_id, name, unavailable, updated_at
FROM responses
WHERE event_id = $1
ORDER BY created_at ASC, name ASC`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := make([]domain.Response, 0)
	for rows.Next() {
		var (
			resp   domain.Response
			tokens []string
		)
		if err := rows.Scan(&resp.EventID, &resp.Name, &tokens, &resp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		resp.Unavailable, err = parseTokens(tokens)
		if err != nil {
			return nil, fmt.Errorf("decode response %s/%s: %w", resp.EventID, resp.Name, err)
		}
		resp.UpdatedAt = resp.UpdatedAt.UTC()
		responses = append(responses, resp)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate responses: %w", rows.Err())
	}
	return responses, nil
}

// UpsertResponse replaces the whole row for (event_id, name) in one statement;
// created_at keeps the first submission time so listing order is stable.
func (r *EventRepository) UpsertResponse(ctx context.Context, resp domain.Response) error {
	const stmt = `
INSERT INTO responses (event_id, name, unavailable, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (event_id, name) DO UPDATE SET
	unavailable = EXCLUDED.unavailable,
	updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, stmt, resp.EventID, resp.Name, formatTokens(resp.Unavailable), resp.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

func formatTokens(days []calendar.Day) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.String())
	}
	return out
}

func parseTokens(tokens []string) ([]calendar.Day, error) {
	out := make([]calendar.Day, 0, len(tokens))
	for _, s := range tokens {
		d, err := calendar.ParseDay(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
