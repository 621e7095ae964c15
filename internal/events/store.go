package events

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for domain events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertDomainEvent stores the event and returns it with generated fields filled in.
func (r *Repository) InsertDomainEvent(ctx context.Context, event Event) (Event, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO domain_events (tenant_id, topic, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, occurred_at`,
		event.TenantID, event.Topic, event.AggregateID, event.Payload).
		Scan(&event.ID, &event.OccurredAt)
	if err != nil {
		return Event{}, err
	}
	return event, nil
}

// ListByAggregate returns the events recorded for one aggregate, oldest first.
func (r *Repository) ListByAggregate(ctx context.Context, tenantID, aggregateID string) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, topic, aggregate_id, payload, occurred_at
		FROM domain_events
		WHERE tenant_id = $1 AND aggregate_id = $2
		ORDER BY occurred_at ASC`, tenantID, aggregateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Topic, &e.AggregateID, &e.Payload, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
