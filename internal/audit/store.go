package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for audit logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertAuditLog stores the entry and returns it with generated fields filled in.
func (r *Repository) InsertAuditLog(ctx context.Context, entry Entry) (Entry, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO audit_logs (
			tenant_id, actor_kind, actor_admin_id, action, resource_type, resource_id,
			method, path, route, status, ip, user_agent, request_id, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`,
		entry.TenantID, entry.ActorKind, entry.ActorAdminID, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.Method, entry.Path, entry.Route, entry.Status, entry.IP, entry.UserAgent, entry.RequestID, entry.Metadata).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ListAuditLogs returns recent entries for a tenant, newest first.
func (r *Repository) ListAuditLogs(ctx context.Context, tenantID string, limit, offset int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, actor_kind, actor_admin_id, action, resource_type, resource_id,
		       method, path, route, status, ip, user_agent, request_id, metadata, created_at
		FROM audit_logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorKind, &e.ActorAdminID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Method, &e.Path, &e.Route, &e.Status, &e.IP, &e.UserAgent, &e.RequestID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
