package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the admin user or session does not exist.
var ErrNotFound = errors.New("auth: not found")

// Admin represents a tenant administrator account.
type Admin struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a persisted refresh-token session for an admin user.
type Session struct {
	ID           string
	AdminID      string
	RefreshToken string
	UserAgent    string
	IP           string
	ExpiresAt    time.Time
}

// Repository provides PostgreSQL backed persistence for admin users and sessions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const adminColumns = `id, tenant_id, email, name, password_hash, created_at, updated_at`

// GetAdminByEmail returns the admin with the given email inside a tenant.
func (r *Repository) GetAdminByEmail(ctx context.Context, tenantID, email string) (Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE tenant_id = $1 AND email = $2`, tenantID, email).
		Scan(&a.ID, &a.TenantID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, ErrNotFound
		}
		return Admin{}, err
	}
	return a, nil
}

// GetAdminByID returns an admin by primary key.
func (r *Repository) GetAdminByID(ctx context.Context, id string) (Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id).
		Scan(&a.ID, &a.TenantID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, ErrNotFound
		}
		return Admin{}, err
	}
	return a, nil
}

// CreateSession persists a refresh session and returns its identifier.
func (r *Repository) CreateSession(ctx context.Context, s Session) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admin_sessions (admin_id, refresh_token, user_agent, ip, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
		RETURNING id`,
		s.AdminID, s.RefreshToken, s.UserAgent, s.IP, s.ExpiresAt).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetSessionByToken looks up a session by hashed refresh token.
func (r *Repository) GetSessionByToken(ctx context.Context, hashedToken string) (Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `
		SELECT id, admin_id, refresh_token, COALESCE(user_agent, ''), COALESCE(ip, ''), expires_at
		FROM admin_sessions WHERE refresh_token = $1`, hashedToken).
		Scan(&s.ID, &s.AdminID, &s.RefreshToken, &s.UserAgent, &s.IP, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// RotateSessionToken replaces the refresh token and expiry of a session.
func (r *Repository) RotateSessionToken(ctx context.Context, sessionID, hashedToken string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admin_sessions SET refresh_token = $2, expires_at = $3 WHERE id = $1`,
		sessionID, hashedToken, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSessionByToken revokes the session matching the hashed refresh token.
func (r *Repository) DeleteSessionByToken(ctx context.Context, hashedToken string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE refresh_token = $1`, hashedToken)
	return err
}
