package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-boka/internal/common"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

// Store abstracts admin and session persistence for the auth service.
type Store interface {
	GetAdminByEmail(ctx context.Context, tenantID, email string) (Admin, error)
	GetAdminByID(ctx context.Context, id string) (Admin, error)
	CreateSession(ctx context.Context, s Session) (string, error)
	GetSessionByToken(ctx context.Context, hashedToken string) (Session, error)
	RotateSessionToken(ctx context.Context, sessionID, hashedToken string, expiresAt time.Time) error
	DeleteSessionByToken(ctx context.Context, hashedToken string) error
}

// Service coordinates admin authentication and session persistence.
type Service struct {
	store      Store
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	signer     jwa.SignatureAlgorithm
	validator  TokenValidator
	issuer     string
	audience   string
	clockSkew  time.Duration
}

// Config configures the auth service.
type Config struct {
	Store           Store
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	Admin         Admin     `json:"admin"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// RefreshResult represents the outcome of a refresh operation.
type RefreshResult struct {
	AccessToken   string    `json:"access_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshToken  string    `json:"refresh_token"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}

	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-boka"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "boka-admin"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		store:      cfg.Store,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		signer:     jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies credentials within the tenant and issues a new token pair.
func (s *Service) Login(ctx context.Context, tenantID, email, password, userAgent, ip string) (LoginResult, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || password == "" {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}

	admin, err := s.store.GetAdminByEmail(ctx, tenantID, normalizedEmail)
	if err != nil {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}

	ok, err := argon2id.ComparePasswordAndHash(password, admin.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}

	accessToken, accessExpiry, err := s.signAccessToken(admin.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshExpiry, err := s.generateRefreshToken(ctx, admin.ID, userAgent, ip)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return LoginResult{
		Admin:         admin,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout revokes the refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.store.DeleteSessionByToken(ctx, hashRefreshToken(token))
}

// Refresh validates and rotates a refresh token, issuing a fresh access token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return RefreshResult{}, common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
	}

	hashed := hashRefreshToken(token)
	session, err := s.store.GetSessionByToken(ctx, hashed)
	if err != nil {
		return RefreshResult{}, common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
	}
	if s.now().After(session.ExpiresAt) {
		_ = s.store.DeleteSessionByToken(ctx, hashed)
		return RefreshResult{}, common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
	}

	accessToken, accessExpiry, err := s.signAccessToken(session.AdminID)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("sign access token: %w", err)
	}

	newRefresh, hashedNew, refreshExpiry, err := s.newRefreshToken()
	if err != nil {
		return RefreshResult{}, fmt.Errorf("rotate session token: %w", err)
	}
	if err := s.store.RotateSessionToken(ctx, session.ID, hashedNew, refreshExpiry); err != nil {
		_ = s.store.DeleteSessionByToken(ctx, hashed)
		return RefreshResult{}, fmt.Errorf("rotate session token: %w", err)
	}

	return RefreshResult{
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshToken:  newRefresh,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Me fetches the current authenticated admin.
func (s *Service) Me(ctx context.Context, adminID string) (Admin, error) {
	if strings.TrimSpace(adminID) == "" {
		return Admin{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	admin, err := s.store.GetAdminByID(ctx, adminID)
	if err != nil {
		return Admin{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	return admin, nil
}

// ParseAccessToken validates an access token and returns the subject (admin ID).
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		algorithm = alg
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(adminID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(adminID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func (s *Service) generateRefreshToken(ctx context.Context, adminID, userAgent, ip string) (string, time.Time, error) {
	token, hashed, expiresAt, err := s.newRefreshToken()
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := s.store.CreateSession(ctx, Session{
		AdminID:      adminID,
		RefreshToken: hashed,
		UserAgent:    strings.TrimSpace(userAgent),
		IP:           strings.TrimSpace(ip),
		ExpiresAt:    expiresAt,
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *Service) newRefreshToken() (string, string, time.Time, error) {
	token, err := generateToken(48)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.refreshTTL)
	return token, hashRefreshToken(token), expiresAt, nil
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
