package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/models"
	"github.com/fi-advisor/fi/pkg/crypto"
	"github.com/fi-advisor/fi/pkg/logger"
	"github.com/fi-advisor/fi/pkg/metrics"
)

// DefaultRefreshTokenTTL is the fallback refresh token lifetime.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	RefreshTokenTTL time.Duration
	RefreshLength   int
	Clock           func() time.Time
	Cache           SessionCache
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
	Device    string
	// Provider records how the user signed in (password or google).
	Provider string
}

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

var (
	// ErrSessionNotFound indicates that no session matches the provided token or identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionRevoked marks a session that has been revoked by the user.
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals that a refresh token has reached its expiry.
	ErrSessionExpired = errors.New("session: expired")
	// ErrSessionInvalidToken is returned when the supplied refresh token is malformed.
	ErrSessionInvalidToken = errors.New("session: invalid token")
)

var errSessionCacheMiss = errors.New("session cache miss")

// SessionCache caches sessions keyed by the SHA-256 of their refresh token.
type SessionCache interface {
	Get(ctx context.Context, refreshHash string) (*models.Session, error)
	Set(ctx context.Context, session *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, refreshHash string) error
}

// SessionService issues, rotates and revokes refresh sessions. Only the
// hash of a refresh token is persisted; the raw value exists in the client.
type SessionService struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	tokenLen   int
	now        func() time.Time
	cache      SessionCache
	log        *zap.Logger
}

func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	switch {
	case db == nil:
		return nil, errors.New("session service: db is required")
	case jwtService == nil:
		return nil, errors.New("session service: jwt service is required")
	}

	svc := &SessionService{
		db:         db,
		jwt:        jwtService,
		refreshTTL: cfg.RefreshTokenTTL,
		tokenLen:   cfg.RefreshLength,
		now:        cfg.Clock,
		cache:      cfg.Cache,
		log:        logger.WithModule("sessions"),
	}
	if svc.refreshTTL <= 0 {
		svc.refreshTTL = DefaultRefreshTokenTTL
	}
	if svc.tokenLen <= 0 {
		svc.tokenLen = 48
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateSession persists a new session for userID and returns its tokens.
func (s *SessionService) CreateSession(ctx context.Context, userID string, meta SessionMetadata) (TokenPair, *models.Session, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return TokenPair{}, nil, errors.New("session service: user id is required")
	}

	refresh, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	now := s.now()
	session := &models.Session{
		UserID:      userID,
		RefreshHash: hashRefreshToken(refresh),
		IPAddress:   strings.TrimSpace(meta.IPAddress),
		UserAgent:   strings.TrimSpace(meta.UserAgent),
		DeviceName:  strings.TrimSpace(meta.Device),
		Provider:    strings.ToLower(strings.TrimSpace(meta.Provider)),
		ExpiresAt:   now.Add(s.refreshTTL),
		LastUsedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: create session: %w", err)
	}
	metrics.ActiveSessions.Inc()

	pair, err := s.pair(session, refresh)
	if err != nil {
		return TokenPair{}, nil, err
	}
	s.remember(ctx, session)
	return pair, session, nil
}

// RefreshSession exchanges a refresh token for a new pair. The presented
// token is single use: rotation is conditional on the stored hash so two
// concurrent refreshes cannot both succeed.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, *models.Session, error) {
	ctx = ensureContext(ctx)
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, nil, ErrSessionInvalidToken
	}
	oldHash := hashRefreshToken(refreshToken)

	session, err := s.lookup(ctx, oldHash)
	if err != nil {
		return TokenPair{}, nil, err
	}

	now := s.now()
	switch {
	case session.RevokedAt != nil:
		return TokenPair{}, nil, ErrSessionRevoked
	case session.ExpiresAt.Before(now):
		return TokenPair{}, nil, ErrSessionExpired
	}

	next, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}
	nextHash := hashRefreshToken(next)
	expiresAt := now.Add(s.refreshTTL)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Session{}).
			Where("id = ? AND refresh_hash = ? AND revoked_at IS NULL", session.ID, oldHash).
			Updates(map[string]any{
				"refresh_hash": nextHash,
				"expires_at":   expiresAt,
				"last_used_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("session service: rotate session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
	s.forget(ctx, oldHash)
	if err != nil {
		return TokenPair{}, nil, err
	}

	session.RefreshHash = nextHash
	session.ExpiresAt = expiresAt
	session.LastUsedAt = now

	pair, err := s.pair(session, next)
	if err != nil {
		return TokenPair{}, nil, err
	}
	s.remember(ctx, session)
	return pair, session, nil
}

// RevokeSession revokes one active session by id.
func (s *SessionService) RevokeSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionInvalidToken
	}
	revoked, err := s.revoke(ensureContext(ctx), "id = ? AND revoked_at IS NULL", sessionID)
	if err != nil {
		return fmt.Errorf("session service: revoke session: %w", err)
	}
	if revoked == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeUserSessions revokes every active session belonging to userID.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrSessionInvalidToken
	}
	if _, err := s.revoke(ensureContext(ctx), "user_id = ? AND revoked_at IS NULL", userID); err != nil {
		return fmt.Errorf("session service: revoke user sessions: %w", err)
	}
	return nil
}

// CleanupExpired deletes expired and revoked sessions and reports how many
// rows were removed.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	var activeExpired int64
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("expires_at < ? AND revoked_at IS NULL", now).
		Count(&activeExpired).Error; err != nil {
		return 0, fmt.Errorf("session service: count expired sessions: %w", err)
	}

	stale := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Session{}).
			Where("expires_at < ?", now).Or("revoked_at IS NOT NULL")
	}
	hashes := s.hashesFor(stale())

	result := stale().Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired sessions: %w", result.Error)
	}
	for _, hash := range hashes {
		s.forget(ctx, hash)
	}
	if activeExpired > 0 {
		metrics.ActiveSessions.Sub(float64(activeExpired))
	}
	return result.RowsAffected, nil
}

func (s *SessionService) lookup(ctx context.Context, hash string) (*models.Session, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, hash)
		switch {
		case err == nil && cached != nil:
			return cached, nil
		case err != nil && !errors.Is(err, errSessionCacheMiss):
			s.log.Debug("session cache read failed", zap.Error(err))
		}
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("refresh_hash = ?", hash).Take(&session).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("session service: find session: %w", err)
	}
	return &session, nil
}

func (s *SessionService) revoke(ctx context.Context, query string, arg any) (int64, error) {
	scope := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Session{}).Where(query, arg)
	}
	hashes := s.hashesFor(scope())

	result := scope().Update("revoked_at", s.now())
	if result.Error != nil {
		return 0, result.Error
	}
	for _, hash := range hashes {
		s.forget(ctx, hash)
	}
	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// hashesFor collects the refresh hashes matched by scope so their cache
// entries can be dropped. Without a cache there is nothing to collect.
func (s *SessionService) hashesFor(scope *gorm.DB) []string {
	if s.cache == nil {
		return nil
	}
	var hashes []string
	if err := scope.Pluck("refresh_hash", &hashes).Error; err != nil {
		s.log.Debug("collect session hashes failed", zap.Error(err))
		return nil
	}
	return hashes
}

func (s *SessionService) pair(session *models.Session, refresh string) (TokenPair, error) {
	access, expiresAt, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID:    session.UserID,
		SessionID: session.ID,
		Provider:  session.Provider,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("session service: generate access token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (s *SessionService) remember(ctx context.Context, session *models.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, session, s.refreshTTL); err != nil {
		s.log.Debug("session cache write failed", zap.Error(err))
	}
}

func (s *SessionService) forget(ctx context.Context, hash string) {
	if s.cache == nil || hash == "" {
		return
	}
	if err := s.cache.Delete(ctx, hash); err != nil {
		s.log.Debug("session cache delete failed", zap.Error(err))
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
