package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/cache"
	testutil "github.com/fi-advisor/fi/internal/database/testutil"
	"github.com/fi-advisor/fi/internal/models"
	"github.com/fi-advisor/fi/internal/monitoring"
	"github.com/fi-advisor/fi/internal/ratelimit"
	"github.com/fi-advisor/fi/pkg/crypto"
)

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.NewDB(t)
	clock := &fixedClock{current: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "cleanup-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{
		RefreshTokenTTL: time.Hour,
		RefreshLength:   16,
		Clock:           clock.Now,
	})
	require.NoError(t, err)

	user := seedUser(t, db, "cleanup-user")

	_, expiredSession, err := sessionSvc.CreateSession(ctx, user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", expiredSession.ID).
		Update("expires_at", clock.Now().Add(-2*time.Hour)).Error)

	_, activeSession, err := sessionSvc.CreateSession(ctx, user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)

	_, revokedSession, err := sessionSvc.CreateSession(ctx, user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, sessionSvc.RevokeSession(ctx, revokedSession.ID))

	quotes := cache.NewTTL[string]("quotes", cache.WithClock(clock.Now))
	quotes.Set("AAPL", "189.20", time.Minute)
	quotes.Set("TCS.NS", "3900", time.Hour)

	store := cache.NewDatabaseStore(db, cache.WithClock(clock.Now))
	require.NoError(t, store.Set(ctx, "news:markets", []byte("[]"), time.Minute))
	require.NoError(t, store.Set(ctx, "search:nifty", []byte("[]"), time.Hour))

	limiter := ratelimit.NewSlidingWindow(ratelimit.Config{Limit: 2, Window: time.Minute, Clock: clock.Now})
	require.True(t, limiter.Check())

	clock.Advance(5 * time.Minute)

	c := NewCleaner(
		WithSessions(sessionSvc),
		WithSweepers(quotes),
		WithStore(store),
		WithLimiter(limiter),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)
	require.NoError(t, c.RunOnce(ctx))

	assertNotFound := func(id string) {
		var s models.Session
		err := db.First(&s, "id = ?", id).Error
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	}
	assertNotFound(expiredSession.ID)
	assertNotFound(revokedSession.ID)

	var remaining models.Session
	require.NoError(t, db.First(&remaining, "id = ?", activeSession.ID).Error)

	require.Equal(t, 1, quotes.Len())

	var entries int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&entries).Error)
	require.Equal(t, int64(1), entries)

	require.Zero(t, limiter.Prune())
	require.Equal(t, 2, limiter.Remaining(ratelimit.DefaultKey))
}

func TestCleanerCollectsErrors(t *testing.T) {
	mod := monitoring.NewModule()
	c := NewCleaner(
		WithSessions(failingSessions{}),
		WithStore(failingStore{}),
		WithLimiter(ratelimit.NewSlidingWindow(ratelimit.Config{})),
		WithRecorder(mod),
	)

	err := c.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sessions: boom")
	require.Contains(t, err.Error(), "cache_store: boom")

	jobs := mod.Snapshot().Maintenance.Jobs
	require.Len(t, jobs, 3)
	results := map[string]string{}
	for _, job := range jobs {
		results[job.Job] = job.LastStatus
	}
	require.Equal(t, map[string]string{
		"cache_store": "failure",
		"limiter":     "success",
		"sessions":    "failure",
	}, results)
}

func TestCleanerStartWithoutJobs(t *testing.T) {
	c := NewCleaner()
	require.NoError(t, c.Start())
	require.NotNil(t, c.Stop())
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	c := NewCleaner(WithLimiter(ratelimit.NewSlidingWindow(ratelimit.Config{})), WithSchedule("whenever"))
	require.Error(t, c.Start())
}

type failingSessions struct{}

func (failingSessions) CleanupExpired(context.Context) (int64, error) {
	return 0, errors.New("boom")
}

type failingStore struct{}

func (failingStore) PurgeExpired(context.Context) (int64, error) {
	return 0, errors.New("boom")
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword("Password123!")
	require.NoError(t, err)

	user := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: hash,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}

func (c *fixedClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
