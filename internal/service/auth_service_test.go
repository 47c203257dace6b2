package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/testutil"
)

const testPassword = "correct horse battery staple"

// testHash is computed once; bcrypt at default cost is slow enough to matter
// across the whole package.
var testHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

func newAuthService(t *testing.T) (AuthService, repository.LoginAttemptRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	attempts := repository.NewSQLiteLoginAttemptRepo(database)
	return NewAuthService(attempts, testutil.NewTestUoW(database), testHash), attempts
}

func TestLogin_Success(t *testing.T) {
	svc, attempts := newAuthService(t)
	ctx := context.Background()
	now := testutil.MustNaive("2026-01-05T12:00:00")

	require.NoError(t, svc.Login(ctx, "10.0.0.1", testPassword, now))

	count, err := attempts.CountForIPSince(ctx, "10.0.0.1", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the successful attempt is recorded")
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, attempts := newAuthService(t)
	ctx := context.Background()
	now := testutil.MustNaive("2026-01-05T12:00:00")

	err := svc.Login(ctx, "10.0.0.1", "wrong", now)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	failed, err := attempts.CountFailedForIPSince(ctx, "10.0.0.1", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, failed, "the failure is recorded")
}

func TestLogin_MissingHashIsConfigurationError(t *testing.T) {
	database := testutil.NewTestDB(t)
	attempts := repository.NewSQLiteLoginAttemptRepo(database)
	svc := NewAuthService(attempts, testutil.NewTestUoW(database), "")
	ctx := context.Background()
	now := testutil.MustNaive("2026-01-05T12:00:00")

	err := svc.Login(ctx, "10.0.0.1", testPassword, now)
	var confErr *domain.ConfigurationError
	require.ErrorAs(t, err, &confErr)

	count, cErr := attempts.CountForIPSince(ctx, "10.0.0.1", now.Add(-time.Hour))
	require.NoError(t, cErr)
	assert.Equal(t, 0, count, "a configuration failure is not an attempt")
}

// The rate limit counts every attempt in the trailing minute, successes
// included; the sixth in a minute is denied without touching bcrypt.
func TestLogin_RateLimit(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	base := testutil.MustNaive("2026-01-05T12:00:00")

	for i := 0; i < RateLimitMaxAttempts; i++ {
		err := svc.Login(ctx, "10.0.0.1", "wrong", base.Add(time.Duration(i)*time.Second))
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	err := svc.Login(ctx, "10.0.0.1", testPassword, base.Add(10*time.Second))
	var rateErr *domain.RateLimitedError
	require.ErrorAs(t, err, &rateErr, "even the right password is denied while limited")

	// A minute later the window has slid past the burst.
	err = svc.Login(ctx, "10.0.0.1", testPassword, base.Add(70*time.Second))
	assert.NoError(t, err)
}

func TestCheckRateLimit_ReportsRemaining(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	now := testutil.MustNaive("2026-01-05T12:00:00")

	remaining, err := svc.CheckRateLimit(ctx, "10.0.0.1", now)
	require.NoError(t, err)
	assert.Equal(t, RateLimitMaxAttempts, remaining)

	require.NoError(t, svc.RecordAttempt(ctx, "10.0.0.1", false, now.Add(-10*time.Second)))
	remaining, err = svc.CheckRateLimit(ctx, "10.0.0.1", now)
	require.NoError(t, err)
	assert.Equal(t, RateLimitMaxAttempts-1, remaining)
}

func TestCheckRateLimit_PerAddress(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	now := testutil.MustNaive("2026-01-05T12:00:00")

	for i := 0; i < RateLimitMaxAttempts; i++ {
		require.NoError(t, svc.RecordAttempt(ctx, "10.0.0.1", false, now.Add(-time.Duration(i)*time.Second)))
	}

	_, err := svc.CheckRateLimit(ctx, "10.0.0.1", now)
	assert.Error(t, err)

	remaining, err := svc.CheckRateLimit(ctx, "10.0.0.2", now)
	require.NoError(t, err)
	assert.Equal(t, RateLimitMaxAttempts, remaining, "limits are tracked per source address")
}

// Ten failures in 30 minutes lock the address; the 11th attempt reports the
// whole minutes left until the oldest failure ages out of the window.
func TestLogin_Lockout(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	base := testutil.MustNaive("2026-01-05T12:00:00")

	// Spread failures so the rate limiter never trips: one per minute.
	for i := 0; i < LockoutThreshold; i++ {
		err := svc.Login(ctx, "10.0.0.1", "wrong", base.Add(time.Duration(i)*time.Minute))
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	now := base.Add(time.Duration(LockoutThreshold) * time.Minute)
	err := svc.Login(ctx, "10.0.0.1", testPassword, now)
	var lockErr *domain.LockedOutError
	require.ErrorAs(t, err, &lockErr)
	// Oldest failure at base unlocks at base+30m; 20m left, ceiling adds one.
	assert.Equal(t, 21, lockErr.MinutesRemaining)
}

func TestCheckLockout_ExpiresWithWindow(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	base := testutil.MustNaive("2026-01-05T12:00:00")

	for i := 0; i < LockoutThreshold; i++ {
		require.NoError(t, svc.RecordAttempt(ctx, "10.0.0.1", false, base.Add(time.Duration(i)*time.Second)))
	}

	assert.Error(t, svc.CheckLockout(ctx, "10.0.0.1", base.Add(time.Minute)))

	// Once the failures fall outside the 30-minute window the lock is gone.
	assert.NoError(t, svc.CheckLockout(ctx, "10.0.0.1", base.Add(31*time.Minute)))
}

func TestLogin_SuccessClearsFailures(t *testing.T) {
	svc, attempts := newAuthService(t)
	ctx := context.Background()
	base := testutil.MustNaive("2026-01-05T12:00:00")

	// Nine failures, one short of the lockout threshold.
	for i := 0; i < LockoutThreshold-1; i++ {
		err := svc.Login(ctx, "10.0.0.1", "wrong", base.Add(time.Duration(i)*time.Minute))
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	now := base.Add(time.Duration(LockoutThreshold) * time.Minute)
	require.NoError(t, svc.Login(ctx, "10.0.0.1", testPassword, now))

	failed, err := attempts.CountFailedForIPSince(ctx, "10.0.0.1", base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, failed, "a successful login resets the failure count")

	// The slate is clean: new failures count from zero again.
	err = svc.Login(ctx, "10.0.0.1", "wrong", now.Add(2*time.Minute))
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyCredential(t *testing.T) {
	svc, _ := newAuthService(t)

	assert.NoError(t, svc.VerifyCredential(testPassword))
	assert.ErrorIs(t, svc.VerifyCredential("wrong"), domain.ErrInvalidCredentials)
}
