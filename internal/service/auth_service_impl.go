package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/timeutil"
)

// Guard window constants. Counts are always re-derived from the stored
// login_attempts rows, never cached, so the guard survives restarts.
const (
	RateLimitWindow      = time.Minute
	RateLimitMaxAttempts = 5
	LockoutDuration      = 30 * time.Minute
	LockoutThreshold     = 10
)

type authService struct {
	attempts     repository.LoginAttemptRepo
	uow          db.UnitOfWork
	passwordHash string
	observer     UseCaseObserver
}

// NewAuthService creates the access guard. The credential hash is injected
// here rather than read from ambient state, so guard instances under test
// cannot interfere with each other.
func NewAuthService(attempts repository.LoginAttemptRepo, uow db.UnitOfWork, passwordHash string, observers ...UseCaseObserver) AuthService {
	return &authService{
		attempts:     attempts,
		uow:          uow,
		passwordHash: passwordHash,
		observer:     useCaseObserverOrNoop(observers),
	}
}

// Login runs the gate sequence for one attempt: lockout, then rate limit,
// then the credential comparison, then the audit write. The gates
// short-circuit before any bcrypt work so denial reasons stay
// distinguishable and no hashing happens for blocked addresses.
func (s *authService) Login(ctx context.Context, ip, password string, now time.Time) error {
	startedAt := time.Now()
	now = timeutil.EnsureNaive(now)

	err := s.login(ctx, ip, password, now)
	observe(ctx, s.observer, "auth.login", startedAt, err, map[string]any{"ip": ip})
	return err
}

func (s *authService) login(ctx context.Context, ip, password string, now time.Time) error {
	if err := s.CheckLockout(ctx, ip, now); err != nil {
		return err
	}
	if _, err := s.CheckRateLimit(ctx, ip, now); err != nil {
		return err
	}

	verifyErr := s.VerifyCredential(password)
	var confErr *domain.ConfigurationError
	if errors.As(verifyErr, &confErr) {
		// Missing configuration is not an attempt; nothing to record.
		return verifyErr
	}
	success := verifyErr == nil

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txAttempts := repository.NewSQLiteLoginAttemptRepo(tx)
		if err := txAttempts.Create(ctx, &domain.LoginAttempt{
			ID:          uuid.New().String(),
			IPAddress:   ip,
			AttemptedAt: now,
			Success:     success,
		}); err != nil {
			return err
		}
		if success {
			return txAttempts.DeleteFailedForIP(ctx, ip)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return verifyErr
}

func (s *authService) CheckRateLimit(ctx context.Context, ip string, now time.Time) (int, error) {
	windowStart := timeutil.EnsureNaive(now).Add(-RateLimitWindow)
	recent, err := s.attempts.CountForIPSince(ctx, ip, windowStart)
	if err != nil {
		return 0, err
	}
	remaining := RateLimitMaxAttempts - recent
	if remaining < 0 {
		remaining = 0
	}
	if recent >= RateLimitMaxAttempts {
		return 0, &domain.RateLimitedError{AttemptsRemaining: 0}
	}
	return remaining, nil
}

func (s *authService) CheckLockout(ctx context.Context, ip string, now time.Time) error {
	now = timeutil.EnsureNaive(now)
	windowStart := now.Add(-LockoutDuration)

	failures, err := s.attempts.CountFailedForIPSince(ctx, ip, windowStart)
	if err != nil {
		return err
	}
	if failures < LockoutThreshold {
		return nil
	}

	oldest, err := s.attempts.OldestFailedForIPSince(ctx, ip, windowStart)
	if err != nil {
		return err
	}
	if oldest == nil {
		return nil
	}

	// The lockout ends one full duration after the oldest qualifying
	// failure; round the remainder up to whole minutes, floored at zero.
	lockoutEnd := oldest.AttemptedAt.Add(LockoutDuration)
	minutes := int(lockoutEnd.Sub(now).Seconds()/60) + 1
	if minutes < 0 {
		minutes = 0
	}
	return &domain.LockedOutError{MinutesRemaining: minutes}
}

func (s *authService) VerifyCredential(password string) error {
	if s.passwordHash == "" {
		return &domain.ConfigurationError{Reason: "password hash not configured"}
	}
	err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("comparing password hash: %w", err)
	}
	return nil
}

func (s *authService) RecordAttempt(ctx context.Context, ip string, success bool, now time.Time) error {
	return s.attempts.Create(ctx, &domain.LoginAttempt{
		ID:          uuid.New().String(),
		IPAddress:   ip,
		AttemptedAt: timeutil.EnsureNaive(now),
		Success:     success,
	})
}

func (s *authService) ClearFailures(ctx context.Context, ip string) error {
	return s.attempts.DeleteFailedForIP(ctx, ip)
}
