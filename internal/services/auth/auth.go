// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements registration and password login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/config"
	"codeberg.org/stemmww/recipeshare/internal/models"
	"codeberg.org/stemmww/recipeshare/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidOTP         = errors.New("invalid OTP")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidAge         = errors.New("age must not be negative")
)

// dummyHash keeps the unknown-email path as slow as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// LockNotifier is told when an account gets locked. *email.Service implements it.
type LockNotifier interface {
	SendAccountLocked(ctx context.Context, to, name string) error
}

type Service struct {
	repo     *repository.Repository
	config   *config.AuthConfig
	policy   *PasswordPolicy
	notifier LockNotifier
	cost     int
}

// NewService creates the auth service. notifier may be nil.
func NewService(repo *repository.Repository, cfg *config.AuthConfig, notifier LockNotifier) *Service {
	return &Service{
		repo:     repo,
		config:   cfg,
		policy:   DefaultPasswordPolicy(),
		notifier: notifier,
		cost:     bcrypt.DefaultCost,
	}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// RegisterParams holds the fields of the registration form.
type RegisterParams struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Age      int    `form:"age" json:"age"`
	Password string `form:"password" json:"password"`
}

// Register validates params and creates exactly one user.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if !s.config.IsRegistrationEnabled() {
		return nil, ErrRegistrationClosed
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if params.Age < 0 {
		return nil, ErrInvalidAge
	}

	email := strings.TrimSpace(params.Email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}

	if err := s.policy.Check(params.Password, name, email); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Age:          params.Age,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)

	return user, nil
}

// Login checks the credentials and maintains the failed-attempt counter.
// The attempt that reaches the configured maximum locks the account.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.AccountLocked {
		slog.Warn("login_failed", "user_id", user.ID, "reason", "account_locked")
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, s.recordFailure(ctx, user)
	}

	if user.FailedAttempts > 0 {
		if err := s.repo.ResetFailedLogins(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to reset failed logins: %w", err)
		}
		user.FailedAttempts = 0
	}

	slog.Info("login_success", "user_id", user.ID)
	return user, nil
}

func (s *Service) recordFailure(ctx context.Context, user *models.User) error {
	updated, err := s.repo.RecordFailedLogin(ctx, user.ID, s.config.MaxFailedAttempts)
	if err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}

	slog.Warn("login_failed", "user_id", user.ID, "reason", "invalid_password", "attempts", updated.FailedAttempts)

	if !updated.AccountLocked {
		return ErrInvalidCredentials
	}

	s.notifyLocked(ctx, updated, updated.FailedAttempts)
	return ErrAccountLocked
}

// RecordFailedOTP counts a rejected second-factor code against the same
// maximum as password failures. It returns ErrInvalidOTP, or ErrAccountLocked
// once the account has been locked.
func (s *Service) RecordFailedOTP(ctx context.Context, userID int64) error {
	updated, err := s.repo.RecordFailedOTP(ctx, userID, s.config.MaxFailedAttempts)
	if err != nil {
		return fmt.Errorf("failed to record failed OTP: %w", err)
	}

	slog.Warn("otp_failed", "user_id", userID, "attempts", updated.OTPFailedAttempts)

	if !updated.AccountLocked {
		return ErrInvalidOTP
	}

	s.notifyLocked(ctx, updated, updated.OTPFailedAttempts)
	return ErrAccountLocked
}

// ResetOTPFailures clears the second-factor counter after a good code.
func (s *Service) ResetOTPFailures(ctx context.Context, userID int64) error {
	if err := s.repo.ResetFailedOTP(ctx, userID); err != nil {
		return fmt.Errorf("failed to reset failed OTP: %w", err)
	}
	return nil
}

func (s *Service) notifyLocked(ctx context.Context, user *models.User, attempts int) {
	slog.Warn("account_locked", "user_id", user.ID, "attempts", attempts)
	if s.notifier != nil {
		if err := s.notifier.SendAccountLocked(ctx, user.Email, user.Name); err != nil {
			slog.Error("account_locked_mail_failed", "user_id", user.ID, "error", err)
		}
	}
}

// Unlock clears the lock flag and the failed-attempt counter.
func (s *Service) Unlock(ctx context.Context, userID int64) error {
	if err := s.repo.UnlockUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to unlock user: %w", err)
	}
	slog.Info("account_unlocked", "user_id", userID)
	return nil
}
