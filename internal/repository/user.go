// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/models"
)

// CreateUser inserts a user and fills in its generated fields.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, age, password_hash) VALUES (?, ?, ?, ?)`,
		user.Name, normalizeEmail(user.Email), user.Age, user.PasswordHash)
	if err != nil {
		return wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return wrapError(r.db.GetContext(ctx, user, `SELECT * FROM users WHERE id = ?`, id))
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, normalizeEmail(email)); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// UserExists checks if a user with the given email exists.
func (r *Repository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, normalizeEmail(email))
	return exists, err
}

// ListUsers returns all users, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserProfile changes the editable profile fields.
func (r *Repository) UpdateUserProfile(ctx context.Context, id int64, name string, age int) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, age = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, age, id))
}

// DeleteUser deletes a user. Recipes and favorites cascade.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id))
}

// RecordFailedLogin increments the failed-attempt counter and locks the
// account once it reaches maxAttempts. It returns the updated user.
func (r *Repository) RecordFailedLogin(ctx context.Context, id int64, maxAttempts int) (*models.User, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET failed_attempts = failed_attempts + 1,
		     account_locked = CASE WHEN failed_attempts + 1 >= ? THEN 1 ELSE account_locked END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		maxAttempts, id)
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, id)
}

// ResetFailedLogins clears the failed-attempt counter.
func (r *Repository) ResetFailedLogins(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = 0 WHERE id = ? AND failed_attempts <> 0`, id)
	return err
}

// RecordFailedOTP counts a wrong second-factor code. The account locks once
// the counter reaches maxAttempts. It returns the updated user.
func (r *Repository) RecordFailedOTP(ctx context.Context, id int64, maxAttempts int) (*models.User, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET otp_failed_attempts = otp_failed_attempts + 1,
		     account_locked = CASE WHEN otp_failed_attempts + 1 >= ? THEN 1 ELSE account_locked END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		maxAttempts, id)
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, id)
}

// ResetFailedOTP clears the second-factor failure counter.
func (r *Repository) ResetFailedOTP(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET otp_failed_attempts = 0 WHERE id = ? AND otp_failed_attempts <> 0`, id)
	return err
}

// UnlockUser clears the lock flag and both failure counters.
func (r *Repository) UnlockUser(ctx context.Context, id int64) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET account_locked = 0, failed_attempts = 0, otp_failed_attempts = 0,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id))
}

// SetTOTPSecret stores a TOTP secret and enables two-factor verification.
func (r *Repository) SetTOTPSecret(ctx context.Context, id int64, secret string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = ?, totp_enabled = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		secret, id))
}

// DisableTOTP removes the TOTP secret.
func (r *Repository) DisableTOTP(ctx context.Context, id int64) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = '', totp_enabled = 0, otp_failed_attempts = 0,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
