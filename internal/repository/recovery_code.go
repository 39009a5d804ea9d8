// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"

	"codeberg.org/stemmww/recipeshare/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ReplaceRecoveryCodes atomically swaps all recovery codes of a user.
func (r *Repository) ReplaceRecoveryCodes(ctx context.Context, userID int64, codeHashes []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recovery_codes WHERE user_id = ?`, userID); err != nil {
		return err
	}
	for _, hash := range codeHashes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recovery_codes (user_id, code_hash) VALUES (?, ?)`, userID, hash); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetUnusedRecoveryCodes retrieves unused recovery codes for a user.
func (r *Repository) GetUnusedRecoveryCodes(ctx context.Context, userID int64) ([]models.RecoveryCode, error) {
	var codes []models.RecoveryCode
	err := r.db.SelectContext(ctx, &codes, `SELECT * FROM recovery_codes WHERE user_id = ? AND used = 0`, userID)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// GetUnusedRecoveryCodeCount returns the count of unused recovery codes.
func (r *Repository) GetUnusedRecoveryCodeCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM recovery_codes WHERE user_id = ? AND used = 0`, userID)
	return count, err
}

// DeleteRecoveryCodes deletes all recovery codes for a user.
func (r *Repository) DeleteRecoveryCodes(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recovery_codes WHERE user_id = ?`, userID)
	return err
}

// UseRecoveryCode marks the first unused code matching the normalized
// plaintext as used. It reports whether a code matched.
func (r *Repository) UseRecoveryCode(ctx context.Context, userID int64, code string) (bool, error) {
	codes, err := r.GetUnusedRecoveryCodes(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, c := range codes {
		if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) != nil {
			continue
		}
		return r.markRecoveryCodeUsed(ctx, c.ID)
	}

	return false, nil
}

// markRecoveryCodeUsed flips the used flag. A concurrent redemption that
// got there first leaves nothing to update and reports false.
func (r *Repository) markRecoveryCodeUsed(ctx context.Context, id int64) (bool, error) {
	err := requireAffected(r.db.ExecContext(ctx,
		`UPDATE recovery_codes SET used = 1, used_at = CURRENT_TIMESTAMP WHERE id = ? AND used = 0`, id))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
