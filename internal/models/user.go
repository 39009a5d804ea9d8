// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// User is a registered account.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID                int64     `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	Age               int       `db:"age" json:"age,omitempty"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	FailedAttempts    int       `db:"failed_attempts" json:"-"`
	OTPFailedAttempts int       `db:"otp_failed_attempts" json:"-"`
	AccountLocked     bool      `db:"account_locked" json:"account_locked"`
	TOTPSecret        string    `db:"totp_secret" json:"-"`
	TOTPEnabled       bool      `db:"totp_enabled" json:"totp_enabled"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// RequiresOTP reports whether a login must be confirmed with a one-time code.
func (u *User) RequiresOTP() bool {
	return u.TOTPEnabled && u.TOTPSecret != ""
}
