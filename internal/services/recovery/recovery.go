// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package recovery issues and redeems one-time backup codes for two-factor
// verification.
package recovery

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of characters per code, dashes excluded.
	CodeLength = 12
	// CodeCount is how many codes a user receives.
	CodeCount = 8
)

// No 0, o, 1 or l so codes can be read back from paper.
const alphabet = "23456789abcdefghjkmnpqrstuvwxyz"

type Service struct {
	repo  *repository.Repository
	count int
	cost  int
}

// NewService creates a recovery code service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo, count: CodeCount, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost used for stored hashes.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Issue replaces all codes of a user and returns the new plaintexts. They
// are shown once and never stored unhashed.
func (s *Service) Issue(ctx context.Context, userID int64) ([]string, error) {
	plaintexts := make([]string, s.count)
	hashes := make([]string, s.count)

	for i := range s.count {
		code, err := randomCode(CodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash code: %w", err)
		}
		plaintexts[i] = Format(code)
		hashes[i] = string(hash)
	}

	if err := s.repo.ReplaceRecoveryCodes(ctx, userID, hashes); err != nil {
		return nil, fmt.Errorf("failed to store recovery codes: %w", err)
	}

	slog.Info("recovery_codes_issued", "user_id", userID, "count", s.count)
	return plaintexts, nil
}

// Redeem consumes a code. It reports false for unknown or used codes.
func (s *Service) Redeem(ctx context.Context, userID int64, code string) (bool, error) {
	code = Normalize(code)
	if len(code) != CodeLength {
		return false, nil
	}

	ok, err := s.repo.UseRecoveryCode(ctx, userID, code)
	if err != nil {
		return false, fmt.Errorf("failed to redeem recovery code: %w", err)
	}
	if ok {
		slog.Info("recovery_code_used", "user_id", userID)
	}
	return ok, nil
}

// Revoke deletes every code of a user.
func (s *Service) Revoke(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteRecoveryCodes(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke recovery codes: %w", err)
	}
	slog.Info("recovery_codes_revoked", "user_id", userID)
	return nil
}

// Remaining returns the number of unused codes.
func (s *Service) Remaining(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetUnusedRecoveryCodeCount(ctx, userID)
}

// Normalize strips dashes and whitespace and lowercases a code.
func Normalize(code string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		return r
	}, strings.ToLower(code))
}

// Format groups a code in blocks of four, e.g. "abcd-efgh-jkmn".
func Format(code string) string {
	var b strings.Builder
	for i := 0; i < len(code); i += 4 {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(code[i:min(i+4, len(code))])
	}
	return b.String()
}

func randomCode(length int) (string, error) {
	// Bytes at or above limit are discarded to keep the distribution uniform.
	limit := byte(256 - 256%len(alphabet))
	out := make([]byte, 0, length)
	buf := make([]byte, length)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
