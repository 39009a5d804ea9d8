// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords = loadCommonPasswords()

func loadCommonPasswords() map[string]struct{} {
	set := make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return set
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pw := strings.ToLower(strings.TrimSpace(scanner.Text())); pw != "" {
			set[pw] = struct{}{}
		}
	}
	return set
}

// PasswordPolicy describes the rules a new password has to satisfy.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RejectCommon   bool
	RejectSimilar  bool
	RejectNumeric  bool
	SimilarityCeil float64
}

// DefaultPasswordPolicy returns the policy used for registration.
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:      8,
		MaxLength:      72, // bcrypt ignores everything beyond 72 bytes
		RejectCommon:   true,
		RejectSimilar:  true,
		RejectNumeric:  true,
		SimilarityCeil: 0.7,
	}
}

// PolicyViolation is a single failed rule. Code doubles as the i18n message id.
type PolicyViolation struct {
	Code    string
	Message string
}

// PasswordError lists every rule a password broke.
type PasswordError struct {
	Violations []PolicyViolation
}

func (e *PasswordError) Error() string {
	if len(e.Violations) == 0 {
		return "password rejected"
	}
	return e.Violations[0].Message
}

// Codes returns the violation codes in order.
func (e *PasswordError) Codes() []string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = v.Code
	}
	return codes
}

// Check returns a *PasswordError when password breaks the policy. The
// personal values (name, email) feed the similarity rule.
func (p *PasswordPolicy) Check(password string, personal ...string) error {
	var violations []PolicyViolation

	if n := utf8.RuneCountInString(password); n < p.MinLength {
		violations = append(violations, PolicyViolation{
			Code:    "password_too_short",
			Message: fmt.Sprintf("Password must be at least %d characters long.", p.MinLength),
		})
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		violations = append(violations, PolicyViolation{
			Code:    "password_too_long",
			Message: fmt.Sprintf("Password must be at most %d bytes long.", p.MaxLength),
		})
	}
	if p.RejectNumeric && isNumeric(password) {
		violations = append(violations, PolicyViolation{
			Code:    "password_numeric",
			Message: "Password cannot be entirely numeric.",
		})
	}
	if p.RejectCommon && isCommon(password) {
		violations = append(violations, PolicyViolation{
			Code:    "password_common",
			Message: "This password is too common.",
		})
	}
	if p.RejectSimilar && p.similarToAny(password, personal) {
		violations = append(violations, PolicyViolation{
			Code:    "password_similar",
			Message: "Password is too similar to your name or email.",
		})
	}

	if len(violations) > 0 {
		return &PasswordError{Violations: violations}
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isCommon(password string) bool {
	_, ok := commonPasswords[strings.ToLower(password)]
	return ok
}

func (p *PasswordPolicy) similarToAny(password string, values []string) bool {
	pw := strings.ToLower(password)
	for _, v := range values {
		// Emails are compared by their local part.
		v, _, _ = strings.Cut(strings.ToLower(strings.TrimSpace(v)), "@")
		if len(v) < 3 {
			continue
		}
		if strings.Contains(pw, v) || strings.Contains(v, pw) {
			return true
		}
		if similarity(pw, v) > p.SimilarityCeil {
			return true
		}
	}
	return false
}

// similarity is the longest common subsequence relative to the longer input.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}

	return float64(prev[len(b)]) / float64(max(len(a), len(b)))
}
