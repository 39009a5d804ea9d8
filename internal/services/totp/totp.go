// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package totp generates TOTP secrets with their QR code and validates codes.
package totp

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// QRSize is the edge length of the generated QR code in pixels.
const QRSize = 200

var ErrInvalidCode = errors.New("invalid OTP")

// Enrollment is a freshly generated secret ready to be shown to the user.
type Enrollment struct {
	Secret    string // base32
	URL       string // otpauth:// URL
	QRDataURL string // data:image/png;base64,...
}

type Service struct {
	issuer string
	skew   uint
	now    func() time.Time
}

// NewService creates a TOTP service. skew is the number of 30s periods
// accepted before and after the current one.
func NewService(issuer string, skew uint) *Service {
	return &Service{issuer: issuer, skew: skew, now: time.Now}
}

// Generate creates a new secret for the given account name.
func (s *Service) Generate(account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	dataURL, err := qrDataURL(key)
	if err != nil {
		return nil, err
	}

	return &Enrollment{
		Secret:    key.Secret(),
		URL:       key.URL(),
		QRDataURL: dataURL,
	}, nil
}

// Validate checks a code against a base32 secret.
func (s *Service) Validate(code, secret string) error {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if code == "" || secret == "" {
		return ErrInvalidCode
	}

	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      s.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !ok {
		return ErrInvalidCode
	}
	return nil
}

// Code returns the current code for a secret.
func (s *Service) Code(secret string) (string, error) {
	return totp.GenerateCode(secret, s.now())
}

func qrDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(QRSize, QRSize)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
