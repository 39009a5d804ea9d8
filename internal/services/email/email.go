// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends account notifications over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/stemmww/recipeshare/internal/config"
	"codeberg.org/stemmww/recipeshare/internal/i18n"
	"github.com/wneessen/go-mail"
)

var (
	ErrNoHost = errors.New("SMTP host is required")
	ErrNoFrom = errors.New("SMTP from address is required")
)

// Sender delivers a prepared message. The default sender dials the
// configured SMTP server.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Service renders and sends account notifications.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
	sender  Sender
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, ErrNoHost
	}
	if cfg.From == "" {
		return nil, ErrNoFrom
	}

	client, err := mail.NewClient(cfg.Host, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		sender:  client,
	}, nil
}

// WithSender replaces the SMTP client, e.g. with a recorder in tests.
func (s *Service) WithSender(sender Sender) *Service {
	s.sender = sender
	return s
}

// SendAccountLocked tells a user their account was locked after too many
// failed logins.
func (s *Service) SendAccountLocked(ctx context.Context, to, name string) error {
	subject := i18n.T(ctx, "email_account_locked_subject")
	body := i18n.TData(ctx, "email_account_locked_body", map[string]any{
		"Name":     name,
		"LoginURL": s.baseURL + "/login",
	})
	return s.send(ctx, to, subject, body)
}

// BuildMessage assembles a plain-text message from the configured sender.
func (s *Service) BuildMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg, err := s.BuildMessage(to, subject, body)
	if err != nil {
		return err
	}
	if err := s.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func clientOptions(cfg *config.SMTPConfig) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}

	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Port 465 is implicit TLS, everything else STARTTLS
		if cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	return opts
}
