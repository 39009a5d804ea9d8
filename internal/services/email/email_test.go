// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"codeberg.org/stemmww/recipeshare/internal/config"
	"codeberg.org/stemmww/recipeshare/internal/i18n"
	"codeberg.org/stemmww/recipeshare/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"golang.org/x/text/language"
)

type recordingSender struct {
	messages []*mail.Msg
	err      error
}

func (r *recordingSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	r.messages = append(r.messages, messages...)
	return r.err
}

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Recipe Share",
		TLS:      true,
	}
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://example.com")

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg, "https://example.com")

	assert.ErrorIs(t, err, email.ErrNoHost)
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewService(cfg, "https://example.com")

	assert.ErrorIs(t, err, email.ErrNoFrom)
}

func TestBuildMessage(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://example.com")
	require.NoError(t, err)

	msg, err := svc.BuildMessage("alice@example.com", "Hello", "Body text")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "alice@example.com")
	assert.Contains(t, raw, "Subject: Hello")
	assert.Contains(t, raw, "noreply@example.com")
}

func TestBuildMessage_InvalidRecipient(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://example.com")
	require.NoError(t, err)

	_, err = svc.BuildMessage("not an address", "Hello", "Body")

	assert.Error(t, err)
}

func TestSendAccountLocked(t *testing.T) {
	require.NoError(t, i18n.Init())
	sender := &recordingSender{}
	svc, err := email.NewService(validSMTPConfig(), "https://example.com/")
	require.NoError(t, err)
	svc.WithSender(sender)

	ctx := i18n.WithLocale(context.Background(), language.English)
	require.NoError(t, svc.SendAccountLocked(ctx, "alice@example.com", "Alice"))

	require.Len(t, sender.messages, 1)
	var buf bytes.Buffer
	_, err = sender.messages[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "https://example.com/login")
	assert.Contains(t, buf.String(), "Alice")
}

func TestSendAccountLocked_SenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	svc, err := email.NewService(validSMTPConfig(), "https://example.com")
	require.NoError(t, err)
	svc.WithSender(sender)

	err = svc.SendAccountLocked(context.Background(), "alice@example.com", "Alice")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
