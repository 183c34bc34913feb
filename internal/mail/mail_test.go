package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCompose(t *testing.T) {
	msg := string(Compose("site@example.com", "me@example.com", Contact{
		Name:    "Eve\r\nBcc: victim@example.com",
		Email:   "eve@example.com",
		Message: "Hello there",
	}))

	headers, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, headers, "To: me@example.com\r\n")
	assert.Contains(t, headers, "Reply-To: eve@example.com\r\n")
	assert.Contains(t, headers, "Subject: Portfolio Contact: Eve  Bcc: victim@example.com\r\n")
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.Contains(t, body, "Hello there")
}

func TestNewSMTPValidation(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: "587"}, nil)
	require.Error(t, err)

	m, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: "587", User: "me@example.com", Pass: "pw"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", m.cfg.To)
}

func TestSMTPSend(t *testing.T) {
	m, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: "587", User: "me@example.com", Pass: "pw", To: "inbox@example.com"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	var gotAddr string
	var gotTo []string
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo = addr, to
		assert.Equal(t, "me@example.com", from)
		assert.Contains(t, string(msg), "Portfolio Contact: Ann")
		return nil
	}
	require.NoError(t, m.Send(context.Background(), Contact{Name: "Ann", Email: "ann@example.com", Message: "hi"}))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"inbox@example.com"}, gotTo)

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }
	err = m.Send(context.Background(), Contact{Name: "Ann"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Contact{}), context.Canceled)
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{Logger: zaptest.NewLogger(t)}.Send(context.Background(), Contact{Name: "x"}))
	assert.NoError(t, LogMailer{}.Send(context.Background(), Contact{}))
}
