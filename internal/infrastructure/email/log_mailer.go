package email

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer writes emails to the log instead of sending them.
// Selected with MAIL_TRANSPORT=log for local development.
type LogMailer struct {
	lg zerolog.Logger
}

func NewLogMailer(lg zerolog.Logger) *LogMailer {
	return &LogMailer{lg: lg.With().Str("component", "log_mailer").Logger()}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, code string) error {
	m.lg.Info().Str("to", email).Str("code", code).Msg("verification email")
	return nil
}

func (m *LogMailer) SendWelcome(ctx context.Context, email, name string) error {
	m.lg.Info().Str("to", email).Str("name", name).Msg("welcome email")
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	m.lg.Info().Str("to", email).Str("link", link).Msg("password reset email")
	return nil
}

func (m *LogMailer) SendResetSuccess(ctx context.Context, email string) error {
	m.lg.Info().Str("to", email).Msg("password reset success email")
	return nil
}
