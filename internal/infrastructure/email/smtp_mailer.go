package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool

	// Lifetimes quoted in the email text; zero means 24h and 1h.
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// SMTPMailer delivers account emails directly over SMTP.
type SMTPMailer struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	from     string
	insecure bool

	timeout time.Duration

	verificationTTL time.Duration
	resetTTL        time.Duration
}

func NewSMTPMailer(cfg SMTPConfig, lg zerolog.Logger) *SMTPMailer {
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &SMTPMailer{
		lg:       lg.With().Str("component", "smtp_mailer").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		from:     cfg.From,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,

		verificationTTL: cfg.VerificationTTL,
		resetTTL:        cfg.ResetTTL,
	}
}

func (s *SMTPMailer) SendVerification(ctx context.Context, email, code string) error {
	return s.send(ctx, email, verificationMessage(code, s.verificationTTL))
}

func (s *SMTPMailer) SendWelcome(ctx context.Context, email, name string) error {
	return s.send(ctx, email, welcomeMessage(name))
}

func (s *SMTPMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	return s.send(ctx, email, passwordResetMessage(link, s.resetTTL))
}

func (s *SMTPMailer) SendResetSuccess(ctx context.Context, email string) error {
	return s.send(ctx, email, resetSuccessMessage())
}

// buildMsg is split out so address validation can be tested without a server.
func (s *SMTPMailer) buildMsg(to string, msg message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(to); err != nil {
		return nil, PermanentError{msg: "invalid to address: " + err.Error()}
	}
	m.Subject(msg.Subject)

	// Text fallback + HTML alternative
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}

func (s *SMTPMailer) send(ctx context.Context, to string, msg message) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m, err := s.buildMsg(to, msg)
	if err != nil {
		return err
	}

	tlsPolicy := mail.TLSMandatory
	if s.insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.user != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(s.user), mail.WithPassword(s.pass))
	}

	c, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("subject", msg.Subject).Msg("smtp send failed")
		return classify(err)
	}

	s.lg.Debug().Str("subject", msg.Subject).Msg("smtp send ok")
	return nil
}

func classify(err error) error {
	msg := err.Error()
	if containsAny(msg, "535", "5.7.8", "authentication", "Username and Password not accepted") {
		return PermanentError{msg: "smtp auth failed: " + msg}
	}
	return TemporaryError{msg: "smtp transient failure: " + msg}
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
