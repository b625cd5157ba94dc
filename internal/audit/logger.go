package audit

import (
	"context"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	pkgctx "github.com/VaibhavAI05/TasteRail/internal/pkg/context"
)

// eventsTotal counts account lifecycle events by action.
var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "account_events_total",
		Help: "Total number of account lifecycle events by action",
	},
	[]string{"action"},
)

var signupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "signups_total",
		Help: "Total number of accounts created",
	},
)

var loginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts by status",
	},
	[]string{"status"},
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Total number of post-commit notifications by kind and status",
	},
	[]string{"kind", "status"},
)

// warnActions are logged at warn level, debugActions at debug; everything else at info.
var warnActions = map[string]bool{
	"login_failed":        true,
	"notification_failed": true,
}

var debugActions = map[string]bool{
	"notification_sent": true,
}

var messages = map[string]string{
	"signup":                   "Account created",
	"login_success":            "User logged in successfully",
	"login_failed":             "Login attempt failed",
	"logout":                   "User logged out",
	"email_verified":           "Email verified",
	"password_reset_requested": "Password reset requested",
	"password_reset_completed": "Password reset completed",
	"profile_updated":          "Profile updated",
	"notification_failed":      "Notification delivery failed",
	"notification_sent":        "Notification delivered",
}

// Logger provides structured audit logging for account business events
type Logger struct {
	log zerolog.Logger
}

// New creates a new audit logger
func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// Record logs one event. Email fields are masked.
func (l *Logger) Record(ctx context.Context, action string, fields map[string]string) {
	countBusiness(action, fields)

	ev := l.log.Info()
	switch {
	case warnActions[action]:
		ev = l.log.Warn()
	case debugActions[action]:
		ev = l.log.Debug()
	}
	ev = ev.Str("action", action)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if k == "email" {
			v = maskEmail(v)
		}
		ev = ev.Str(k, v)
	}

	msg, ok := messages[action]
	if !ok {
		msg = action
	}
	meta := pkgctx.Meta(ctx)
	ev = ev.Str("request_id", meta.RequestID)
	if meta.ClientIP != "" {
		ev = ev.Str("client_ip", meta.ClientIP)
	}
	ev.Msg(msg)
}

func countBusiness(action string, fields map[string]string) {
	eventsTotal.WithLabelValues(action).Inc()

	switch action {
	case "signup":
		signupsTotal.Inc()
	case "login_success":
		loginAttemptsTotal.WithLabelValues("success").Inc()
	case "login_failed":
		loginAttemptsTotal.WithLabelValues("failure").Inc()
	case "notification_sent":
		notificationsTotal.WithLabelValues(fields["hook"], "sent").Inc()
	case "notification_failed":
		notificationsTotal.WithLabelValues(fields["hook"], "failed").Inc()
	}
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	// Show first 2 chars and domain
	at := 0
	for i, c := range email {
		if c == '@' {
			at = i
			break
		}
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
