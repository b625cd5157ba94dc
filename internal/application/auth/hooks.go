package auth

import "context"

// afterCommit is a notification send scheduled behind a successful store write.
type afterCommit struct {
	name string
	fn   func(ctx context.Context) error
}

// runAfterCommit executes hooks in order. A failing hook is logged and audited;
// it never changes the outcome of the operation and never stops later hooks.
// Hooks keep the request values but outlive its cancellation.
func (s *Service) runAfterCommit(ctx context.Context, userID string, hooks ...afterCommit) {
	hctx := context.WithoutCancel(ctx)
	for _, h := range hooks {
		if err := h.fn(hctx); err != nil {
			s.log.Error().Err(err).
				Str("hook", h.name).
				Str("user_id", userID).
				Msg("post-commit notification failed")
			s.audit(ctx, "notification_failed", map[string]string{
				"hook":    h.name,
				"user_id": userID,
				"error":   err.Error(),
			})
			continue
		}
		s.audit(ctx, "notification_sent", map[string]string{"hook": h.name, "user_id": userID})
	}
}
