package auth

import (
	"context"
	"strings"
)

// Logout always succeeds. Sessions are stateless, so dropping the cookie is
// the whole of it; the transport layer clears it. A still-valid session token
// attributes the audit event to its user.
func (s *Service) Logout(ctx context.Context, sessionToken string) {
	fields := map[string]string{}
	if raw := strings.TrimSpace(sessionToken); raw != "" {
		if claims, err := s.signer.VerifySessionToken(raw); err == nil && claims.UserID != "" {
			fields["user_id"] = claims.UserID
		}
	}
	s.audit(ctx, "logout", fields)
}
