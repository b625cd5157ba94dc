package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/VaibhavAI05/TasteRail/internal/application/auth"
	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// JWTSigner issues and verifies HS256 session tokens.
type JWTSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// DefaultIssuer is the iss claim of session tokens minted by this service.
const DefaultIssuer = "tasterail"

func NewJWTSigner(secret string, issuer string) *JWTSigner {
	return &JWTSigner{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

type sessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) SignSessionToken(userID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

// VerifySessionToken rejects bad signatures, foreign algorithms, expired
// tokens and tokens without a uid claim with the same InvalidToken error.
func (s *JWTSigner) VerifySessionToken(token string) (auth.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrInvalidToken()
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return auth.SessionClaims{}, domain.ErrInvalidToken()
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return auth.SessionClaims{}, domain.ErrInvalidToken()
	}

	return auth.SessionClaims{
		UserID: claims.UserID,
		Exp:    claims.ExpiresAt.Time,
	}, nil
}
