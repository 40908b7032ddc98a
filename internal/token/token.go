// Package token issues and validates the session-scoped bearer tokens the
// wizard uses after session creation. Tokens are HS256 JWTs bound to one
// session ID; they carry no user identity.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"idguardian/pkg/domain"
	dErrors "idguardian/pkg/domain-errors"
)

// Claims are the JWT claims for a session token.
type Claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Service signs and validates session tokens.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Issue signs a token for the session, valid until expiresAt. Token lifetime
// tracks the session TTL so a token never outlives its session.
func (s *Service) Issue(sessionID domain.SessionID, issuedAt, expiresAt time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// Validate parses the token and returns the session ID it is bound to.
func (s *Service) Validate(tokenString string) (domain.SessionID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	sessionID, err := domain.ParseSessionID(claims.SessionID)
	if err != nil {
		return domain.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session binding")
	}
	return sessionID, nil
}
