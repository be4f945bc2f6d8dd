// Package checkout hands the payment phase off to the external commerce
// collaborator: a short-lived signed token carries application prefill data
// in the redirect, and the payment confirmation comes back asynchronously as
// an external event.
package checkout

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
)

const (
	tokenIssuer   = "intake"
	tokenAudience = "checkout"
)

// Claims represents the JWT claims for checkout prefill tokens
type Claims struct {
	ApplicationID  string            `json:"application_id"`
	Classification string            `json:"classification,omitempty"`
	Prefill        map[string]string `json:"prefill,omitempty"`
	jwt.RegisteredClaims
}

// TokenService handles prefill token creation and validation
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
}

func NewTokenService(signingKey string, ttl time.Duration) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// Mint signs a prefill token for the checkout redirect. The TTL is short;
// the token covers one handoff, not a session.
func (s *TokenService) Mint(appID id.ApplicationID, classification string, prefill map[string]string, now time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ApplicationID:  appID.String(),
		Classification: classification,
		Prefill:        prefill,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Audience:  []string{tokenAudience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// Validate parses and verifies a prefill token.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ExtractApplicationID validates a token and returns its application ID.
func (s *TokenService) ExtractApplicationID(tokenString string) (id.ApplicationID, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return id.ApplicationID{}, err
	}
	return id.ParseApplicationID(claims.ApplicationID)
}
