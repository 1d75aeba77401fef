package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = fmt.Errorf("invalid or expired token")

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	StudentID string
	Email     string
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret string `json:"secret"`
	// hours; zero means 7 days
	TokenTTLHours int `json:"token_ttl_hours"`
}

// Verifier signs and verifies the HS256 bearer tokens the dashboard
// sends. The student id travels in the subject claim.
type Verifier struct {
	secret []byte
	ttl    time.Duration
}

func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("auth secret is not configured")
	}
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if cfg.TokenTTLHours <= 0 {
		ttl = time.Hour * 24 * 7
	}
	return &Verifier{secret: []byte(cfg.Secret), ttl: ttl}, nil
}

func (v *Verifier) Sign(identity Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.StudentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func (v *Verifier) Verify(tokenString string) (Identity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{StudentID: claims.Subject, Email: claims.Email}, nil
}
