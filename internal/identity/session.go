package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/perfsage/perfsage/internal/config"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "perfsage_session"

// Sessions issues and validates signed session tokens for logged-in users.
type Sessions struct {
	secret  string
	ttl     time.Duration
	issuer  string
	nowFunc func() time.Time
	parser  *jwt.Parser
}

// NewSessions builds a session manager from auth configuration.
func NewSessions(cfg config.AuthConfig) *Sessions {
	return &Sessions{
		secret:  cfg.SessionSecret,
		ttl:     cfg.SessionTTL,
		issuer:  "perfsage",
		nowFunc: time.Now,
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

// Issue signs a session token for the username.
func (s *Sessions) Issue(username string) (string, time.Time, error) {
	now := s.nowFunc()
	expiresAt := now.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub": username,
		"iss": s.issuer,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate verifies the token and returns the username it names.
func (s *Sessions) Validate(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrUnauthorized
	}

	parsed, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}

	username, _ := claims["sub"].(string)
	if username == "" {
		return "", ErrUnauthorized
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(expFloat), 0).Before(s.nowFunc()) {
		return "", ErrUnauthorized
	}

	return username, nil
}
