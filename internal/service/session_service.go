package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultSessionTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims defines the session JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// SessionService issues and parses the HS256 tokens stored in the session
// cookie. The signing key comes from configuration.
type SessionService struct {
	signingKey []byte
	ttl        time.Duration
}

func NewSessionService(signingKey string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{signingKey: []byte(signingKey), ttl: ttl}
}

var _ Sessions = (*SessionService)(nil)

// Issue returns a signed session token for the user.
func (s *SessionService) Issue(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString(s.signingKey)
}

// Parse validates a session token and returns the userID.
func (s *SessionService) Parse(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

// TTL reports the session lifetime; handlers use it for the cookie max-age.
func (s *SessionService) TTL() time.Duration { return s.ttl }
