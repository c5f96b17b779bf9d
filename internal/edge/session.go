package edge

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookie = "quizbox_session"
	sessionTTL    = 30 * 24 * time.Hour
)

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Sessions stores the backend session token in a signed browser cookie.
type Sessions struct {
	secret []byte
	secure bool
}

func NewSessions(secret string, secure bool) *Sessions {
	return &Sessions{secret: []byte(secret), secure: secure}
}

func (s *Sessions) sign(sessionID string, now time.Time) (string, error) {
	claims := &sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Sessions) parse(tokenString string) (string, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.SessionID, nil
}

// Issue sets the browser cookie for a backend session token.
func (s *Sessions) Issue(c *gin.Context, sessionID string) error {
	token, err := s.sign(sessionID, time.Now())
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(sessionTTL/time.Second), "/", "", s.secure, true)
	return nil
}

// Read returns the backend session token carried by the request, if the cookie is valid.
func (s *Sessions) Read(c *gin.Context) (string, bool) {
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		return "", false
	}
	sessionID, err := s.parse(token)
	if err != nil {
		return "", false
	}
	return sessionID, true
}

func (s *Sessions) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", s.secure, true)
}
