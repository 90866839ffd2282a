package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SessionCookieName = "wodlog_session"

var ErrInvalidCookie = errors.New("invalid session cookie")

type CookieClaims struct {
	UserID   int    `json:"uid"`
	Username string `json:"usr"`
	IsCoach  bool   `json:"coach"`
	jwt.RegisteredClaims
}

// CookieSigner signs the session cookie value, so that a client cannot forge
// or alter the session id it carries.
type CookieSigner struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewCookieSigner(secret string, ttl time.Duration, secure bool) (*CookieSigner, error) {
	if len(secret) < 16 {
		return nil, errors.New("cookie secret too short, need at least 16 chars")
	}
	return &CookieSigner{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
	}, nil
}

func (cs *CookieSigner) Sign(session *Session) (string, error) {
	claims := CookieClaims{
		UserID:   session.UserID,
		Username: session.Username,
		IsCoach:  session.IsCoach,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.CreatedAt.Add(cs.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cs.secret)
}

func (cs *CookieSigner) Parse(value string) (*CookieClaims, error) {
	token, err := jwt.ParseWithClaims(value, &CookieClaims{}, func(token *jwt.Token) (any, error) {
		return cs.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}

	claims, ok := token.Claims.(*CookieClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidCookie
	}
	return claims, nil
}

// SessionID extracts and verifies the session id from the request cookie.
func (cs *CookieSigner) SessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", ErrInvalidCookie
	}
	claims, err := cs.Parse(cookie.Value)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

func (cs *CookieSigner) Cookie(session *Session) (*http.Cookie, error) {
	value, err := cs.Sign(session)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  session.CreatedAt.Add(cs.ttl),
		HttpOnly: true,
		Secure:   cs.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (cs *CookieSigner) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cs.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
