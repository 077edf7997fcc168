package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Context is the learner identity and language a quiz client runs under.
// It is built once and handed to the API client, the message channel and the
// session manager; nothing reads it from package state.
type Context struct {
	Token     string
	UserID    string
	Email     string
	IsAdmin   bool
	ExpiresAt time.Time
	Language  string
}

var ErrMalformedToken = errors.New("malformed access token")

// Anonymous returns a context with no credentials in the given language.
func Anonymous(lang string) Context {
	return Context{Language: NegotiateLanguage(lang, "", "")}
}

// FromToken reads the claims of a backend-issued token. The signature is not
// verified here; the backend does that on every request.
func FromToken(token, lang string) (Context, error) {
	c := Anonymous(lang)
	if token == "" {
		return c, nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return c, ErrMalformedToken
	}

	c.Token = token
	c.UserID = claimString(claims, "user_id")
	if c.UserID == "" {
		c.UserID, _ = claims.GetSubject()
	}
	c.Email = claimString(claims, "email")
	if admin, ok := claims["is_admin"].(bool); ok {
		c.IsAdmin = admin
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	return c, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

// Authorized reports whether the context carries a token at all.
func (c Context) Authorized() bool {
	return c.Token != ""
}

// Expired reports whether the token carries an expiry that has passed.
func (c Context) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Header returns the request headers every backend call carries.
func (c Context) Header() http.Header {
	h := http.Header{}
	if c.Token != "" {
		h.Set("Authorization", "Bearer "+c.Token)
	}
	if c.Language != "" {
		h.Set("Accept-Language", c.Language)
	}
	return h
}

type contextKey string

const authContextKey contextKey = "auth_context"

func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, authContextKey, c)
}

// From extracts the auth context attached by the adapter middleware.
func From(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(authContextKey).(Context)
	return c, ok
}
