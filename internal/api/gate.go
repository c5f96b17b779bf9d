package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rbuysse/quizbox/internal/service"
)

const (
	APIKeyHeader  = "X-Api-Key"
	SessionCookie = "session"
)

type AuthMethod string

const (
	MethodAPIKey  AuthMethod = "api_key"
	MethodSession AuthMethod = "session"
)

// Identity is the authenticated caller of a single request.
type Identity struct {
	UserID uint
	Method AuthMethod
}

type KeyResolver interface {
	Lookup(ctx context.Context, key string) (uint, error)
}

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (uint, error)
}

// Gate decides who is calling. A valid API key wins over any session; an
// invalid key falls through to the session cookie.
type Gate struct {
	keys     KeyResolver
	sessions SessionResolver
}

func NewGate(keys KeyResolver, sessions SessionResolver) *Gate {
	return &Gate{keys: keys, sessions: sessions}
}

func (g *Gate) Resolve(r *http.Request) (Identity, error) {
	ctx := r.Context()

	if key := r.Header.Get(APIKeyHeader); key != "" {
		userID, err := g.keys.Lookup(ctx, key)
		if err == nil {
			return Identity{UserID: userID, Method: MethodAPIKey}, nil
		}
		if !errors.Is(err, service.ErrAuth) {
			return Identity{}, err
		}
	}

	token := ""
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		token = cookie.Value
	}

	userID, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID, Method: MethodSession}, nil
}

// Require rejects unauthenticated requests and attaches the Identity to the
// request context for the handler.
func (g *Gate) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.Resolve(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
