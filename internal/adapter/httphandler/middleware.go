package httphandler

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
)

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			writeJSON(w, http.StatusUnsupportedMediaType,
				ErrorResponse{Error: "invalid media type"},
			)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

type ctxKey int

const (
	userCtxKey ctxKey = iota
	tokenCtxKey
)

// An Authenticator resolves the bearer token to the signed in user.
type Authenticator struct {
	accounts port.AccountManager
}

func NewAuthenticator(accounts port.AccountManager) Authenticator {
	return Authenticator{accounts}
}

// Require rejects requests without a valid session with 401.
func (a Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "Authenticator.Require"

		token := bearerToken(r)
		if token == "" {
			writeError(w, op, domain.ErrUnauthorized)
			return
		}

		u, err := a.accounts.CurrentUser(r.Context(), token)
		if err != nil {
			writeError(w, op, err)
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, u)
		ctx = context.WithValue(ctx, tokenCtxKey, token)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func userFromContext(ctx context.Context) domain.User {
	u, _ := ctx.Value(userCtxKey).(domain.User)
	return u
}

func tokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenCtxKey).(string)
	return t
}
