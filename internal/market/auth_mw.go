package market

import (
	"context"
	"net/http"

	"CampusMart/internal/auth"
	"CampusMart/pkg/kit"
)

type ctxKey string

const userKey ctxKey = "user"

func UserFromContext(ctx context.Context) (auth.User, bool) {
	u, ok := ctx.Value(userKey).(auth.User)
	return u, ok
}

// AuthJWT admits requests carrying a valid session token and puts the
// token's user on the request context.
func AuthJWT(tokens *auth.TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := tokens.Parse(tok)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, claims.User())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
