package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/telehealthhq/telehealth-api/internal/repository"
	"github.com/telehealthhq/telehealth-api/internal/token"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// Identity is the projection attached to the request context after a
// successful authentication. It never carries credentials, hashes or OTP
// state; downstream handlers that need more must fetch it themselves.
type Identity struct {
	ID       string
	Username string
}

type identityContextKey struct{}

// IdentityFromContext returns the authenticated identity stored by the
// session guard, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(Identity)
	return identity, ok
}

// SessionGuard authenticates inbound requests: it extracts a session token,
// verifies it and re-resolves the account it points at.
type SessionGuard struct {
	tokens   token.Issuer
	accounts repository.AccountRepository
	logger   zerolog.Logger
}

// NewSessionGuard creates a new SessionGuard instance.
func NewSessionGuard(tokens token.Issuer, accounts repository.AccountRepository, logger zerolog.Logger) *SessionGuard {
	return &SessionGuard{
		tokens:   tokens,
		accounts: accounts,
		logger:   logger,
	}
}

// Authenticate admits requests carrying a valid session token and rejects
// everything else with a 401. The cookie is consulted before the
// Authorization header.
func (g *SessionGuard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractToken(r)
		if raw == "" {
			unauthorized(w, "you are not logged in, please log in to access this resource")
			return
		}

		claims, err := g.tokens.Verify(raw)
		if err != nil {
			unauthorized(w, "invalid or expired token, please log in again")
			return
		}

		account, err := g.accounts.GetAccount(r.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				unauthorized(w, "the account linked to this token no longer exists")
				return
			}

			g.logger.Error().Err(err).Msg("session guard failed to resolve account")
			internalError(w)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, Identity{
			ID:       account.ID.Hex(),
			Username: account.Username,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken locates the session token in the cookie or, failing that, in
// a bearer Authorization header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, errorEnvelope{Status: "fail", Message: message})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{Status: "error", Message: "something went wrong"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
