package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "claims"

// ActionRecorder appends entries to the audit log.
// Implementations must not fail the request when the write fails.
type ActionRecorder interface {
	Record(ctx context.Context, entry *models.ActionHistory)
}

// RevocationChecker reports whether a token id was revoked before its expiry
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Gate verifies bearer tokens and enforces roles.
// Every rejected token and every role mismatch is written to the audit log.
type Gate struct {
	tokenGenerator *service.TokenGenerator
	recorder       ActionRecorder
	revocations    RevocationChecker
	logger         *zap.Logger
}

// NewGate creates a new auth gate
func NewGate(tokenGenerator *service.TokenGenerator, recorder ActionRecorder, logger *zap.Logger) *Gate {
	return &Gate{
		tokenGenerator: tokenGenerator,
		recorder:       recorder,
		logger:         logger,
	}
}

// WithRevocation makes Authenticate reject tokens whose id was revoked
func (g *Gate) WithRevocation(checker RevocationChecker) *Gate {
	g.revocations = checker
	return g
}

// Authenticate validates the bearer token and stores its claims in the request context
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)

		// If no token found, return 401
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}

		claims, err := g.verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, errRevocationUnavailable) {
				respondError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			g.recordInvalidToken(r)
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate stores the claims of a valid bearer token in the request context
// and lets every request through, identified or not. An invalid token is still recorded.
func (g *Gate) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, errRevocationUnavailable) {
				g.logger.Warn("treating caller as anonymous, revocation check failed", zap.Error(err))
			} else {
				g.recordInvalidToken(r)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recordInvalidToken appends the TOKEN_INVALID entry for a rejected bearer token
func (g *Gate) recordInvalidToken(r *http.Request) {
	g.recorder.Record(r.Context(), &models.ActionHistory{
		ActorID:    models.UnknownActor,
		ActorLabel: models.UnknownActor,
		Action:     models.ActionTokenInvalid,
		TargetType: models.TargetSystem,
		Details:    fmt.Sprintf("access attempt with an invalid token from %s", r.RemoteAddr),
	})
}

// RequireRole rejects callers whose token role differs from role.
// It must run after Authenticate.
func (g *Gate) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			if claims.Role != role {
				g.recorder.Record(r.Context(), &models.ActionHistory{
					ActorID:    claims.UserID(),
					ActorLabel: claims.Email,
					Action:     models.ActionUnauthorizedAttempt,
					TargetType: models.TargetSystem,
					Details:    fmt.Sprintf("attempt to use a %s feature by user %s", role, claims.Email),
				})
				respondError(w, http.StatusForbidden, "access restricted to administrators")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

var errRevocationUnavailable = errors.New("revocation store unavailable")

// verify validates the token signature and expiry, then the revocation list when enabled
func (g *Gate) verify(ctx context.Context, token string) (*service.Claims, error) {
	claims, err := g.tokenGenerator.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	if g.revocations == nil || claims.ID == "" {
		return claims, nil
	}

	revoked, err := g.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		g.logger.Error("failed to check token revocation", zap.String("jti", claims.ID), zap.Error(err))
		return nil, errRevocationUnavailable
	}
	if revoked {
		return nil, fmt.Errorf("%w: token has been revoked", service.ErrInvalidToken)
	}

	return claims, nil
}

// GetClaims retrieves the authenticated caller from context
func GetClaims(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok && claims != nil
}

// WithClaims returns a copy of ctx carrying claims
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>" header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}
