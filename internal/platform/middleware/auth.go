package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"studentdesk/internal/auth/models"
	jwttoken "studentdesk/internal/jwt_token"
	dErrors "studentdesk/pkg/domain-errors"
	"studentdesk/pkg/platform/httputil"
	"studentdesk/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// Identity is the authenticated principal attached to the request context by
// RequireAuth.
type Identity struct {
	UserID   uuid.UUID
	Email    string
	Username string
	Role     models.Role
}

type contextKeyIdentity struct{}

// GetIdentity retrieves the authenticated identity from the context.
// Returns nil when no guard attached one.
func GetIdentity(ctx context.Context) *Identity {
	identity, ok := ctx.Value(contextKeyIdentity{}).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// WithIdentity injects an identity into the context. Useful for handler unit
// tests that don't run the guard chain.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, identity)
}

// RequireAuth is the access guard: it validates the bearer token and attaches
// the decoded identity to the request context.
//
// Outcomes: missing header 401, malformed header 401, expired token 401,
// any other invalid token 403.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				warn(ctx, logger, "unauthorized access - missing token")
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized: No token provided"))
				return
			}

			token, ok := bearerToken(authHeader)
			if !ok {
				warn(ctx, logger, "unauthorized access - invalid token format")
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized: Invalid token format"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					warn(ctx, logger, "unauthorized access - token expired", "error", err.Error())
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized: Token has expired"))
					return
				}
				warn(ctx, logger, "forbidden access - invalid token", "error", err.Error())
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Forbidden: Invalid token"))
				return
			}

			identity, err := identityFromClaims(claims)
			if err != nil {
				warn(ctx, logger, "forbidden access - malformed claims", "error", err.Error())
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Forbidden: Invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// OptionalAuth attaches an identity when a valid bearer token is present and
// proceeds regardless. Used by /logout, which always succeeds.
func OptionalAuth(validator JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
				if claims, err := validator.ValidateToken(token); err == nil {
					if identity, err := identityFromClaims(claims); err == nil {
						ctx = WithIdentity(ctx, identity)
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is the role guard factory: the returned gate admits only
// identities whose role is in the allowed set. It assumes RequireAuth ran
// earlier in the chain.
func RequireRole(logger *slog.Logger, allowed ...models.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			identity := GetIdentity(ctx)
			if identity == nil {
				warn(ctx, logger, "role check without authenticated identity")
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized: User not authenticated"))
				return
			}

			if _, ok := allowedSet[identity.Role]; !ok {
				warn(ctx, logger, "insufficient permissions",
					"user_id", identity.UserID.String(),
					"role", string(identity.Role),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Forbidden: Insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from a "Bearer <token>" header. The second
// field must be present; the scheme word itself is not inspected, matching
// the lenient split the API documents.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func identityFromClaims(claims *jwttoken.Claims) (*Identity, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:   userID,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     models.Role(claims.Role),
	}, nil
}

func warn(ctx context.Context, logger *slog.Logger, msg string, attrs ...any) {
	if logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	logger.WarnContext(ctx, msg, attrs...)
}
