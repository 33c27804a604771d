package auth

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/user/gatehouse-go/apperror"
	"github.com/user/gatehouse-go/session"
)

// UnknownSourceAddress keys the throttle for requests that carry no forwarded address.
const UnknownSourceAddress = "unknown-ip"

// SourceAddress returns the throttling key for r: the first entry of X-Forwarded-For.
// The header is client-controlled; deployments must put a proxy in front that overwrites it.
func SourceAddress(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return UnknownSourceAddress
	}
	first, _, _ := strings.Cut(xff, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return UnknownSourceAddress
}

// bearerToken extracts the token from an `Authorization: Bearer {token}` header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAuth rejects requests without a valid credential for the negotiator's mode and
// stores the caller's profile in the request context for the next handler.
func RequireAuth(n *Negotiator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, err := n.Authenticate(r)
			switch {
			case err == nil:
			case errors.Is(err, session.ErrInvalidSession), errors.Is(err, ErrInvalidToken):
				logger.Debug("request not authenticated",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Error(err))
				WriteError(w, r, logger, apperror.NewUnauthorizedError(MsgNotSignedIn, err), "")
				return
			default:
				// Store failures are not the caller's fault.
				WriteError(w, r, logger, err, apperror.GenericInternalMessage)
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContextWithProfile(r.Context(), profile)))
		})
	}
}

// Recoverer turns a panic into the generic internal-error envelope and logs the stack.
func Recoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic while serving request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				apperror.WriteJSON(w, http.StatusInternalServerError, apperror.Fail(apperror.GenericInternalMessage))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
