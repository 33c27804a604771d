// This file, `handlers.go`, is the HTTP layer of the auth package: it decodes requests,
// calls AuthService, and renders every outcome in the uniform response envelope.

package auth

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/user/gatehouse-go/apperror"
)

// maxBodyBytes caps request bodies read by the handlers.
const maxBodyBytes = 1 << 20

// Handlers wraps the AuthService to provide HTTP handlers.
type Handlers struct {
	service *AuthService
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *AuthService, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// HandleLogin godoc
// @Summary Log in
// @Description Verifies email and password. In session mode the response sets the `sess_id`
// @Description cookie and carries the profile; in jwt mode the payload is a signed token.
// @Description Eight failures from one source address lock it out for ten minutes.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "Login credentials"
// @Param X-Forwarded-For header string false "Client address, first entry is used"
// @Success 200 {object} auth.ProfileResponse "Session mode"
// @Success 200 {object} auth.TokenResponse "JWT mode"
// @Failure 400 {object} apperror.StatusResponse "Malformed request"
// @Failure 401 {object} apperror.StatusResponse "Wrong email or password"
// @Failure 429 {object} apperror.StatusResponse "Source address locked out"
// @Failure 500 {object} apperror.StatusResponse "Internal Server Error"
// @Router /api/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer body.Close()

		addr := SourceAddress(r)
		artifact, err := h.service.Login(r.Context(), addr, body)
		if err != nil {
			var locked *LockedError
			if apperror.IsTooManyRequests(err) && errors.As(err, &locked) {
				secs := int(math.Ceil(locked.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				h.logger.Info("login rejected for locked address",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("source_address", addr),
					zap.Int("retry_after_minutes", locked.RetryAfterMinutes()))
			}
			WriteError(w, r, h.logger, err, MsgLoginInternal)
			return
		}

		if artifact.Cookie != nil {
			http.SetCookie(w, artifact.Cookie)
		}
		if artifact.Profile != nil {
			apperror.WriteJSON(w, http.StatusOK, apperror.OK(*artifact.Profile))
			return
		}
		apperror.WriteJSON(w, http.StatusOK, apperror.OK(artifact.Token))
	}
}

// HandleSignup godoc
// @Summary Sign up
// @Description Registers a new account. Both the password and the secret phrase are stored hashed.
// @Tags Auth
// @Accept json
// @Produce json
// @Param signupBody body auth.SignupRequest true "New account details"
// @Success 201 {object} auth.ProfileResponse "Account created"
// @Failure 400 {object} apperror.StatusResponse "Malformed request"
// @Failure 409 {object} apperror.StatusResponse "Could not register"
// @Failure 500 {object} apperror.StatusResponse "Internal Server Error"
// @Router /api/signup [post]
func (h *Handlers) HandleSignup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer body.Close()

		var req SignupRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			WriteError(w, r, h.logger, apperror.NewValidationError(MsgMalformed, err), "")
			return
		}

		profile, err := h.service.Signup(r.Context(), req)
		if err != nil {
			WriteError(w, r, h.logger, err, MsgSignupInternal)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, apperror.OK(*profile))
	}
}

// HandleLogout godoc
// @Summary Log out
// @Description Deletes the server-side session and clears the cookie. In jwt mode there is
// @Description nothing to revoke and the call simply succeeds.
// @Tags Auth
// @Produce json
// @Success 200 {object} apperror.StatusResponse
// @Failure 500 {object} apperror.StatusResponse "Internal Server Error"
// @Router /api/logout [post]
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := h.service.Logout(r.Context(), r)
		if err != nil {
			WriteError(w, r, h.logger, err, MsgLogoutInternal)
			return
		}
		if cookie != nil {
			http.SetCookie(w, cookie)
		}
		apperror.WriteJSON(w, http.StatusOK, apperror.StatusResponse{Success: true})
	}
}

// WriteError renders err as a failed envelope with the status of its AppError type.
// Errors that are not AppErrors get fallback as their message. Internal failures are logged
// with their cause; the cause itself never reaches the client.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, fallback string) {
	appErr := apperror.Resolve(err, fallback)
	if appErr.IsInternal() {
		logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	apperror.WriteJSON(w, appErr.StatusCode(), apperror.Fail(appErr.Message))
}
