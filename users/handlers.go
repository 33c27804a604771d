// This file, `handlers.go`, exposes the users service over HTTP.
package users

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/user/gatehouse-go/apperror"
	"github.com/user/gatehouse-go/auth"
)

// UserHandlers provides HTTP handlers for account operations.
type UserHandlers struct {
	service *UserService
	logger  *zap.Logger
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{service: service, logger: logger}
}

// HandleGetMe godoc
// @Summary Get current user's profile
// @Description Returns the sanitized profile of the caller, identified by the session cookie
// @Description or the bearer token depending on the configured mode.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.ProfileResponse
// @Failure 401 {object} apperror.StatusResponse "Not signed in"
// @Failure 500 {object} apperror.StatusResponse "Internal Server Error"
// @Router /api/me [get]
func (h *UserHandlers) HandleGetMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.ProfileFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, h.logger, apperror.NewUnauthorizedError(auth.MsgNotSignedIn, nil), "")
			return
		}

		profile, err := h.service.GetProfile(r.Context(), caller.ID)
		if err != nil {
			auth.WriteError(w, r, h.logger, err, MsgInternal)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, apperror.OK(*profile))
	}
}

// HandleDeleteAccount godoc
// @Summary Delete account
// @Description Permanently deletes the account after checking email, password and secret phrase.
// @Description confirmText must be exactly "delete my account" and isConfirmed must be true.
// @Tags users
// @Accept json
// @Produce json
// @Param deleteBody body users.DeleteAccountRequest true "Credentials and confirmation"
// @Success 200 {object} apperror.StatusResponse "Account deleted"
// @Failure 400 {object} apperror.StatusResponse "Invalid input"
// @Failure 401 {object} apperror.StatusResponse "Credentials or secret phrase do not match"
// @Failure 409 {object} apperror.StatusResponse "No secret phrase configured for the account"
// @Failure 500 {object} apperror.StatusResponse "Internal Server Error"
// @Router /api/delete [post]
func (h *UserHandlers) HandleDeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, 1<<20)
		defer body.Close()

		var req DeleteAccountRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeStatus(w, r, h.logger, apperror.NewValidationError(MsgInvalidInput, err))
			return
		}

		if err := h.service.DeleteAccount(r.Context(), req); err != nil {
			writeStatus(w, r, h.logger, err)
			return
		}
		h.logger.Info("account deleted", zap.String("request_id", middleware.GetReqID(r.Context())))
		apperror.WriteJSON(w, http.StatusOK, apperror.StatusResponse{Success: true, Message: MsgDeleted})
	}
}

// writeStatus renders err in the {success, message} shape used by the deletion endpoint.
func writeStatus(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr := apperror.Resolve(err, MsgInternal)
	if appErr.IsInternal() {
		logger.Error("account deletion failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	apperror.WriteJSON(w, appErr.StatusCode(), apperror.StatusResponse{Success: false, Message: appErr.Message})
}
