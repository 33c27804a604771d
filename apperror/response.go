package apperror

import (
	"encoding/json"
	"net/http"
)

// Response is the uniform envelope returned by every public endpoint.
// @Description Uniform response envelope
type Response[T any] struct {
	Success bool   `json:"success" example:"false"`
	Payload *T     `json:"payload"`
	Message string `json:"message" example:"email/password combination incorrect"`
}

// StatusResponse is the envelope used by endpoints that never return a payload (account deletion).
// @Description Success flag and message
type StatusResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"account deleted"`
}

// OK builds a successful envelope around payload.
func OK[T any](payload T) Response[T] {
	return Response[T]{Success: true, Payload: &payload}
}

// Fail builds a failed envelope. The payload is always null.
func Fail(message string) Response[struct{}] {
	return Response[struct{}]{Success: false, Message: message}
}

// GenericInternalMessage is what clients see when an error of unknown origin reaches the boundary.
const GenericInternalMessage = "an unexpected error occurred"

// WriteJSON serializes `data` to JSON and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"success":false,"payload":null,"message":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Resolve converts any error into an *AppError. Errors that are not already an *AppError become
// an InternalError carrying fallback as the client-facing message; the original error is kept
// in `Err` for logging only.
func Resolve(err error, fallback string) *AppError {
	if appErr, ok := FromError(err); ok {
		return appErr
	}
	if fallback == "" {
		fallback = GenericInternalMessage
	}
	return NewInternalError(fallback, err)
}
