package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/telehealthhq/telehealth-api/internal/usecase"
	"github.com/telehealthhq/telehealth-api/internal/validator"
)

// response is the single envelope every endpoint answers with. Optional
// fields are omitted when empty.
type response struct {
	Status      string       `json:"status"`
	Message     string       `json:"message,omitempty"`
	Token       string       `json:"token,omitempty"`
	StreamToken string       `json:"streamToken,omitempty"`
	User        *userPayload `json:"user,omitempty"`
}

// userPayload is the public account projection: never hashes, never OTP state.
type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Image string `json:"image,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError funnels every failure through one formatter: known domain
// errors keep their message and mapped status code, anything unexpected is
// logged and collapsed into a generic 500.
func respondError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := errorStatus(err)

	message := err.Error()
	if status == http.StatusInternalServerError && !isKnownError(err) {
		logger.Error().Err(err).Msg("unexpected error")
		message = "something went wrong"
	}

	envelope := "fail"
	if status >= http.StatusInternalServerError {
		envelope = "error"
	}

	respondJSON(w, status, response{Status: envelope, Message: message})
}

func errorStatus(err error) int {
	switch {
	case validator.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrEmailTaken),
		errors.Is(err, usecase.ErrInvalidOTP),
		errors.Is(err, usecase.ErrOTPExpired),
		errors.Is(err, usecase.ErrAlreadyVerified),
		errors.Is(err, usecase.ErrResetInvalid):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrAccountNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func isKnownError(err error) bool {
	return errors.Is(err, usecase.ErrNotifyFailed) || errors.Is(err, usecase.ErrChatUnavailable)
}
