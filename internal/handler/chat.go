package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/telehealthhq/telehealth-api/internal/middleware"
	"github.com/telehealthhq/telehealth-api/internal/usecase"
	"github.com/telehealthhq/telehealth-api/internal/validator"
)

// ChatHandler serves the chat token endpoints.
type ChatHandler struct {
	chat     usecase.ChatUsecase
	validate *validator.Validator
	logger   zerolog.Logger
}

// NewChatHandler creates a new ChatHandler instance.
func NewChatHandler(chat usecase.ChatUsecase, validate *validator.Validator, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chat:     chat,
		validate: validate,
		logger:   logger,
	}
}

// GetToken mints a chat token for the authenticated caller. Runs behind the
// session guard.
func (h *ChatHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, response{Status: "fail", Message: "missing authenticated identity"})
		return
	}

	chatToken, err := h.chat.TokenForAccount(r.Context(), identity.ID, identity.Username)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, response{
		Status: "success",
		Token:  chatToken,
		User: &userPayload{
			ID:   identity.ID,
			Name: identity.Username,
		},
	})
}

// PublicToken mints a chat token for a caller-supplied user id without
// authentication. The chat user is always created with the least-privileged
// role.
func (h *ChatHandler) PublicToken(w http.ResponseWriter, r *http.Request) {
	var req ChatTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, response{Status: "fail", Message: "invalid request body"})
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	chatToken, chatUser, err := h.chat.PublicToken(r.Context(), req.UserID, req.Name)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, response{
		Status: "success",
		Token:  chatToken,
		User: &userPayload{
			ID:    chatUser.ID,
			Name:  chatUser.Name,
			Role:  chatUser.Role,
			Image: "https://getstream.io/random_png/?name=" + url.QueryEscape(chatUser.Name),
		},
	})
}
