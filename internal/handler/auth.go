package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/telehealthhq/telehealth-api/internal/middleware"
	"github.com/telehealthhq/telehealth-api/internal/usecase"
	"github.com/telehealthhq/telehealth-api/internal/validator"
)

// CookieOptions drives how the session cookie is written.
type CookieOptions struct {
	ExpiresDays int
	// Secure also switches SameSite to None so the cookie survives the
	// cross-origin frontend in production.
	Secure bool
}

// AuthHandler serves the account lifecycle endpoints.
type AuthHandler struct {
	auth     usecase.AuthUsecase
	validate *validator.Validator
	logger   zerolog.Logger
	cookies  CookieOptions
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(
	auth usecase.AuthUsecase,
	validate *validator.Validator,
	logger zerolog.Logger,
	cookies CookieOptions,
) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: validate,
		logger:   logger,
		cookies:  cookies,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.auth.Register(r.Context(), usecase.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, session.Token)
	respondJSON(w, http.StatusOK, response{
		Status:      "success",
		Message:     "registration successful",
		Token:       session.Token,
		StreamToken: session.ChatToken,
		User: &userPayload{
			ID:   session.Account.ID.Hex(),
			Name: session.Account.Username,
		},
	})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.auth.VerifyAccount(r.Context(), req.Email, req.OTP); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, response{
		Status:  "success",
		Message: "email has been verified",
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.auth.ResendOTP(r.Context(), req.Email); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, response{
		Status:  "success",
		Message: "a new OTP has been sent to your email",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, session.Token)
	respondJSON(w, http.StatusOK, response{
		Status:      "success",
		Message:     "login successful",
		Token:       session.Token,
		StreamToken: session.ChatToken,
		User: &userPayload{
			ID:   session.Account.ID.Hex(),
			Name: session.Account.Username,
		},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// Stateless logout: the cookie is overwritten with a short-lived dummy
	// value; there is no server-side revocation list.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "loggedout",
		Path:     "/",
		MaxAge:   10,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.sameSite(),
	})

	respondJSON(w, http.StatusOK, response{
		Status:  "success",
		Message: "logged out successfully",
	})
}

func (h *AuthHandler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, response{
		Status:  "success",
		Message: "a password reset OTP has been sent to your email",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.auth.ResetPassword(r.Context(), usecase.ResetPasswordParams{
		Email:       req.Email,
		Code:        req.OTP,
		NewPassword: req.Password,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, session.Token)
	respondJSON(w, http.StatusOK, response{
		Status:      "success",
		Message:     "password reset successfully",
		Token:       session.Token,
		StreamToken: session.ChatToken,
		User: &userPayload{
			ID:   session.Account.ID.Hex(),
			Name: session.Account.Username,
		},
	})
}

// decode parses and validates a JSON payload, answering the request itself
// when it is rejected.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		respondJSON(w, http.StatusBadRequest, response{Status: "fail", Message: "invalid request body"})
		return false
	}

	if err := h.validate.Struct(payload); err != nil {
		respondError(w, h.logger, err)
		return false
	}

	return true
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   h.cookies.ExpiresDays * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.sameSite(),
	})
}

func (h *AuthHandler) sameSite() http.SameSite {
	if h.cookies.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
