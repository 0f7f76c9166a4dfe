package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/dchest/captcha"
	"go.uber.org/zap"

	"notesapi/auth"
	"notesapi/models"
	"notesapi/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string           `json:"message"`
	User    models.Principal `json:"user"`
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Username        string `json:"username"`
	CaptchaID       string `json:"captcha_id"`
	CaptchaSolution string `json:"captcha_solution"`
}

type userLookupRequest struct {
	UserEmail string `json:"userEmail"`
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// LoginHandler accepts the email as "username", either form-encoded or JSON.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if !h.loginLimiter.Allow(ip) {
		sendError(w, r, http.StatusTooManyRequests, "TooManyAttempts")
		return
	}

	var input loginRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
			return
		}
	} else {
		input.Username = r.FormValue("username")
		input.Password = r.FormValue("password")
	}

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		sendError(w, r, http.StatusBadRequest, "MissingCredentials")
		return
	}

	principal, err := h.authenticator.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.loginLimiter.RecordFailure(ip)
			sendError(w, r, http.StatusUnauthorized, "InvalidCredentials")
			return
		}
		h.logger.Error("login lookup failed", zap.Error(err))
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}

	h.loginLimiter.Reset(ip)

	if err := h.sessions.Login(w, r, principal); err != nil {
		h.logger.Error("session create failed", zap.Error(err), zap.Int64("user_id", principal.ID))
		sendError(w, r, http.StatusInternalServerError, "InternalServerError")
		return
	}

	sendJSON(w, http.StatusOK, loginResponse{Message: tr(r, "LoginSuccessful"), User: principal})
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if !h.signupLimiter.Allow(ip) {
		sendError(w, r, http.StatusTooManyRequests, "TooManyAttempts")
		return
	}

	var input registerRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}

	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" || input.Password == "" {
		sendError(w, r, http.StatusBadRequest, "InvalidRegistration")
		return
	}

	if h.captchaRequired && !captcha.VerifyString(input.CaptchaID, input.CaptchaSolution) {
		sendError(w, r, http.StatusBadRequest, "InvalidCaptcha")
		return
	}

	user := &models.User{Email: input.Email, Username: input.Username}
	hashPassword := func() (string, error) { return h.hasher.HashPassword(input.Password) }
	if err := h.registrar.Register(r.Context(), user, hashPassword); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			sendMessage(w, r, http.StatusConflict, "EmailInUse")
			return
		}
		h.logger.Error("user registration failed", zap.Error(err))
		sendError(w, r, http.StatusInternalServerError, "ErrorRegisteringUser")
		return
	}

	// Record signup attempt to limit rate of creation per IP
	h.signupLimiter.RecordFailure(ip)

	h.logger.Info("user registered", zap.Int64("user_id", user.ID))
	sendMessage(w, r, http.StatusCreated, "UserRegistered")
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Warn("session destroy failed", zap.Error(err))
	}
	sendMessage(w, r, http.StatusOK, "LogoutSuccessful")
}

// UserLookupHandler serves both /auth/user and /auth/user/profile. A session
// may only look up its own email.
func (h *Handler) UserLookupHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var input userLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}
	if !strings.EqualFold(strings.TrimSpace(input.UserEmail), principal.Email) {
		sendError(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	users, err := h.users.FindByEmail(r.Context(), principal.Email)
	if err != nil {
		h.logger.Error("user lookup failed", zap.Error(err), zap.Int64("user_id", principal.ID))
		sendError(w, r, http.StatusInternalServerError, "ErrorFetchingUser")
		return
	}
	sendJSON(w, http.StatusOK, users)
}
