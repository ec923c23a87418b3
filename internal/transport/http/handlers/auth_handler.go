package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type emailInput struct {
	Email string `json:"email" validate:"required,email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeWithPassword(w, r, &input, func() string { return input.Password }) {
		return
	}

	resp, err := h.authService.Register(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
		case errors.Is(err, service.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username is already taken")
		default:
			log.Error("register", "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decode(w, r, &input) {
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		} else {
			log.Error("login", "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) InitRegistration(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeWithPassword(w, r, &input, func() string { return input.Password }) {
		return
	}

	if err := h.authService.InitRegistration(r.Context(), input); err != nil {
		writeServiceError(w, "init registration", err)
		return
	}

	writeJSON(w, http.StatusAccepted, messageResponse{Message: "Verification code sent"})
}

func (h *AuthHandler) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var input service.VerifyInput
	if !decode(w, r, &input) {
		return
	}

	resp, err := h.authService.VerifyRegistration(r.Context(), input)
	if err != nil {
		writeServiceError(w, "verify registration", err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var input emailInput
	if !decode(w, r, &input) {
		return
	}

	if err := h.authService.ResendCode(r.Context(), input.Email); err != nil {
		writeServiceError(w, "resend code", err)
		return
	}

	writeJSON(w, http.StatusAccepted, messageResponse{Message: "Verification code sent"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input emailInput
	if !decode(w, r, &input) {
		return
	}

	msg, err := h.authService.ForgotPassword(r.Context(), input.Email)
	if err != nil {
		writeServiceError(w, "forgot password", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input service.ResetPasswordInput
	if !decodeWithPassword(w, r, &input, func() string { return input.Password }) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), input); err != nil {
		writeServiceError(w, "reset password", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset"})
}

// decodeWithPassword is decode plus the password strength rules.
func decodeWithPassword(w http.ResponseWriter, r *http.Request, dst any, password func() string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}

	errs := validator.Struct(dst)
	validator.Password(errs, password())
	if errs.HasErrors() {
		writeValidationErrors(w, errs)
		return false
	}
	return true
}
