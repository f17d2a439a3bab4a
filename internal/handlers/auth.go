package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"naksha-backend/internal/middleware"
	"naksha-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login, logout and profile requests.
type AuthHandler struct {
	userService *services.UserService
	tokenTTL    time.Duration
	secure      bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService, tokenTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokenTTL:    tokenTTL,
		secure:      secure,
	}
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		status := statusFromError(err)
		if status >= 500 {
			log.Error().Err(err).Str("email", req.Email).Msg("Registration failed")
		}
		respondError(w, clientMessage(err), status)
		return
	}

	token, err := h.userService.IssueToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue session token")
		respondError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)

	log.Info().Str("user_id", user.ID).Msg("User registered")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful",
		"user":    user,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status := statusFromError(err)
		if status >= 500 {
			log.Error().Err(err).Msg("Login failed")
		}
		respondError(w, clientMessage(err), status)
		return
	}

	token, err := h.userService.IssueToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue session token")
		respondError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)

	log.Info().Str("user_id", user.ID).Msg("User logged in")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    user,
	})
}

// Logout handles POST /api/auth/logout. This only clears the browser's
// cookie; a copied token stays valid until its embedded expiry since there
// is no server-side revocation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Profile handles GET /api/user/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.Profile(r.Context(), userID)
	if err != nil {
		status := statusFromError(err)
		if status >= 500 {
			log.Error().Err(err).Str("user_id", userID).Msg("Profile fetch failed")
		}
		respondError(w, clientMessage(err), status)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
