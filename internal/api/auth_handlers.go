package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Nikhil-Doal/tracker/internal/auth"
	"github.com/Nikhil-Doal/tracker/internal/database"
	"github.com/Nikhil-Doal/tracker/internal/models"
)

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message      string       `json:"message"`
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

type updateProfileRequest struct {
	Name     *string              `json:"name"`
	Settings *models.UserSettings `json:"settings"`
}

func writeValidation(w http.ResponseWriter, err error) {
	var errs ValidationErrors
	if !errors.As(err, &errs) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":    "Validation error",
		"messages": errs.Messages(),
	})
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if err := ValidateRegistration(req); err != nil {
		writeValidation(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password, h.auth.BcryptCost)
	if err != nil {
		h.writeFailure(w, r, "Registration failed", err)
		return
	}

	user := &models.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Settings:     models.DefaultUserSettings(),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		h.writeFailure(w, r, "Registration failed", err)
		return
	}

	tokens, err := auth.GenerateTokenPair(h.auth, user.ID)
	if err != nil {
		h.writeFailure(w, r, "Registration failed", err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, AuthResponse{
		Message:      "User registered successfully",
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if err := ValidateLogin(req); err != nil {
		writeValidation(w, err)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.writeFailure(w, r, "Login failed", err)
		return
	}

	// OAuth accounts have no password hash
	if user.PasswordHash == "" || !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tokens, err := auth.GenerateTokenPair(h.auth, user.ID)
	if err != nil {
		h.writeFailure(w, r, "Login failed", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message:      "Login successful",
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Refresh handles POST /api/auth/refresh. It requires a refresh token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GenerateToken(currentUser(r), auth.AccessToken, h.auth.Secret, h.auth.AccessTTL)
	if err != nil {
		h.writeFailure(w, r, "Token refresh failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), currentUser(r))
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.writeFailure(w, r, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so the client
// discards them.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// UpdateProfile handles PUT /api/auth/update-profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == nil && req.Settings == nil {
		writeError(w, http.StatusBadRequest, "No valid fields to update")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeValidation(w, ValidationErrors{{Field: "name", Message: "Name cannot be empty."}})
			return
		}
		req.Name = &name
	}
	if req.Settings != nil && req.Settings.Categorization == nil {
		req.Settings.Categorization = map[string]string{}
	}

	userID := currentUser(r)
	current, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.writeFailure(w, r, "Update failed", err)
		return
	}

	nameSame := req.Name == nil || *req.Name == current.Name
	settingsSame := req.Settings == nil || reflect.DeepEqual(*req.Settings, current.Settings)
	if nameSame && settingsSame {
		writeError(w, http.StatusBadRequest, "No changes made")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, models.ProfileUpdate{
		Name:     req.Name,
		Settings: req.Settings,
	})
	if err != nil {
		h.writeFailure(w, r, "Update failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
