package server

import (
	"net/http"

	"vse_go/internal/domain"
	"vse_go/internal/service"
)

// AuthHandler handles registration, login and profile requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler is the constructor.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    accountResponse `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "all fields required")
		return
	}

	account, token, err := h.auth.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "Registration successful",
		Token:   token,
		User:    toAccountResponse(account),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	account, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    toAccountResponse(account),
	})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	account, err := h.auth.Profile(r.Context(), accountID(r))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{ID: a.ID, Username: a.Username, Email: a.Email}
}
