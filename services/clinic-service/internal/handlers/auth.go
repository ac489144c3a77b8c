package handlers

import (
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/campusclinic/libs/auth"
	"github.com/md-rashed-zaman/campusclinic/libs/httpx"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/accounts"
)

type AuthHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewAuthHandler(svc AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: svc, logger: logger}
}

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	StudentNumber string `json:"student_number"`
	Position      string `json:"position"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string      `json:"token,omitempty"`
	Account accountView `json:"account"`
}

// Register is served with optional auth: an admin token unlocks staff and
// admin registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	var caller *auth.Principal
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		caller = &p
	}
	sess, err := h.accounts.Register(r.Context(), caller, accounts.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		FullName:      req.FullName,
		Phone:         req.Phone,
		Role:          req.Role,
		StudentNumber: req.StudentNumber,
		Position:      req.Position,
	})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sessionResponse{Token: sess.Token, Account: accountFrom(sess.Account)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, Account: accountFrom(sess.Account)})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	a, err := h.accounts.Profile(r.Context(), principal(r).AccountID)
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountFrom(a))
}

type profileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.accounts.UpdateProfile(r.Context(), principal(r).AccountID, accounts.ProfileInput{FullName: req.FullName, Phone: req.Phone})
	if err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountFrom(a))
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), principal(r).AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		writeErr(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
