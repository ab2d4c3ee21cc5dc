package http

import (
	"errors"
	"net/http"
	"time"

	auth "github.com/mind-engage/worksheets/internal/auth/middleware"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

type tokenResponse struct {
	AccessToken string            `json:"access_token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Profile     worksheet.Profile `json:"profile"`
}

// POST /auth/register {email, password, display_name, role}
func RegisterHandler(svc *worksheet.Service, a *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email       string `json:"email"`
			Password    string `json:"password"`
			DisplayName string `json:"display_name"`
			Role        string `json:"role"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Role == "" {
			req.Role = string(worksheet.RoleTeacher)
		}
		p, err := svc.Register(r.Context(), req.Email, req.Password, req.DisplayName, worksheet.Role(req.Role))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		issue(w, r, a, p, http.StatusCreated)
	}
}

// POST /auth/login {email, password}
func LoginHandler(svc *worksheet.Service, a *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, worksheet.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeErr(w, r, err)
			return
		}
		issue(w, r, a, p, http.StatusOK)
	}
}

func issue(w http.ResponseWriter, r *http.Request, a *auth.AuthService, p worksheet.Profile, status int) {
	tok, exp, err := a.IssueJWT(p.ID, string(p.Role))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, status, tokenResponse{AccessToken: tok, ExpiresAt: exp, Profile: p})
}
