package http

import (
	"net/http"

	auth "github.com/mind-engage/worksheets/internal/auth/middleware"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /me/password
func ChangePasswordHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordReq
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.NewPassword == "" {
			writeError(w, http.StatusBadRequest, "new password required")
			return
		}
		err := svc.ChangePassword(r.Context(), auth.ViewerFromContext(r.Context()), req.OldPassword, req.NewPassword)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
