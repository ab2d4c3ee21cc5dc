package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/worksheets/internal/auth/middleware"
	"github.com/mind-engage/worksheets/internal/grading"
	"github.com/mind-engage/worksheets/internal/rbac"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

// POST /score {markup, answers}
func ScoreMarkupHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Markup  string      `json:"markup"`
			Answers answersBody `json:"answers"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		answers, err := req.Answers.resolve(svc.Engine(), req.Markup)
		if err != nil {
			respondScoreErr(w, r, err)
			return
		}
		res, err := svc.ScoreMarkup(req.Markup, answers)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /worksheets/{id}/score {answers, log}
func ScoreWorksheetHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers answersBody `json:"answers"`
			Log     bool        `json:"log"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, v := chi.URLParam(r, "id"), auth.ViewerFromContext(r.Context())
		if req.Log {
			switch role := rbac.RoleFromContext(r.Context()); {
			case role == "":
				writeError(w, http.StatusUnauthorized, "authentication required to log an attempt")
				return
			case !rbac.Has(role, rbac.PermWorksheetScore):
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
		}

		var answers []string
		if req.Answers.positional() {
			var err error
			if answers, err = req.Answers.resolve(svc.Engine(), ""); err != nil {
				respondScoreErr(w, r, err)
				return
			}
		} else {
			ws, err := svc.Load(r.Context(), id, v)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			if answers, err = req.Answers.resolve(svc.Engine(), ws.Markup); err != nil {
				respondScoreErr(w, r, err)
				return
			}
		}

		res, err := svc.Score(r.Context(), id, v, answers, req.Log)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /worksheets/{id}/attempts
func AttemptsHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := page(r)
		seeAll := rbac.Has(rbac.RoleFromContext(r.Context()), rbac.PermAttemptViewAll)
		list, err := svc.Attempts(r.Context(), chi.URLParam(r, "id"), auth.ViewerFromContext(r.Context()), seeAll, limit, offset)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if list == nil {
			list = []worksheet.Attempt{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// respondScoreErr reports a bad answers payload as 400 and markup problems
// through the usual mapping.
func respondScoreErr(w http.ResponseWriter, r *http.Request, err error) {
	if grading.IsMarkupParseError(err) {
		writeErr(w, r, err)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
