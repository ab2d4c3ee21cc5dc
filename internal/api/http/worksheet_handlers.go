package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/worksheets/internal/auth/middleware"
	"github.com/mind-engage/worksheets/internal/generate"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

// POST /worksheets/generate
func GenerateHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg generate.Config
		if err := decodeJSON(w, r, &cfg); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ws, err := svc.Generate(r.Context(), auth.ViewerFromContext(r.Context()), cfg)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, ws)
	}
}

// GET /worksheets/{id}
func GetWorksheetHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := svc.Get(r.Context(), chi.URLParam(r, "id"), auth.ViewerFromContext(r.Context()))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ws)
	}
}

// POST and DELETE /worksheets/{id}/publish
func PublishHandler(svc *worksheet.Service, publish bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, v := chi.URLParam(r, "id"), auth.ViewerFromContext(r.Context())
		var (
			ws  worksheet.Worksheet
			err error
		)
		if publish {
			ws, err = svc.Publish(r.Context(), id, v)
		} else {
			ws, err = svc.Unpublish(r.Context(), id, v)
		}
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ws.Summarize())
	}
}

// DELETE /worksheets/{id}
func DeleteWorksheetHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id"), auth.ViewerFromContext(r.Context())); err != nil {
			writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /me/worksheets
func MyWorksheetsHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := page(r)
		list, err := svc.Mine(r.Context(), auth.ViewerFromContext(r.Context()), limit, offset)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if list == nil {
			list = []worksheet.Summary{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /me/usage
func UsageHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Usage(r.Context(), auth.ViewerFromContext(r.Context()))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"period":      u.Period,
			"generations": u.Generations,
			"limit":       u.Limit,
			"remaining":   u.Remaining(),
		})
	}
}
