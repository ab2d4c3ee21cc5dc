package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/worksheets/internal/auth/middleware"
	"github.com/mind-engage/worksheets/internal/render"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

// PDFSource renders a worksheet to PDF bytes. Both render.PDFRenderer and
// render.Cache satisfy it.
type PDFSource interface {
	Render(ctx context.Context, w worksheet.Worksheet, opts render.Options) ([]byte, error)
}

// GET /worksheets/{id}/pdf?answers=1
func PDFHandler(svc *worksheet.Service, pdfs PDFSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := auth.ViewerFromContext(r.Context())
		ws, err := svc.Load(r.Context(), chi.URLParam(r, "id"), v)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		withKey, _ := strconv.ParseBool(r.URL.Query().Get("answers"))
		if withKey && !v.Owns(ws) {
			writeError(w, http.StatusForbidden, "answer key is only available to the owner")
			return
		}
		b, err := pdfs.Render(r.Context(), ws, render.Options{AnswerKey: withKey})
		if err != nil {
			writeErr(w, r, err)
			return
		}
		name := ws.Slug
		if name == "" {
			name = ws.ID
		}
		if withKey {
			name += "-answers"
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, name))
		w.Header().Set("Content-Length", strconv.Itoa(len(b)))
		_, _ = w.Write(b)
	}
}
