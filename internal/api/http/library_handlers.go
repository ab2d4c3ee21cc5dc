package http

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/worksheets/internal/worksheet"
)

// GET /library?curriculum=&year=&topic=&q=&limit=&offset=
func LibraryHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := worksheet.LibraryOpts{
			Curriculum: strings.ToLower(q.Get("curriculum")),
			Topic:      q.Get("topic"),
			Q:          q.Get("q"),
		}
		if y := q.Get("year"); y != "" {
			n, err := strconv.Atoi(y)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "year must be a positive integer")
				return
			}
			opts.YearGroup = n
		}
		opts.Limit, opts.Offset = page(r)
		list, err := svc.Library(r.Context(), opts)
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

// GET /library/{slug}
func LibraryItemHandler(svc *worksheet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := svc.LibraryItem(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ws)
	}
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

const sitemapMaxURLs = 5000

// GET /sitemap.xml lists the library index and every published worksheet.
func SitemapHandler(svc *worksheet.Service, publicURL string) http.HandlerFunc {
	base := strings.TrimSuffix(publicURL, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		set := urlset{
			XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
			URLs:  []sitemapURL{{Loc: base + "/library", ChangeFreq: "daily"}},
		}
		for offset := 0; len(set.URLs) < sitemapMaxURLs; {
			batch, err := svc.Library(r.Context(), worksheet.LibraryOpts{Limit: 100, Offset: offset})
			if err != nil {
				writeErr(w, r, err)
				return
			}
			for _, s := range batch {
				set.URLs = append(set.URLs, sitemapURL{
					Loc:     base + "/library/" + s.Slug,
					LastMod: time.Unix(s.UpdatedAt, 0).UTC().Format("2006-01-02"),
				})
			}
			if len(batch) < 100 {
				break
			}
			offset += len(batch)
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = w.Write([]byte(xml.Header))
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		_ = enc.Encode(set)
	}
}

// GET /robots.txt
func RobotsHandler(publicURL string) http.HandlerFunc {
	body := fmt.Sprintf("User-agent: *\nAllow: /library\nDisallow: /me/\nDisallow: /auth/\nDisallow: /worksheets/\nSitemap: %s/sitemap.xml\n",
		strings.TrimSuffix(publicURL, "/"))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}
