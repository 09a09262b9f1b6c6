package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"aternotes/internal/logger"
	"aternotes/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	guides  service.GuideServicer
	baseURL string
	log     logger.Logger
}

// NewSeoHandler creates a new SeoHandler. Sitemap locations are absolute
// URLs under baseURL.
func NewSeoHandler(gs service.GuideServicer, baseURL string, log logger.Logger) *SeoHandler {
	return &SeoHandler{guides: gs, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// robotsHandler serves a static robots.txt file.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /api/guides")
	fmt.Fprintln(w, "Disallow: /api/me/")
	fmt.Fprintln(w, "Disallow: /api/review/")
	fmt.Fprintln(w, "Disallow: /auth/")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.baseURL)
}

const sitemapDateFormat = "2006-01-02"

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler generates and serves a sitemap of published guides.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	guides, err := h.guides.ListPublishedGuides(r.Context())
	if err != nil {
		h.log.Error(err, "Failed to list guides for sitemap")
		http.Error(w, "Failed to retrieve guides for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, len(guides)),
	}

	for i, guide := range guides {
		sitemap.URLs[i] = sitemapURL{
			Loc:     h.baseURL + "/api/guides/by-slug/" + url.PathEscape(guide.Slug),
			LastMod: guide.UpdatedAt.Format(sitemapDateFormat),
		}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		h.log.Error(err, "Failed to encode sitemap")
	}
}
