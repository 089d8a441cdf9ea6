package handlers

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"endflow/internal/content"
)

// staticPaths are always listed in the sitemap.
var staticPaths = []string{"/", "/blog", "/pricing", "/contact"}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap renders sitemap.xml from the static pages plus every published
// post and category. When the content store is unreachable only the static
// pages are listed.
func (c *Content) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	base := strings.TrimRight(c.siteURL, "/")

	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range staticPaths {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + p})
	}

	slugs, err := c.source.PublishedSlugs(ctx)
	if err != nil {
		slog.Error("content retrieval failed", "query", "published_slugs", "error", err)
	}
	for _, e := range slugs {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     base + content.PostPath(e.Slug),
			LastMod: e.PublishedAt.UTC().Format(time.DateOnly),
		})
	}

	cats, catErr := c.source.Categories(ctx)
	if catErr != nil {
		slog.Error("content retrieval failed", "query", "categories", "error", catErr)
	}
	for _, cat := range cats {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + content.CategoryPath(cat.Slug.Current)})
	}

	if err != nil || catErr != nil {
		w.Header().Set("Cache-Control", noStore)
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		slog.Warn("sitemap encode failed", "error", err)
	}
}
