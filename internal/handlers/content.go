// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"endflow/internal/cms"
	"endflow/internal/models"
	"endflow/internal/slug"
	"endflow/internal/store"
)

// ContentSource is the read side of the content layer. *store.ContentStore
// satisfies it.
type ContentSource interface {
	PostBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListPublishedPosts(ctx context.Context, page cms.Page) ([]models.Post, error)
	PostsByCategory(ctx context.Context, slug string, page cms.Page) ([]models.Post, error)
	PostsByAuthor(ctx context.Context, slug string, page cms.Page) ([]models.Post, error)
	PostsByTag(ctx context.Context, slug string, page cms.Page) ([]models.Post, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Authors(ctx context.Context) ([]models.Author, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	PublishedSlugs(ctx context.Context) ([]store.SlugEntry, error)
}

// Cache-Control values for content responses.
const (
	publicCache = "public, max-age=60, stale-while-revalidate=300"
	noStore     = "no-store"
)

// Content serves published content as JSON. A missing document is an
// ordinary empty state and a content store outage degrades to empty lists,
// so the site front end never has to handle a crash.
type Content struct {
	source  ContentSource
	siteURL string
}

// NewContent creates a new Content handler group. siteURL is the public
// origin used for absolute sitemap links.
func NewContent(source ContentSource, siteURL string) *Content {
	return &Content{source: source, siteURL: siteURL}
}

// postListResponse is the body of every post list endpoint.
type postListResponse struct {
	Posts  []models.Post `json:"posts"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
}

// ListPosts returns published posts, newest first.
func (c *Content) ListPosts(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	posts, err := c.source.ListPublishedPosts(r.Context(), page)
	c.writePosts(w, page, posts, err, "list_posts")
}

// Post returns a single published post by slug.
func (c *Content) Post(w http.ResponseWriter, r *http.Request) {
	s := chi.URLParam(r, "slug")
	if !slug.Valid(s) {
		c.notFound(w, "post")
		return
	}

	post, err := c.source.PostBySlug(r.Context(), s)
	if err != nil {
		slog.Error("content retrieval failed", "query", "post_by_slug", "slug", s, "error", err)
		w.Header().Set("Cache-Control", noStore)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"post":    nil,
			"message": "Content is temporarily unavailable.",
		})
		return
	}
	if post == nil {
		c.notFound(w, "post")
		return
	}

	w.Header().Set("Cache-Control", publicCache)
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

// Categories returns every category.
func (c *Content) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := c.source.Categories(r.Context())
	if err != nil {
		slog.Error("content retrieval failed", "query", "categories", "error", err)
		cats = nil
	}
	if cats == nil {
		cats = []models.Category{}
	}
	c.cacheHeader(w, err)
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// Authors returns every author.
func (c *Content) Authors(w http.ResponseWriter, r *http.Request) {
	authors, err := c.source.Authors(r.Context())
	if err != nil {
		slog.Error("content retrieval failed", "query", "authors", "error", err)
		authors = nil
	}
	if authors == nil {
		authors = []models.Author{}
	}
	c.cacheHeader(w, err)
	writeJSON(w, http.StatusOK, map[string]any{"authors": authors})
}

// Tags returns every tag.
func (c *Content) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := c.source.Tags(r.Context())
	if err != nil {
		slog.Error("content retrieval failed", "query", "tags", "error", err)
		tags = nil
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	c.cacheHeader(w, err)
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// CategoryPosts returns published posts in a category.
func (c *Content) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	c.postsBy(w, r, "posts_by_category", c.source.PostsByCategory)
}

// AuthorPosts returns published posts by an author.
func (c *Content) AuthorPosts(w http.ResponseWriter, r *http.Request) {
	c.postsBy(w, r, "posts_by_author", c.source.PostsByAuthor)
}

// TagPosts returns published posts with a tag.
func (c *Content) TagPosts(w http.ResponseWriter, r *http.Request) {
	c.postsBy(w, r, "posts_by_tag", c.source.PostsByTag)
}

type postsFunc func(ctx context.Context, slug string, page cms.Page) ([]models.Post, error)

func (c *Content) postsBy(w http.ResponseWriter, r *http.Request, kind string, fn postsFunc) {
	page := pageFromQuery(r)
	s := chi.URLParam(r, "slug")
	if !slug.Valid(s) {
		c.writePosts(w, page, nil, nil, kind)
		return
	}
	posts, err := fn(r.Context(), s, page)
	c.writePosts(w, page, posts, err, kind)
}

// writePosts writes a post list. A retrieval failure is logged and served
// as an empty list that caches must not keep.
func (c *Content) writePosts(w http.ResponseWriter, page cms.Page, posts []models.Post, err error, kind string) {
	if err != nil {
		slog.Error("content retrieval failed", "query", kind, "error", err)
		posts = nil
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.cacheHeader(w, err)
	writeJSON(w, http.StatusOK, postListResponse{Posts: posts, Offset: page.Offset, Limit: page.Limit})
}

func (c *Content) cacheHeader(w http.ResponseWriter, err error) {
	if err != nil {
		w.Header().Set("Cache-Control", noStore)
		return
	}
	w.Header().Set("Cache-Control", publicCache)
}

func (c *Content) notFound(w http.ResponseWriter, kind string) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		kind:      nil,
		"message": "No content found.",
	})
}
