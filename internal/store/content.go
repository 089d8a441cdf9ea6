// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"endflow/internal/cache"
	"endflow/internal/cms"
	"endflow/internal/content"
	"endflow/internal/imaging"
	"endflow/internal/models"
)

// ResponseCache stores raw query results by key. *cache.ContentCache
// satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
}

// SlugEntry is a published post slug with its publication time, used to
// build sitemaps.
type SlugEntry struct {
	Slug        string    `json:"slug" yaml:"slug"`
	PublishedAt time.Time `json:"publishedAt" yaml:"publishedAt"`
}

// ContentStore reads published content from the headless content store.
// Every query is built by the cms package, served from the response cache
// when possible, and normalized before it is returned.
type ContentStore struct {
	fetcher content.Fetcher
	cache   ResponseCache
	norm    *content.Normalizer
	now     func() time.Time
}

// NewContentStore creates a ContentStore. rc may be nil to disable
// response caching.
func NewContentStore(fetcher content.Fetcher, rc ResponseCache, images *imaging.Builder) *ContentStore {
	s := &ContentStore{
		fetcher: fetcher,
		cache:   rc,
		now:     time.Now,
	}
	// Reference lookups made while normalizing go through the cache too.
	s.norm = content.NewNormalizer(images, s)
	return s
}

// Fetch runs q, consulting the response cache first. Only successful
// results are cached; not-found and retrieval failures always reach the
// content store on the next call.
func (s *ContentStore) Fetch(ctx context.Context, q cms.Query, out any) error {
	key := cache.QueryKey(q.Text, q.Params)
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
			slog.Warn("discarding undecodable cached result", "key", key)
		}
	}

	var raw json.RawMessage
	if err := s.fetcher.Fetch(ctx, q, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode result: %w", cms.ErrRetrieval, err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, raw)
	}
	return nil
}

// PostBySlug returns the published post with the given slug, fully
// normalized. Returns nil if no published post matches.
func (s *ContentStore) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	q, err := cms.BySlug(models.DocTypePost, slug, true)
	if err != nil {
		return nil, err
	}

	var p models.Post
	found, err := s.fetchOne(ctx, q, &p)
	if err != nil || !found {
		return nil, err
	}
	if !p.IsPublished(s.now()) {
		slog.Debug("content store returned unpublished post", "slug", slug)
		return nil, nil
	}
	if err := s.norm.Post(ctx, &p); err != nil {
		return nil, fmt.Errorf("normalize post %s: %w", slug, err)
	}
	return &p, nil
}

// ListPublishedPosts returns published posts, newest first.
func (s *ContentStore) ListPublishedPosts(ctx context.Context, page cms.Page) ([]models.Post, error) {
	q, err := cms.PublishedList(models.DocTypePost, cms.DefaultOrdering(models.DocTypePost), page)
	if err != nil {
		return nil, err
	}
	return s.posts(ctx, q)
}

// PostsByCategory returns published posts filed under the category with
// the given slug. An unknown category yields no posts.
func (s *ContentStore) PostsByCategory(ctx context.Context, slug string, page cms.Page) ([]models.Post, error) {
	c, err := s.CategoryBySlug(ctx, slug)
	if err != nil || c == nil {
		return nil, err
	}
	return s.postsByReference(ctx, "categories", c.ID, page)
}

// PostsByAuthor returns published posts written by the author with the
// given slug. An unknown author yields no posts.
func (s *ContentStore) PostsByAuthor(ctx context.Context, slug string, page cms.Page) ([]models.Post, error) {
	a, err := s.AuthorBySlug(ctx, slug)
	if err != nil || a == nil {
		return nil, err
	}
	return s.postsByReference(ctx, "author", a.ID, page)
}

// PostsByTag returns published posts carrying the tag with the given slug.
// An unknown tag yields no posts.
func (s *ContentStore) PostsByTag(ctx context.Context, slug string, page cms.Page) ([]models.Post, error) {
	t, err := s.TagBySlug(ctx, slug)
	if err != nil || t == nil {
		return nil, err
	}
	return s.postsByReference(ctx, "tags", t.ID, page)
}

func (s *ContentStore) postsByReference(ctx context.Context, field, id string, page cms.Page) ([]models.Post, error) {
	q, err := cms.ByReference(models.DocTypePost, field, id, page)
	if err != nil {
		return nil, err
	}
	return s.posts(ctx, q)
}

// posts runs a post list query, drops anything not yet published and
// normalizes the rest.
func (s *ContentStore) posts(ctx context.Context, q cms.Query) ([]models.Post, error) {
	var list []models.Post
	if _, err := s.fetchOne(ctx, q, &list); err != nil {
		return nil, err
	}

	now := s.now()
	out := list[:0]
	for i := range list {
		if !list[i].IsPublished(now) {
			continue
		}
		if err := s.norm.Post(ctx, &list[i]); err != nil {
			return nil, fmt.Errorf("normalize post %s: %w", list[i].Slug.Current, err)
		}
		out = append(out, list[i])
	}
	return out, nil
}

// CategoryBySlug returns the category with the given slug, or nil.
func (s *ContentStore) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	q, err := cms.BySlug(models.DocTypeCategory, slug, true)
	if err != nil {
		return nil, err
	}
	var c models.Category
	found, err := s.fetchOne(ctx, q, &c)
	if err != nil || !found {
		return nil, err
	}
	s.norm.Category(&c)
	return &c, nil
}

// AuthorBySlug returns the author with the given slug, or nil.
func (s *ContentStore) AuthorBySlug(ctx context.Context, slug string) (*models.Author, error) {
	q, err := cms.BySlug(models.DocTypeAuthor, slug, true)
	if err != nil {
		return nil, err
	}
	var a models.Author
	found, err := s.fetchOne(ctx, q, &a)
	if err != nil || !found {
		return nil, err
	}
	s.norm.Author(&a)
	return &a, nil
}

// TagBySlug returns the tag with the given slug, or nil.
func (s *ContentStore) TagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	q, err := cms.BySlug(models.DocTypeTag, slug, true)
	if err != nil {
		return nil, err
	}
	var t models.Tag
	found, err := s.fetchOne(ctx, q, &t)
	if err != nil || !found {
		return nil, err
	}
	s.norm.Tag(&t)
	return &t, nil
}

// Categories returns every category, alphabetically.
func (s *ContentStore) Categories(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	if err := s.list(ctx, models.DocTypeCategory, &list); err != nil {
		return nil, err
	}
	for i := range list {
		s.norm.Category(&list[i])
	}
	return list, nil
}

// Authors returns every author, alphabetically.
func (s *ContentStore) Authors(ctx context.Context) ([]models.Author, error) {
	var list []models.Author
	if err := s.list(ctx, models.DocTypeAuthor, &list); err != nil {
		return nil, err
	}
	for i := range list {
		s.norm.Author(&list[i])
	}
	return list, nil
}

// Tags returns every tag, alphabetically.
func (s *ContentStore) Tags(ctx context.Context) ([]models.Tag, error) {
	var list []models.Tag
	if err := s.list(ctx, models.DocTypeTag, &list); err != nil {
		return nil, err
	}
	for i := range list {
		s.norm.Tag(&list[i])
	}
	return list, nil
}

func (s *ContentStore) list(ctx context.Context, t models.DocType, out any) error {
	q, err := cms.PublishedList(t, cms.DefaultOrdering(t), cms.Page{Limit: cms.MaxLimit})
	if err != nil {
		return err
	}
	_, err = s.fetchOne(ctx, q, out)
	return err
}

// PublishedSlugs returns the slug of every published post, newest first.
func (s *ContentStore) PublishedSlugs(ctx context.Context) ([]SlugEntry, error) {
	var list []SlugEntry
	if _, err := s.fetchOne(ctx, cms.PublishedSlugs(), &list); err != nil {
		return nil, err
	}

	now := s.now()
	out := list[:0]
	for _, e := range list {
		if e.Slug == "" || e.PublishedAt.After(now) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// fetchOne runs q and reports whether anything was found. Not-found is not
// an error.
func (s *ContentStore) fetchOne(ctx context.Context, q cms.Query, out any) (bool, error) {
	err := s.Fetch(ctx, q, out)
	if errors.Is(err, cms.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetch content: %w", err)
	}
	return true, nil
}
