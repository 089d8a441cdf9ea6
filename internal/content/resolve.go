// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"endflow/internal/cms"
	"endflow/internal/models"
)

// maxParallelLookups bounds concurrent reference lookups per document.
const maxParallelLookups = 8

// Fetcher runs a content query and decodes its result into out.
// *cms.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, q cms.Query, out any) error
}

// ResolveReferences replaces bare author, category and tag references with
// the referenced documents. Lookups run in parallel. A reference that cannot
// be resolved is dropped from the post and logged; it never fails the post.
// The only error returned is cancellation of ctx.
func (n *Normalizer) ResolveReferences(ctx context.Context, p *models.Post) error {
	if n.fetcher == nil || p == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)

	var author *models.Author
	if p.Author.Unresolved() {
		ref := p.Author.Ref
		g.Go(func() error {
			var a models.Author
			if n.lookup(gctx, models.DocTypeAuthor, ref, &a) {
				author = &a
			}
			return nil
		})
	}

	categories := make([]*models.Category, len(p.Categories))
	for i := range p.Categories {
		if !p.Categories[i].Unresolved() {
			c := p.Categories[i]
			categories[i] = &c
			continue
		}
		ref := p.Categories[i].Ref
		g.Go(func() error {
			var c models.Category
			if n.lookup(gctx, models.DocTypeCategory, ref, &c) {
				categories[i] = &c
			}
			return nil
		})
	}

	tags := make([]*models.Tag, len(p.Tags))
	for i := range p.Tags {
		if !p.Tags[i].Unresolved() {
			t := p.Tags[i]
			tags[i] = &t
			continue
		}
		ref := p.Tags[i].Ref
		g.Go(func() error {
			var t models.Tag
			if n.lookup(gctx, models.DocTypeTag, ref, &t) {
				tags[i] = &t
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.Author.Unresolved() {
		p.Author = author
	}
	p.Categories = compact(categories)
	p.Tags = compact(tags)
	return nil
}

// lookup fetches one referenced document by id. It reports false when the
// reference is dangling or the store could not be reached.
func (n *Normalizer) lookup(ctx context.Context, t models.DocType, id string, out any) bool {
	q, err := cms.ByID(t, id)
	if err != nil {
		slog.Warn("invalid reference", "type", t, "ref", id, "error", err)
		return false
	}
	err = n.fetcher.Fetch(ctx, q, out)
	switch {
	case err == nil:
		return true
	case errors.Is(err, cms.ErrNotFound):
		slog.Debug("dangling reference dropped", "type", t, "ref", id)
	case ctx.Err() != nil:
	default:
		slog.Warn("reference lookup failed", "type", t, "ref", id, "error", err)
	}
	return false
}

// compact dereferences the non-nil entries in order.
func compact[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
