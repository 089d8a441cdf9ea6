// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content turns raw content-store documents into presentation-ready
// values: references inlined, excerpts derived, image URLs and site paths
// filled in.
package content

import (
	"context"
	"log/slog"

	"endflow/internal/imaging"
	"endflow/internal/models"
)

// Image dimensions used by the site.
const (
	CardWidth    = 600
	CardHeight   = 400
	AvatarSize   = 40
	BodyImgWidth = 1200
)

// Normalizer derives the presentation fields of content documents.
type Normalizer struct {
	images  *imaging.Builder
	fetcher Fetcher
}

// NewNormalizer creates a Normalizer. A nil fetcher disables reference
// resolution, leaving bare references to be dropped.
func NewNormalizer(images *imaging.Builder, fetcher Fetcher) *Normalizer {
	return &Normalizer{images: images, fetcher: fetcher}
}

// Post resolves references and fills every derived field of p.
func (n *Normalizer) Post(ctx context.Context, p *models.Post) error {
	if err := n.ResolveReferences(ctx, p); err != nil {
		return err
	}
	n.Fields(p)
	return nil
}

// Fields fills derived fields without any lookups. Unresolved references
// left on the post are removed, as are the empty values a deleted
// referenced document decodes to, so consumers only ever see full objects.
func (n *Normalizer) Fields(p *models.Post) {
	p.Excerpt = DeriveExcerpt(p.Excerpt, p.Content, ExcerptLength)
	p.ReadingMinutes = ReadingTime(p.Content)
	p.URL = PostPath(p.Slug.Current)

	if p.MainImage != nil {
		p.ImageURL = n.ImageURL(p.MainImage, CardWidth, CardHeight)
		p.ImageSrcset = n.images.Srcset(p.MainImage, imaging.DefaultVariants)
	}
	for i := range p.Content {
		if img := p.Content[i].Image(); img != nil {
			p.Content[i].ImageURL = n.ImageURL(img, BodyImgWidth, 0)
		}
	}

	if p.Author.Unresolved() || p.Author.Dangling() {
		slog.Debug("dangling author dropped", "post", p.Slug.Current)
		p.Author = nil
	}
	if p.Author != nil {
		n.Author(p.Author)
	}

	cats := p.Categories[:0]
	for _, c := range p.Categories {
		if c.Unresolved() || c.Dangling() {
			slog.Debug("dangling category dropped", "post", p.Slug.Current)
			continue
		}
		n.Category(&c)
		cats = append(cats, c)
	}
	p.Categories = cats

	tags := p.Tags[:0]
	for _, t := range p.Tags {
		if t.Unresolved() || t.Dangling() {
			slog.Debug("dangling tag dropped", "post", p.Slug.Current)
			continue
		}
		n.Tag(&t)
		tags = append(tags, t)
	}
	p.Tags = tags
}

// Author fills the avatar URL and profile path.
func (n *Normalizer) Author(a *models.Author) {
	a.Ref = ""
	a.URL = AuthorPath(a.Slug.Current)
	if a.Image != nil {
		a.ImageURL = n.ImageURL(a.Image, AvatarSize, AvatarSize)
	}
}

// Category fills the listing path and drops a malformed color.
func (n *Normalizer) Category(c *models.Category) {
	c.Ref = ""
	c.URL = CategoryPath(c.Slug.Current)
	if c.Color != "" && !models.ValidColor(c.Color) {
		slog.Debug("invalid category color dropped", "category", c.Slug.Current, "color", c.Color)
		c.Color = ""
	}
}

// Tag fills the listing path and drops a malformed color.
func (n *Normalizer) Tag(t *models.Tag) {
	t.Ref = ""
	t.URL = TagPath(t.Slug.Current)
	if t.Color != "" && !models.ValidColor(t.Color) {
		slog.Debug("invalid tag color dropped", "tag", t.Slug.Current, "color", t.Color)
		t.Color = ""
	}
}

// ImageURL builds the URL for ref, returning "" for malformed references.
func (n *Normalizer) ImageURL(ref *models.ImageRef, width, height int) string {
	u, err := n.images.URL(ref, width, height)
	if err != nil {
		slog.Debug("image url skipped", "error", err)
		return ""
	}
	return u
}

// Site paths for content documents.
func PostPath(slug string) string     { return "/blog/" + slug }
func AuthorPath(slug string) string   { return "/blog/author/" + slug }
func CategoryPath(slug string) string { return "/blog/category/" + slug }
func TagPath(slug string) string      { return "/blog/tag/" + slug }
