// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cms

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"endflow/internal/models"
)

var (
	// ErrEmptySlug is returned when a slug lookup is attempted without a slug.
	ErrEmptySlug = errors.New("cms: slug must not be empty")
	// ErrUnknownType is returned for document types this service does not read.
	ErrUnknownType = errors.New("cms: unknown document type")
	// ErrUnknownField is returned for reference fields or orderings that are
	// not part of the document shape.
	ErrUnknownField = errors.New("cms: unknown field")
)

// Query is a GROQ query text plus the parameters it references ($name).
type Query struct {
	Text   string
	Params map[string]any
}

// Ordering sorts a list query by a single field.
type Ordering struct {
	Field string
	Desc  bool
}

func (o Ordering) String() string {
	if o.Desc {
		return o.Field + " desc"
	}
	return o.Field + " asc"
}

// Page is a window over a list query.
type Page struct {
	Offset int
	Limit  int
}

const (
	// DefaultLimit is applied when a page has no limit.
	DefaultLimit = 50
	// MaxLimit caps how many documents a single list query may return.
	MaxLimit = 100
	// MaxOffset caps how deep a list query may page.
	MaxOffset = 10000
)

func (p Page) normalized() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset > MaxOffset {
		p.Offset = MaxOffset
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Projections select and dereference the fields each document type needs
// for display. Post projections inline author, categories and tags so
// callers never need a second round-trip.
const (
	postListProjection = `{ _id, title, slug, excerpt, publishedAt, mainImage, content, ` +
		`"author": author->{ _id, name, slug, image, role }, ` +
		`"categories": categories[]->{ _id, title, slug, color, icon }, ` +
		`"tags": tags[]->{ _id, title, slug } }`

	postDetailProjection = `{ _id, title, slug, excerpt, publishedAt, mainImage, content, ` +
		`"author": author->{ _id, name, slug, image, role, bio, social }, ` +
		`"categories": categories[]->{ _id, title, slug, description, color, icon }, ` +
		`"tags": tags[]->{ _id, title, slug }, seo }`

	authorProjection   = `{ _id, name, slug, image, role, bio, social }`
	categoryProjection = `{ _id, title, slug, description, color, icon }`
	tagProjection      = `{ _id, title, slug, description, color, icon }`

	// publishedFilter hides drafts and scheduled posts.
	publishedFilter = `defined(publishedAt) && publishedAt <= now()`
)

// refFields lists, per document type, the reference fields that can be
// filtered on and whether they hold an array of references.
var refFields = map[models.DocType]map[string]bool{
	models.DocTypePost: {
		"author":     false,
		"categories": true,
		"tags":       true,
	},
}

// fieldName matches plain GROQ attribute paths such as "publishedAt" or "slug.current".
var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

func projection(t models.DocType, detail bool) string {
	switch t {
	case models.DocTypePost:
		if detail {
			return postDetailProjection
		}
		return postListProjection
	case models.DocTypeAuthor:
		return authorProjection
	case models.DocTypeCategory:
		return categoryProjection
	default:
		return tagProjection
	}
}

// DefaultOrdering returns the natural list order for a document type:
// newest first for posts, alphabetical otherwise.
func DefaultOrdering(t models.DocType) Ordering {
	switch t {
	case models.DocTypePost:
		return Ordering{Field: "publishedAt", Desc: true}
	case models.DocTypeAuthor:
		return Ordering{Field: "name"}
	default:
		return Ordering{Field: "title"}
	}
}

// filter joins the type constraint, extra clauses and, for posts in public
// contexts, the published constraint.
func filter(t models.DocType, public bool, clauses ...string) string {
	parts := append([]string{`_type == $type`}, clauses...)
	if public && t == models.DocTypePost {
		parts = append(parts, publishedFilter)
	}
	return strings.Join(parts, " && ")
}

func checkType(t models.DocType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return nil
}

// BySlug builds a query for the single document of type t with the given
// slug. In public contexts unpublished posts never match.
func BySlug(t models.DocType, slug string, public bool) (Query, error) {
	if err := checkType(t); err != nil {
		return Query{}, err
	}
	if strings.TrimSpace(slug) == "" {
		return Query{}, ErrEmptySlug
	}

	text := fmt.Sprintf("*[%s][0] %s",
		filter(t, public, `slug.current == $slug`),
		projection(t, true),
	)
	return Query{
		Text:   text,
		Params: map[string]any{"type": string(t), "slug": slug},
	}, nil
}

// PublishedList builds a list query over every published document of
// type t, sorted by order and windowed by page.
func PublishedList(t models.DocType, order Ordering, page Page) (Query, error) {
	if err := checkType(t); err != nil {
		return Query{}, err
	}
	if !fieldName.MatchString(order.Field) {
		return Query{}, fmt.Errorf("%w: ordering %q", ErrUnknownField, order.Field)
	}
	page = page.normalized()

	text := fmt.Sprintf("*[%s] | order(%s) [%d...%d] %s",
		filter(t, true, `defined(slug.current)`),
		order,
		page.Offset, page.Offset+page.Limit,
		projection(t, false),
	)
	return Query{
		Text:   text,
		Params: map[string]any{"type": string(t)},
	}, nil
}

// ByReference builds a list query over published documents of type t whose
// refField points at refID. Array fields match when any element does.
func ByReference(t models.DocType, refField, refID string, page Page) (Query, error) {
	if err := checkType(t); err != nil {
		return Query{}, err
	}
	isArray, ok := refFields[t][refField]
	if !ok {
		return Query{}, fmt.Errorf("%w: %s has no reference field %q", ErrUnknownField, t, refField)
	}
	if refID == "" {
		return Query{}, fmt.Errorf("%w: empty reference id", ErrUnknownField)
	}
	page = page.normalized()

	clause := refField + `._ref == $ref`
	if isArray {
		clause = `$ref in ` + refField + `[]._ref`
	}

	text := fmt.Sprintf("*[%s] | order(%s) [%d...%d] %s",
		filter(t, true, clause),
		DefaultOrdering(t),
		page.Offset, page.Offset+page.Limit,
		projection(t, false),
	)
	return Query{
		Text:   text,
		Params: map[string]any{"type": string(t), "ref": refID},
	}, nil
}

// ByID builds a query for a single document of type t by its id. It is used
// to resolve bare references and does not apply the published filter.
func ByID(t models.DocType, id string) (Query, error) {
	if err := checkType(t); err != nil {
		return Query{}, err
	}
	text := fmt.Sprintf("*[%s][0] %s",
		filter(t, false, `_id == $id`),
		projection(t, false),
	)
	return Query{
		Text:   text,
		Params: map[string]any{"type": string(t), "id": id},
	}, nil
}

// PublishedSlugs builds a query listing the slug and publication time of
// every published post, newest first.
func PublishedSlugs() Query {
	return Query{
		Text: fmt.Sprintf(`*[%s] | order(publishedAt desc) { "slug": slug.current, publishedAt }`,
			filter(models.DocTypePost, true, `defined(slug.current)`)),
		Params: map[string]any{"type": string(models.DocTypePost)},
	}
}
