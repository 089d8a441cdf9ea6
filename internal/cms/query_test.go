package cms

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"endflow/internal/models"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// TestQueryText pins the generated GROQ for every query shape. Regenerate
// with: go test ./internal/cms -update
func TestQueryText(t *testing.T) {
	g := newGolden(t)

	bySlug, err := BySlug(models.DocTypePost, "hello-world", true)
	if err != nil {
		t.Fatalf("BySlug: %v", err)
	}
	g.Assert(t, "post_by_slug_public", []byte(bySlug.Text))

	preview, err := BySlug(models.DocTypePost, "hello-world", false)
	if err != nil {
		t.Fatalf("BySlug preview: %v", err)
	}
	g.Assert(t, "post_by_slug_preview", []byte(preview.Text))

	list, err := PublishedList(models.DocTypePost, DefaultOrdering(models.DocTypePost), Page{})
	if err != nil {
		t.Fatalf("PublishedList: %v", err)
	}
	g.Assert(t, "post_published_list", []byte(list.Text))

	byCategory, err := ByReference(models.DocTypePost, "categories", "cat-1", Page{Offset: 10, Limit: 5})
	if err != nil {
		t.Fatalf("ByReference: %v", err)
	}
	g.Assert(t, "post_by_category", []byte(byCategory.Text))

	byAuthor, err := ByReference(models.DocTypePost, "author", "author-1", Page{})
	if err != nil {
		t.Fatalf("ByReference: %v", err)
	}
	g.Assert(t, "post_by_author", []byte(byAuthor.Text))

	authors, err := PublishedList(models.DocTypeAuthor, DefaultOrdering(models.DocTypeAuthor), Page{})
	if err != nil {
		t.Fatalf("PublishedList authors: %v", err)
	}
	g.Assert(t, "author_list", []byte(authors.Text))

	byID, err := ByID(models.DocTypeCategory, "cat-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	g.Assert(t, "category_by_id", []byte(byID.Text))

	g.Assert(t, "published_slugs", []byte(PublishedSlugs().Text))
}

func TestBySlugParams(t *testing.T) {
	q, err := BySlug(models.DocTypeCategory, "data", true)
	if err != nil {
		t.Fatalf("BySlug: %v", err)
	}
	if q.Params["type"] != "category" || q.Params["slug"] != "data" {
		t.Errorf("unexpected params: %v", q.Params)
	}
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "empty slug",
			run:  func() error { _, err := BySlug(models.DocTypePost, "", true); return err },
			want: ErrEmptySlug,
		},
		{
			name: "blank slug",
			run:  func() error { _, err := BySlug(models.DocTypePost, "   ", true); return err },
			want: ErrEmptySlug,
		},
		{
			name: "unknown type",
			run:  func() error { _, err := BySlug("page", "x", true); return err },
			want: ErrUnknownType,
		},
		{
			name: "unknown reference field",
			run:  func() error { _, err := ByReference(models.DocTypePost, "editor", "x", Page{}); return err },
			want: ErrUnknownField,
		},
		{
			name: "reference field on type without references",
			run:  func() error { _, err := ByReference(models.DocTypeAuthor, "author", "x", Page{}); return err },
			want: ErrUnknownField,
		},
		{
			name: "empty reference id",
			run:  func() error { _, err := ByReference(models.DocTypePost, "author", "", Page{}); return err },
			want: ErrUnknownField,
		},
		{
			name: "injected ordering",
			run: func() error {
				_, err := PublishedList(models.DocTypePost, Ordering{Field: "publishedAt) | order(title"}, Page{})
				return err
			},
			want: ErrUnknownField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublishedListDeepOffset(t *testing.T) {
	q, err := PublishedList(models.DocTypePost, DefaultOrdering(models.DocTypePost), Page{Offset: math.MaxInt, Limit: 50})
	if err != nil {
		t.Fatalf("PublishedList: %v", err)
	}
	if !strings.Contains(q.Text, "[10000...10050]") {
		t.Errorf("slice: got %q, want [10000...10050]", q.Text)
	}
}

func TestPageNormalized(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Offset: 0, Limit: DefaultLimit}},
		{Page{Offset: -5, Limit: 10}, Page{Offset: 0, Limit: 10}},
		{Page{Offset: 20, Limit: 1000}, Page{Offset: 20, Limit: MaxLimit}},
		{Page{Offset: math.MaxInt, Limit: 10}, Page{Offset: MaxOffset, Limit: 10}},
	}
	for _, tt := range tests {
		if got := tt.in.normalized(); got != tt.want {
			t.Errorf("%+v.normalized() = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
