// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"regexp"
	"time"
)

// DocType names a document type in the headless content store.
type DocType string

const (
	DocTypePost     DocType = "post"
	DocTypeAuthor   DocType = "author"
	DocTypeCategory DocType = "category"
	DocTypeTag      DocType = "tag"
)

// Valid reports whether t is one of the document types this service reads.
func (t DocType) Valid() bool {
	switch t {
	case DocTypePost, DocTypeAuthor, DocTypeCategory, DocTypeTag:
		return true
	}
	return false
}

// Slug mirrors the content store's slug object ({"current": "..."}).
type Slug struct {
	Current string `json:"current" yaml:"current"`
}

// Reference is a pointer to another document in the content store.
type Reference struct {
	Ref  string `json:"_ref" yaml:"ref"`
	Type string `json:"_type,omitempty" yaml:"type,omitempty"`
}

// ImageCrop holds crop fractions (0..1) measured from each edge.
type ImageCrop struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// IsZero reports whether the crop leaves the image untouched.
func (c *ImageCrop) IsZero() bool {
	return c == nil || (c.Top == 0 && c.Bottom == 0 && c.Left == 0 && c.Right == 0)
}

// ImageHotspot is the focal area chosen by the editor.
type ImageHotspot struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// ImageRef is an abstract image: an asset reference plus optional crop and
// hotspot. It is turned into a URL only at presentation time.
type ImageRef struct {
	Type    string        `json:"_type,omitempty" yaml:"-"`
	Asset   *Reference    `json:"asset,omitempty" yaml:"asset,omitempty"`
	Crop    *ImageCrop    `json:"crop,omitempty" yaml:"crop,omitempty"`
	Hotspot *ImageHotspot `json:"hotspot,omitempty" yaml:"hotspot,omitempty"`
	Alt     string        `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// Span is a run of text inside a rich-text block.
type Span struct {
	Key   string   `json:"_key,omitempty" yaml:"-"`
	Type  string   `json:"_type" yaml:"type"`
	Text  string   `json:"text" yaml:"text"`
	Marks []string `json:"marks,omitempty" yaml:"marks,omitempty"`
}

// Block type names used in post bodies.
const (
	BlockTypeText  = "block"
	BlockTypeImage = "image"
	BlockTypeCode  = "code"
	SpanTypeText   = "span"
)

// Block is one element of a post body. Text blocks carry Children, image
// blocks carry Asset/Crop/Hotspot, code blocks carry Language/Filename/Code.
type Block struct {
	Key      string `json:"_key,omitempty" yaml:"-"`
	Type     string `json:"_type" yaml:"type"`
	Style    string `json:"style,omitempty" yaml:"style,omitempty"`
	ListItem string `json:"listItem,omitempty" yaml:"listItem,omitempty"`
	Level    int    `json:"level,omitempty" yaml:"level,omitempty"`
	Children []Span `json:"children,omitempty" yaml:"children,omitempty"`

	Asset   *Reference    `json:"asset,omitempty" yaml:"asset,omitempty"`
	Crop    *ImageCrop    `json:"crop,omitempty" yaml:"crop,omitempty"`
	Hotspot *ImageHotspot `json:"hotspot,omitempty" yaml:"hotspot,omitempty"`
	Alt     string        `json:"alt,omitempty" yaml:"alt,omitempty"`

	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`

	// Derived.
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// Image returns the block as an ImageRef, or nil for non-image blocks.
func (b *Block) Image() *ImageRef {
	if b.Type != BlockTypeImage || b.Asset == nil {
		return nil
	}
	return &ImageRef{Asset: b.Asset, Crop: b.Crop, Hotspot: b.Hotspot, Alt: b.Alt}
}

// SEO is the optional search metadata block attached to a post.
type SEO struct {
	MetaTitle       string    `json:"metaTitle,omitempty" yaml:"metaTitle,omitempty"`
	MetaDescription string    `json:"metaDescription,omitempty" yaml:"metaDescription,omitempty"`
	Keywords        []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	OGImage         *ImageRef `json:"ogImage,omitempty" yaml:"ogImage,omitempty"`
	NoIndex         bool      `json:"noIndex,omitempty" yaml:"noIndex,omitempty"`
}

// Author is a post author. When only Ref is set the author has not been
// resolved yet.
type Author struct {
	Ref    string            `json:"_ref,omitempty" yaml:"-"`
	ID     string            `json:"_id,omitempty" yaml:"id,omitempty"`
	Name   string            `json:"name,omitempty" yaml:"name"`
	Slug   Slug              `json:"slug" yaml:"slug"`
	Image  *ImageRef         `json:"image,omitempty" yaml:"image,omitempty"`
	Role   string            `json:"role,omitempty" yaml:"role,omitempty"`
	Bio    string            `json:"bio,omitempty" yaml:"bio,omitempty"`
	Social map[string]string `json:"social,omitempty" yaml:"social,omitempty"`

	// Derived.
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Unresolved reports whether the author is still a bare reference.
func (a *Author) Unresolved() bool {
	return a != nil && a.Ref != "" && a.Name == ""
}

// Dangling reports whether the author carries neither a reference nor an
// identity. The content store projects a deleted referenced document as
// null, which decodes to this empty value.
func (a *Author) Dangling() bool {
	return a != nil && a.Ref == "" && a.ID == "" && a.Slug.Current == ""
}

// hexColor is the accepted format for category and tag colors.
var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidColor reports whether s is a six-digit hex color such as "#FF0000".
func ValidColor(s string) bool {
	return hexColor.MatchString(s)
}

// Category groups posts by topic.
type Category struct {
	Ref         string `json:"_ref,omitempty" yaml:"-"`
	ID          string `json:"_id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title"`
	Slug        Slug   `json:"slug" yaml:"slug"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`

	// Derived.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Unresolved reports whether the category is still a bare reference.
func (c *Category) Unresolved() bool {
	return c.Ref != "" && c.Title == ""
}

// Dangling reports whether the category decoded from a null element.
func (c *Category) Dangling() bool {
	return c.Ref == "" && c.ID == "" && c.Slug.Current == ""
}

// Tag is a free-form label. It shares its shape with Category.
type Tag struct {
	Ref         string `json:"_ref,omitempty" yaml:"-"`
	ID          string `json:"_id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title"`
	Slug        Slug   `json:"slug" yaml:"slug"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`

	// Derived.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Unresolved reports whether the tag is still a bare reference.
func (t *Tag) Unresolved() bool {
	return t.Ref != "" && t.Title == ""
}

// Dangling reports whether the tag decoded from a null element.
func (t *Tag) Dangling() bool {
	return t.Ref == "" && t.ID == "" && t.Slug.Current == ""
}

// Post is a content document of type "post". Fields below "Derived" are
// filled by the normalizer and are never read from the content store.
type Post struct {
	ID          string     `json:"_id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Slug        Slug       `json:"slug" yaml:"slug"`
	Excerpt     string     `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
	MainImage   *ImageRef  `json:"mainImage,omitempty" yaml:"mainImage,omitempty"`
	Content     []Block    `json:"content,omitempty" yaml:"content,omitempty"`
	Author      *Author    `json:"author,omitempty" yaml:"author,omitempty"`
	Categories  []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
	Tags        []Tag      `json:"tags,omitempty" yaml:"tags,omitempty"`
	SEO         *SEO       `json:"seo,omitempty" yaml:"seo,omitempty"`

	// Derived.
	ImageURL       string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	ImageSrcset    string `json:"imageSrcset,omitempty" yaml:"imageSrcset,omitempty"`
	ReadingMinutes int    `json:"readingMinutes,omitempty" yaml:"readingMinutes,omitempty"`
	URL            string `json:"url,omitempty" yaml:"url,omitempty"`
}

// IsPublished reports whether the post has a publication time that is not
// in the future relative to now. Drafts and scheduled posts are unpublished.
func (p *Post) IsPublished(now time.Time) bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(now)
}
