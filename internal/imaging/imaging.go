// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging derives image URLs from abstract content-store image
// references. URLs follow the image host's query-parameter convention
// (?w=<width>&h=<height>) and are resolved lazily by the host at fetch time,
// so building one never performs network I/O.
package imaging

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"endflow/internal/models"
)

// ErrInvalidAsset is returned for asset references that do not follow the
// "image-<id>-<width>x<height>-<format>" convention.
var ErrInvalidAsset = errors.New("imaging: invalid asset reference")

// DefaultBaseURL is the image host.
const DefaultBaseURL = "https://cdn.sanity.io"

// Variant describes a single responsive image size.
type Variant struct {
	Name    string // e.g., "thumb", "sm", "md", "lg"
	Width   int    // Target width in pixels
	Quality int    // Encoder quality 1-100
}

// DefaultVariants defines the standard breakpoints for responsive web images.
var DefaultVariants = []Variant{
	{Name: "thumb", Width: 320, Quality: 75},
	{Name: "sm", Width: 640, Quality: 80},
	{Name: "md", Width: 1024, Quality: 80},
	{Name: "lg", Width: 1920, Quality: 80},
}

// Asset is a parsed image asset reference.
type Asset struct {
	ID     string
	Width  int
	Height int
	Format string
}

// ParseAsset splits a reference such as "image-Tb9Ew8CX-2000x3000-jpg".
func ParseAsset(ref string) (Asset, error) {
	rest, ok := strings.CutPrefix(ref, "image-")
	if !ok {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, ref)
	}
	parts := strings.Split(rest, "-")
	if len(parts) < 3 {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, ref)
	}

	format := parts[len(parts)-1]
	dims := parts[len(parts)-2]
	id := strings.Join(parts[:len(parts)-2], "-")

	ws, hs, ok := strings.Cut(dims, "x")
	if !ok || id == "" || format == "" {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, ref)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return Asset{}, fmt.Errorf("%w: width in %q", ErrInvalidAsset, ref)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return Asset{}, fmt.Errorf("%w: height in %q", ErrInvalidAsset, ref)
	}

	return Asset{ID: id, Width: w, Height: h, Format: format}, nil
}

// Builder turns image references into URLs on the image host for one
// project and dataset.
type Builder struct {
	baseURL   string
	projectID string
	dataset   string
}

// NewBuilder creates a URL builder. An empty baseURL uses DefaultBaseURL.
func NewBuilder(projectID, dataset, baseURL string) *Builder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Builder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		dataset:   dataset,
	}
}

// URL returns the URL of ref scaled to width x height. A zero dimension is
// omitted so the host keeps the aspect ratio. The result depends only on the
// inputs.
func (b *Builder) URL(ref *models.ImageRef, width, height int) (string, error) {
	return b.url(ref, width, height, 0)
}

func (b *Builder) url(ref *models.ImageRef, width, height, quality int) (string, error) {
	if ref == nil || ref.Asset == nil {
		return "", fmt.Errorf("%w: missing asset", ErrInvalidAsset)
	}
	asset, err := ParseAsset(ref.Asset.Ref)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s/images/%s/%s/%s-%dx%d.%s",
		b.baseURL, b.projectID, b.dataset, asset.ID, asset.Width, asset.Height, asset.Format)

	// Parameter order is fixed so identical inputs produce identical URLs.
	var params []string
	if !ref.Crop.IsZero() {
		params = append(params, "rect="+cropRect(asset, ref.Crop))
	}
	if width > 0 {
		params = append(params, "w="+strconv.Itoa(width))
	}
	if height > 0 {
		params = append(params, "h="+strconv.Itoa(height))
	}
	if quality > 0 {
		params = append(params, "q="+strconv.Itoa(quality))
	}
	if len(params) > 0 {
		sb.WriteString("?")
		sb.WriteString(strings.Join(params, "&"))
	}
	return sb.String(), nil
}

// cropRect converts edge fractions into a left,top,width,height pixel rectangle.
func cropRect(a Asset, c *models.ImageCrop) string {
	left := int(math.Round(c.Left * float64(a.Width)))
	top := int(math.Round(c.Top * float64(a.Height)))
	width := int(math.Round(float64(a.Width)-c.Right*float64(a.Width))) - left
	height := int(math.Round(float64(a.Height)-c.Bottom*float64(a.Height))) - top
	return fmt.Sprintf("%d,%d,%d,%d", left, top, width, height)
}

// Srcset builds an HTML srcset string like "url?w=640&q=80 640w, ..." from
// the variants. Variants wider than the source are skipped to avoid
// upscaling; the thumb variant is left out since it is too small for content.
func (b *Builder) Srcset(ref *models.ImageRef, variants []Variant) string {
	if ref == nil || ref.Asset == nil {
		return ""
	}
	asset, err := ParseAsset(ref.Asset.Ref)
	if err != nil {
		return ""
	}

	var parts []string
	for _, v := range variants {
		if v.Name == "thumb" || v.Width > asset.Width {
			continue
		}
		u, err := b.url(ref, v.Width, 0, v.Quality)
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %dw", u, v.Width))
	}
	return strings.Join(parts, ", ")
}
