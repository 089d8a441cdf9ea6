package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"endflow/internal/cms"
	"endflow/internal/imaging"
	"endflow/internal/store"
)

// Output formats supported by the query command.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// queryKinds lists the kinds accepted by the query command and whether
// each needs a slug argument.
var queryKinds = map[string]bool{
	"post":       true,
	"posts":      false,
	"category":   true,
	"author":     true,
	"tag":        true,
	"categories": false,
	"authors":    false,
	"tags":       false,
	"slugs":      false,
}

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Format string
	Limit  int
	Offset int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <kind> [slug]",
		Short: "Query published content",
		Long: `Query published content straight from the content store, bypassing
the response cache, and print the normalized result.

Kinds: post, posts, category, author, tag, categories, authors, tags, slugs.
The post kind takes a post slug; category, author and tag list the posts
filed under the given slug.

Examples:
  endflow query posts --limit 5
  endflow query post hello-world --format yaml
  endflow query category engineering`,
		Args: cobra.RangeArgs(1, 2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != FormatJSON && opts.Format != FormatYAML {
				return fmt.Errorf("invalid format %q: must be 'json' or 'yaml'", opts.Format)
			}
			needsSlug, ok := queryKinds[args[0]]
			if !ok {
				return fmt.Errorf("unknown kind %q", args[0])
			}
			if needsSlug && len(args) != 2 {
				return fmt.Errorf("kind %q requires a slug", args[0])
			}
			if !needsSlug && len(args) != 1 {
				return fmt.Errorf("kind %q takes no slug", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatJSON, "output format (json|yaml)")
	cmd.Flags().IntVar(&opts.Limit, "limit", cms.DefaultLimit, "maximum number of posts")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of posts to skip")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, args []string) error {
	client, err := newCMSClient(opts.Config)
	if err != nil {
		return err
	}
	images := imaging.NewBuilder(opts.Config.SanityProjectID, opts.Config.SanityDataset, "")
	contentStore := store.NewContentStore(client, nil, images)

	var slug string
	if len(args) == 2 {
		slug = args[1]
	}
	page := cms.Page{Offset: opts.Offset, Limit: opts.Limit}

	result, err := queryContent(cmd.Context(), contentStore, args[0], slug, page)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), opts.Format, result)
}

func queryContent(ctx context.Context, s *store.ContentStore, kind, slug string, page cms.Page) (any, error) {
	switch kind {
	case "post":
		p, err := s.PostBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("post %q not found", slug)
		}
		return p, nil
	case "posts":
		return s.ListPublishedPosts(ctx, page)
	case "category":
		return s.PostsByCategory(ctx, slug, page)
	case "author":
		return s.PostsByAuthor(ctx, slug, page)
	case "tag":
		return s.PostsByTag(ctx, slug, page)
	case "categories":
		return s.Categories(ctx)
	case "authors":
		return s.Authors(ctx)
	case "tags":
		return s.Tags(ctx)
	case "slugs":
		return s.PublishedSlugs(ctx)
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

// writeResult prints v in the requested format.
func writeResult(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("invalid format %q", format)
}
