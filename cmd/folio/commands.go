// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/recommend"
)

// --- import ---

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		books   string
		ratings string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load Book-Crossing CSV dumps into the rating store",
		Long: `Load Book-Crossing CSV dumps into the rating store.

Paths default to ratings.books_csv and ratings.ratings_csv from the config.

Examples:
  folio import --books BX-Books.csv --ratings BX-Book-Ratings.csv
  folio import --ratings BX-Book-Ratings.csv --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			importOpts := opts.cfg.ImportOptions()
			if books != "" {
				importOpts.BooksPath = books
			}
			if ratings != "" {
				importOpts.RatingsPath = ratings
			}
			importOpts.Replace = replace

			return withApp(cmd.Context(), opts, func(a *app) error {
				if a.db == nil {
					return errors.New("no rating store configured")
				}
				stats, err := a.db.ImportBookCrossing(cmd.Context(), importOpts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d books and %d ratings in %s\n",
					stats.Books, stats.Ratings, stats.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&books, "books", "", "path to BX-Books.csv")
	cmd.Flags().StringVar(&ratings, "ratings", "", "path to BX-Book-Ratings.csv")
	cmd.Flags().BoolVar(&replace, "replace", false, "clear existing books and ratings first")
	return cmd
}

// --- train ---

func newTrainCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Build and publish a new generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				res, err := a.trainer.Train(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

// --- recommend ---

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var (
		query  recommend.Query
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "recommend [title]",
		Short: "Print the books closest to a title",
		Long: `Print the books closest to a title.

Examples:
  folio recommend "The Lovely Bones: A Novel"
  folio recommend --item 0316666343 -k 11 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				query.Title = args[0]
			}
			if query.Title == "" && query.ItemID == "" {
				return fmt.Errorf("a title or --item is required: %w", recommend.ErrInvalidQuery)
			}

			return withApp(cmd.Context(), opts, func(a *app) error {
				res, err := a.engine.Recommend(cmd.Context(), query)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), res)
				}
				return printResult(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVarP(&query.Title, "title", "t", "", "book title")
	cmd.Flags().StringVarP(&query.ItemID, "item", "i", "", "item id (ISBN); takes precedence over the title")
	cmd.Flags().IntVarP(&query.K, "k", "k", 0, "neighbors including the book itself (0 = configured default)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// --- titles ---

func newTitlesCmd(opts *rootOptions) *cobra.Command {
	var (
		prefix string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "titles",
		Short: "List or complete known titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				titles, err := a.engine.Titles(cmd.Context())
				if err != nil {
					return err
				}
				if prefix != "" {
					titles = completeTitles(a.engine.Current(), prefix, limit)
				} else if limit > 0 && len(titles) > limit {
					titles = titles[:limit]
				}
				for _, title := range titles {
					fmt.Fprintln(cmd.OutOrStdout(), title)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "complete titles starting with prefix, most rated first")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum titles to print (0 = all)")
	return cmd
}

// completeTitles ranks titles of gen starting with prefix by rating count.
func completeTitles(gen *recommend.Generation, prefix string, limit int) []string {
	if gen == nil {
		return nil
	}
	weights := make(map[string]int)
	for i := range gen.Join {
		weights[gen.Join[i].Title]++
	}
	matches := cache.NewTitleIndex(weights).Complete(prefix, limit)
	titles := make([]string, len(matches))
	for i, m := range matches {
		titles[i] = m.Title
	}
	return titles
}

// --- generations ---

func newGenerationsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generations",
		Short: "List stored generations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				manifests, err := a.engine.Generations(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), manifests)
				}
				current := ""
				if gen := a.engine.Current(); gen != nil {
					current = gen.ID()
				}
				return printManifests(cmd.OutOrStdout(), manifests, current)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// --- token ---

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed token for the admin API",
		Long: `Mint a signed token for the admin API.

The token is signed with security.jwt_secret and authorizes POST /api/v1/train
when its role is admin.

Example:
  curl -X POST -H "Authorization: Bearer $(folio token --subject ops)" \
    http://localhost:8080/api/v1/train`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cfg.Security.JWTSecret == "" {
				return errors.New("security.jwt_secret is not configured")
			}
			if role != auth.RoleAdmin && role != auth.RoleViewer {
				return fmt.Errorf("unknown role %q", role)
			}

			manager, err := auth.NewJWTManager(opts.cfg.Security.JWTSecret, 0)
			if err != nil {
				return err
			}
			token, err := manager.GenerateToken(subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "folio-cli", "token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "token role (admin or viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
