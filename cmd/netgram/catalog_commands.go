package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/netgram/netgram/internal/catalog"
	"github.com/spf13/cobra"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the movie catalog",
	}

	catalogCmd.AddCommand(newCatalogRecentCommand(ctx))
	catalogCmd.AddCommand(newCatalogSearchCommand(ctx))
	catalogCmd.AddCommand(newCatalogErrorsCommand(ctx))
	catalogCmd.AddCommand(newCatalogStatsCommand(ctx))

	return catalogCmd
}

func newCatalogRecentCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently added movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store catalogReader) error {
				records, err := store.ListMovies(cmd.Context(), catalog.ListOptions{Order: catalog.OrderNewest, Limit: limit})
				if err != nil {
					return err
				}

				printRecords(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of movies to list")

	return cmd
}

func newCatalogSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search the catalog by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store catalogReader) error {
				records, err := store.SearchMovies(cmd.Context(), strings.Join(args, " "), 0, limit)
				if err != nil {
					return err
				}

				printRecords(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")

	return cmd
}

func newCatalogErrorsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show the most recent ingestion failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store catalogReader) error {
				failures, err := store.RecentIngestErrors(cmd.Context(), limit)
				if err != nil {
					return err
				}

				printIngestErrors(cmd.OutOrStdout(), failures)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of failures to show")

	return cmd
}

func newCatalogStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store catalogReader) error {
				count, err := store.CountMovies(cmd.Context())
				if err != nil {
					return err
				}
				genres, err := store.ListGenres(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Movies: %s\n", humanize.Comma(int64(count)))
				fmt.Fprintf(out, "Genres: %d\n", len(genres))
				if len(genres) > 0 {
					fmt.Fprintf(out, "  %s\n", strings.Join(genres, ", "))
				}
				return nil
			})
		},
	}
}

func printRecords(out io.Writer, records []*catalog.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No movies found")
		return
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.FormatInt(record.MessageID, 10),
			record.Title,
			formatYear(record.Year),
			record.Quality,
			record.Language,
			formatRating(record.Rating),
			humanize.IBytes(uint64(max(record.FileSize, 0))),
			humanize.Time(record.CreatedAt),
		})
	}

	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Title", "Year", "Quality", "Language", "Rating", "Size", "Added"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}

func printIngestErrors(out io.Writer, failures []*catalog.IngestError) {
	if len(failures) == 0 {
		fmt.Fprintln(out, "No ingestion failures recorded")
		return
	}

	rows := make([][]string, 0, len(failures))
	for _, failure := range failures {
		rows = append(rows, []string{humanize.Time(failure.CreatedAt), failure.Message})
	}

	fmt.Fprintln(out, renderTable([]string{"When", "Error"}, rows, nil))
}

func formatYear(year int) string {
	if year == 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

func formatRating(rating *float64) string {
	if rating == nil {
		return "-"
	}
	return strconv.FormatFloat(*rating, 'f', 1, 64)
}
