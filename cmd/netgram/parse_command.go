package main

import (
	"fmt"
	"strings"

	"github.com/netgram/netgram/internal/media"
	"github.com/spf13/cobra"
)

func newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "parse <filename>",
		Short:       "Show the metadata NetGram would extract from a filename",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := media.Parse(strings.Join(args, " "))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:       %s\n", parsed.Title)
			fmt.Fprintf(out, "Year:        %s\n", formatYear(parsed.Year))
			fmt.Fprintf(out, "Quality:     %s\n", parsed.Quality)
			fmt.Fprintf(out, "Language:    %s\n", parsed.Language)
			fmt.Fprintf(out, "Fingerprint: %s\n", parsed.Fingerprint())
			return nil
		},
	}
}
