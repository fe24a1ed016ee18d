package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var (
	siteKey  string
	showFull bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List the indexed pages of a site",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, closeStore, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := cmd.Context()
		sess, err := registry.Lookup(ctx, siteKey)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showFull {
			docs, err := registry.Documents(ctx, sess)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.Join(docs, "\n\n"))
			return nil
		}

		pages, err := registry.Pages(ctx, sess)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Session %s for %s, crawled %s from %s\n",
			sess.ID, sess.Domain, sess.CreatedAt.Format("2006-01-02 15:04:05"), sess.StartURL)
		for i, p := range pages {
			fmt.Fprintf(out, "%3d. %s (%d chars)\n", i+1, p.URL, utf8.RuneCountInString(p.Text))
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&siteKey, "site", "", "Domain or any URL of an ingested site (required)")
	showCmd.Flags().BoolVar(&showFull, "full", false, "Print every page as a document")
	showCmd.MarkFlagRequired("site")
}
