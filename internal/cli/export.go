package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BenjaminSRussell/sitecrawl/internal/export"
)

var (
	exportSite        string
	outputFile        string
	includeLastmod    bool
	includeChangefreq bool
	defaultPriority   float64
)

var exportCmd = &cobra.Command{
	Use:   "export-sitemap",
	Short: "Export an indexed site to a sitemap",
	Long:  `Export the recorded URLs of an ingested site to XML sitemap format`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, closeStore, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := cmd.Context()
		sess, err := registry.Lookup(ctx, exportSite)
		if err != nil {
			return err
		}
		pages, err := registry.Pages(ctx, sess)
		if err != nil {
			return err
		}

		config := export.SitemapConfig{
			OutputFile:        outputFile,
			IncludeLastmod:    includeLastmod,
			IncludeChangefreq: includeChangefreq,
			DefaultPriority:   defaultPriority,
		}

		count, err := export.ExportSitemap(pages, config)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Successfully exported %d URLs to %s\n", count, outputFile)
		return nil
	},
}

func init() {
	defaults := export.DefaultSitemapConfig("sitemap.xml")
	exportCmd.Flags().StringVar(&exportSite, "site", "", "Domain or any URL of an ingested site (required)")
	exportCmd.Flags().StringVar(&outputFile, "output", defaults.OutputFile, "Output file path")
	exportCmd.Flags().BoolVar(&includeLastmod, "include-lastmod", defaults.IncludeLastmod, "Include lastmod in sitemap")
	exportCmd.Flags().BoolVar(&includeChangefreq, "include-changefreq", defaults.IncludeChangefreq, "Include changefreq in sitemap")
	exportCmd.Flags().Float64Var(&defaultPriority, "default-priority", defaults.DefaultPriority, "Default priority value")
	exportCmd.MarkFlagRequired("site")
}
