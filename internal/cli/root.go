package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/BenjaminSRussell/sitecrawl/internal/config"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	dataDir    string

	cfg    *config.Config
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:           "sitecrawl",
	Short:         "Crawl one website and capture its visible text",
	Long:          `sitecrawl - renders every page of a single site, copies the visible text and links, and indexes the result per domain`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(logger, logLevel, logFormat); err != nil {
			return err
		}

		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("data-dir") {
			c.DataDir = dataDir
		}
		cfg = c
		return nil
	},
}

// ExecuteContext runs the root command; canceling ctx stops a running crawl
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.WithError(err).Error("Command failed")
	}
	return err
}

func setupLogger(l *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	default:
		return fmt.Errorf("invalid log format %q: want text or json", format)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: trace/debug/info/warn/error/fatal/panic")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text/json")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the site index (default $XDG_DATA_HOME/sitecrawl)")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
}
