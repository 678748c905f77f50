package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Harsidak/papermd/internal/api"
	"github.com/Harsidak/papermd/internal/config"
	"github.com/Harsidak/papermd/internal/home"
	"github.com/Harsidak/papermd/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string

	printer *api.Printer
)

var rootCmd = &cobra.Command{
	Use:   "papermd",
	Short: "Convert academic PDFs into Markdown",
	Long: `papermd converts PDF documents into Markdown plus a JSON structure file.

Each document goes through an extraction chain:
  - A layout-and-OCR runtime (MinerU) that returns page blocks and spans,
    rendered to Markdown with headings, math, figures and tables
  - Direct text and image extraction from the PDF when that runtime is
    not available

Outputs are written to <output>/<name>/ as <name>.md, <name>_info.json,
<name>_summary.json and an images/ directory.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := api.ParseOutputFormat(outputFormat)
		if err != nil {
			return err
		}
		printer = api.NewPrinter(cmd.OutOrStdout(), format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.papermd/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "papermd home directory (default: $PAPERMD_HOME or ~/.papermd)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)",
	)

	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the home directory and loads configuration. Without
// --config, a config.yaml inside --home wins over the default search path.
func loadConfig() (*config.Manager, *home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}

	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, nil, err
	}
	return mgr, h, nil
}

// newLogger builds the stderr text logger. --log-level wins over config.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	name := cfg.LogLevel
	if logLevel != "" {
		name = logLevel
	}
	level, err := config.ParseLogLevel(name)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}
