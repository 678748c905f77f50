package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Harsidak/papermd/internal/config"
	"github.com/Harsidak/papermd/internal/convert"
	"github.com/Harsidak/papermd/internal/extract"
	"github.com/Harsidak/papermd/internal/jobs"
	"github.com/Harsidak/papermd/internal/providers"
	"github.com/Harsidak/papermd/internal/render"
)

var (
	convertOut      string
	convertWorkers  int
	convertNoLayout bool
)

// convertReport is one line of the convert command's structured output.
type convertReport struct {
	Path   string          `json:"path" yaml:"path"`
	Result *convert.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Empty  bool            `json:"empty,omitempty" yaml:"empty,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty"`
}

var convertCmd = &cobra.Command{
	Use:   "convert <pdf>...",
	Short: "Convert PDF documents to Markdown",
	Long: `Convert one or more PDF documents to Markdown.

Documents are converted concurrently. For each input <dir>/<name>.pdf the
command writes <output>/<name>/<name>.md, <name>_info.json,
<name>_summary.json and <name>/images/.
Inputs that share a file name get numbered directories (paper, paper-2).

The layout runtime is tried first; if it is disabled or unreachable the
document is extracted directly from the PDF instead.

Examples:
  papermd convert paper.pdf
  papermd convert papers/*.pdf --workers 4 --out ./markdown
  papermd convert scan.pdf --no-layout`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		outRoot, err := h.OutputRoot(convertOut, cfg.OutputDir)
		if err != nil {
			return err
		}

		workers := convertWorkers
		if workers <= 0 {
			workers = cfg.Workers
		}

		chain := buildChain(mgr, cfg, logger, !convertNoLayout)
		pipeline, err := convert.New(convert.Config{
			Chain:      chain,
			OutputRoot: outRoot,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		var pool *jobs.Pool
		pool = jobs.NewPool(jobs.PoolConfig{
			WorkerCount: workers,
			Logger:      logger,
			OnComplete: func(o jobs.Outcome) {
				status := pool.Status()
				logger.Info("document finished",
					"path", o.Path,
					"ok", o.Err == nil,
					"completed", status.Completed,
					"failed", status.Failed,
					"queued", status.QueueDepth)
			},
		})
		outcomes := pool.Run(ctx, pipeline, args)

		reports := make([]convertReport, len(outcomes))
		for i, o := range outcomes {
			reports[i] = convertReport{Path: o.Path, Result: o.Result}
			if o.Err != nil {
				reports[i].Error = o.Err.Error()
			} else {
				reports[i].Empty = o.Result.Empty()
			}
		}
		if err := printer.Print(reports); err != nil {
			return err
		}

		if failed := jobs.Failed(outcomes); len(failed) > 0 {
			return fmt.Errorf("%d of %d documents failed", len(failed), len(outcomes))
		}
		return nil
	},
}

// buildChain assembles the extraction strategies. With the layout runtime
// enabled, the provider is resolved through a registry that follows config
// file edits for the rest of the run.
func buildChain(mgr *config.Manager, cfg *config.Config, logger *slog.Logger, useLayout bool) *extract.Chain {
	var strategies []extract.Strategy

	if useLayout && cfg.Layout.Enabled {
		registry := providers.NewRegistry()
		registry.SetLogger(logger)
		registry.Reload(cfg.ToProviderRegistryConfig())

		if mgr.ConfigFileUsed() != "" {
			mgr.OnChange(func(c *config.Config) {
				registry.Reload(c.ToProviderRegistryConfig())
			})
			mgr.WatchConfig()
		}

		strategies = append(strategies, extract.NewFullStrategy(extract.FullConfig{
			Provider: registry.Named(cfg.LayoutProviderName()),
			Renderer: render.New(cfg.RenderOptions()),
			OCR:      cfg.Layout.OCR,
			Logger:   logger,
		}))
	}

	strategies = append(strategies, extract.NewFallbackStrategy(extract.FallbackConfig{
		HeadingMaxLen: cfg.Fallback.HeadingMaxLen,
		Logger:        logger,
	}))
	return extract.NewChain(logger, strategies...)
}

func init() {
	convertCmd.Flags().StringVar(&convertOut, "out", "", "output root directory (default: config output_dir or ~/.papermd/outputs)")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", 0, "documents converted concurrently (default: config workers)")
	convertCmd.Flags().BoolVar(&convertNoLayout, "no-layout", false, "skip the layout runtime and extract directly from the PDF")

	rootCmd.AddCommand(convertCmd)
}
