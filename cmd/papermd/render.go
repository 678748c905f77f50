package main

import (
	"fmt"
	"io"
	"os"

	"github.com/moby/sys/atomicwriter"
	"github.com/spf13/cobra"

	"github.com/Harsidak/papermd/internal/layout"
	"github.com/Harsidak/papermd/internal/render"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render <layout.json>",
	Short: "Render a saved layout structure to Markdown",
	Long: `Render a layout structure (a <name>_info.json file, or raw runtime
output with a pdf_info list) to Markdown without contacting the runtime.
The structure is checked against the layout JSON schema first.

Use "-" to read the structure from stdin. The Markdown is written to
stdout unless --out is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		var data []byte
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read layout structure: %w", err)
		}

		doc, err := layout.Decode(data)
		if err != nil {
			return err
		}

		markdown := render.New(cfg.RenderOptions()).Render(doc)
		if renderOut == "" {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), markdown)
			return err
		}
		if err := atomicwriter.WriteFile(renderOut, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("failed to write markdown: %w", err)
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderOut, "out", "", "write Markdown to this file instead of stdout")

	rootCmd.AddCommand(renderCmd)
}
