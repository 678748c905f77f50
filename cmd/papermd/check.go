package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Harsidak/papermd/internal/extract"
)

// checkReport is the structured output of the check command.
type checkReport struct {
	Path  string           `json:"path" yaml:"path"`
	Info  *extract.PDFInfo `json:"info,omitempty" yaml:"info,omitempty"`
	Error string           `json:"error,omitempty" yaml:"error,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check <pdf>...",
	Short: "Check that PDF documents can be opened",
	Long: `Open each PDF, report its page count and size, and flag files that are
missing, damaged or password protected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reports := make([]checkReport, 0, len(args))
		failed := 0
		for _, path := range args {
			info, err := extract.CheckPDF(path)
			r := checkReport{Path: path, Info: info}
			if err != nil {
				r.Error = err.Error()
				failed++
			}
			reports = append(reports, r)
		}
		if err := printer.Print(reports); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed the check", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
