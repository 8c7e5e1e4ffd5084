// Command autompg runs the fuel economy analysis over the bundled
// automobile dataset and writes a plain-text report plus two charts into
// the output directory.
//
// Usage:
//
//	autompg --out report
//	autompg --out /tmp/run --seed 7 --log-level debug
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cd-at-willamette/autompg/pkg/errors"
	"github.com/cd-at-willamette/autompg/pkg/log"
	"github.com/cd-at-willamette/autompg/report"
)

var (
	outDir   string
	logLevel string
	seed     int64
	folds    int
)

var rootCmd = &cobra.Command{
	Use:   "autompg",
	Short: "Analyze the automobile fuel economy dataset",
	Long: "autompg fits regression and classification models over the bundled\n" +
		"1970-1982 automobile table and writes report.txt, mpg_hp_by_year.png\n" +
		"and roc_curve.png into the output directory.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&outDir, "out", "report", "output directory for the report and charts")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Int64Var(&seed, "seed", 42, "seed for the train/test split and fold shuffling")
	rootCmd.Flags().IntVar(&folds, "folds", 5, "cross-validation fold count")
}

func run(cmd *cobra.Command, args []string) error {
	log.Setup(logLevel)
	logger := slog.Default()

	opts := report.DefaultOptions()
	opts.Seed = seed
	opts.Folds = folds

	rpt, err := report.Run(logger, opts)
	if err != nil {
		logger.Error("analysis failed", log.ErrAttr(err))
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	reportPath := filepath.Join(outDir, "report.txt")
	f, err := os.Create(reportPath)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	defer f.Close()
	if err := rpt.Render(f); err != nil {
		return errors.Wrap(err, "render report")
	}

	if err := rpt.SaveCharts(outDir); err != nil {
		return errors.Wrap(err, "save charts")
	}

	logger.Info("report written", "dir", outDir)
	fmt.Printf("wrote %s and charts to %s\n", reportPath, outDir)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
