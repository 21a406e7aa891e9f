package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orderwatch/dupguard/internal/config"
	"github.com/orderwatch/dupguard/internal/detection"
	"github.com/orderwatch/dupguard/internal/domain"
	"github.com/orderwatch/dupguard/internal/export"
	"github.com/orderwatch/dupguard/internal/ingestion"
)

type options struct {
	outDir      string
	profile     string
	logLevel    string
	maxDays     int
	minAmount   float64
	minProducts float64
	amountPrec  int
	qtyPrec     int
	exactStatus string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "detect <report.csv>",
		Short:        "Find duplicate and near-duplicate orders in a report",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.outDir, "out-dir", "", "directory for the result tables (default: next to the report)")
	f.StringVar(&opts.profile, "config", "", "YAML detector profile")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	f.IntVar(&opts.maxDays, "max-days", config.DefaultMaxDays, "delivery-date window for similar pairs")
	f.Float64Var(&opts.minAmount, "min-amount", config.DefaultMinAmountSimilarity, "minimum amount similarity")
	f.Float64Var(&opts.minProducts, "min-products", config.DefaultMinProductSimilarity, "minimum product similarity")
	f.IntVar(&opts.amountPrec, "amount-precision", config.DefaultAmountPrecision, "decimal places for amounts")
	f.IntVar(&opts.qtyPrec, "quantity-precision", config.DefaultQuantityPrecision, "decimal places for quantities")
	f.StringVar(&opts.exactStatus, "exact-status", "", "restrict exact duplicates to one status (RET or PRC)")
	return cmd
}

// settingsFor starts from the profile (or defaults) and applies only the
// flags given on the command line.
func settingsFor(cmd *cobra.Command, opts options) (config.Settings, error) {
	s := config.DefaultSettings()
	if opts.profile != "" {
		var err error
		if s, err = config.LoadSettingsFile(opts.profile); err != nil {
			return s, err
		}
	}

	f := cmd.Flags()
	if f.Changed("max-days") {
		s.MaxDays = opts.maxDays
	}
	if f.Changed("min-amount") {
		s.MinAmountSimilarity = opts.minAmount
	}
	if f.Changed("min-products") {
		s.MinProductSimilarity = opts.minProducts
	}
	if f.Changed("amount-precision") {
		s.AmountPrecision = opts.amountPrec
	}
	if f.Changed("quantity-precision") {
		s.QuantityPrecision = opts.qtyPrec
	}
	if f.Changed("exact-status") {
		s.ExactStatus = domain.Status(strings.ToUpper(opts.exactStatus))
	}
	return s, s.Validate()
}

func run(cmd *cobra.Command, path string, opts options) error {
	logger, err := config.NewLogger(opts.logLevel, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	settings, err := settingsFor(cmd, opts)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	det, err := detection.NewDetector(settings, logger)
	if err != nil {
		return err
	}
	res, err := det.Run(data)
	if err != nil {
		if errors.Is(err, ingestion.ErrHeaderNotFound) {
			logger.Error("report has no header row", zap.String("path", path), zap.Error(err))
		}
		return err
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	exactPath := filepath.Join(outDir, export.ExactFileName)
	similarPath := filepath.Join(outDir, export.SimilarFileName)

	var exact, similar bytes.Buffer
	if err := export.WriteExact(&exact, res.Exact); err != nil {
		return err
	}
	if err := export.WriteSimilar(&similar, res.Similar); err != nil {
		return err
	}
	if err := os.WriteFile(exactPath, exact.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exactPath, err)
	}
	if err := os.WriteFile(similarPath, similar.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", similarPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", exactPath, similarPath)
	fmt.Fprintf(cmd.OutOrStdout(), "orders=%d exact_groups=%d exact_rows=%d similar_pairs=%d\n",
		res.Stats.Orders, res.Stats.ExactGroups, res.Stats.ExactRows, res.Stats.SimilarPairs)
	return nil
}
