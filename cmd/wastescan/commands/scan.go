package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/engine"
	"github.com/wastescan/detector/pkg/provider/aws"
	"github.com/wastescan/detector/pkg/rules"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan an AWS account for waste and print the findings",
	Long: `Validates credentials, enumerates the requested regions (or every region
the account can see), runs every detection scenario against every
resource, and prints the deduplicated result.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var handler slog.Handler
	switch {
	case config.JSONOutput:
		handler = slog.NewJSONHandler(os.Stderr, nil)
	case config.Verbose:
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	logger := slog.New(handler)

	overrides, err := loadRuleOverrides(config.RulesFile)
	if err != nil {
		return fmt.Errorf("load rule overrides: %w", err)
	}

	adapter, err := aws.New(ctx, aws.Options{
		Profile: config.Profile,
		Verbose: config.Verbose,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build aws adapter: %w", err)
	}

	eng, err := engine.New(ctx, adapter,
		engine.WithLogger(logger),
		engine.WithConfig(engine.Config{
			RegionConcurrency:  config.RegionConcurrency,
			AdapterConcurrency: config.AdapterConcurrency,
			DiscountFactor:     config.DiscountRate,
			StrictMode:         config.Strict,
			OtelEndpoint:       config.OtelEndpoint,
			SkipTelemetry:      config.SkipTelemetry,
		}),
	)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	result, err := eng.Scan(ctx, config.Account, config.Regions, overrides)
	if err != nil && err != detect.ErrPartialScan {
		return fmt.Errorf("scan: %w", err)
	}

	if config.JSONOutput {
		if encodeErr := json.NewEncoder(os.Stdout).Encode(result); encodeErr != nil {
			return fmt.Errorf("encode result: %w", encodeErr)
		}
	} else {
		printSummary(result)
	}

	if err == detect.ErrPartialScan {
		os.Exit(2)
	}
	return nil
}

func printSummary(result engine.ScanResult) {
	var totalMonthly float64
	for _, f := range result.Findings {
		totalMonthly += f.EstimatedMonthlyCost
	}

	fmt.Printf("Scanned %d region(s), found %d waste finding(s), estimated $%.2f/mo recoverable\n",
		len(result.ScannedRegions), len(result.Findings), totalMonthly)

	for _, f := range result.Findings {
		fmt.Printf("  [%s] %s %s (%s) $%.2f/mo — %v\n",
			f.ConfidenceLevel(), f.ResourceType, f.ResourceID, f.Region, f.EstimatedMonthlyCost, f.Metadata["orphan_reason"])
	}

	if len(result.PerRegionErrors) > 0 {
		fmt.Printf("\n%d region/resource-type error(s):\n", len(result.PerRegionErrors))
		for _, e := range result.PerRegionErrors {
			fmt.Printf("  [%s] %s: %s\n", e.Kind, e.Scope, e.Err)
		}
	}
	if len(result.SkippedScenarios) > 0 {
		fmt.Printf("\n%d skipped scenario(s):\n", len(result.SkippedScenarios))
		for _, e := range result.SkippedScenarios {
			fmt.Printf("  [%s] %s: %s\n", e.Kind, e.Scope, e.Err)
		}
	}
}

// loadRuleOverrides reads a YAML rule-override file shaped as
// resource_type -> parameter -> value, the same map-of-maps shape
// rules.RuleSet already is, so no intermediate struct is needed.
func loadRuleOverrides(path string) (rules.RuleSet, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var overrides rules.RuleSet
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return overrides, nil
}
