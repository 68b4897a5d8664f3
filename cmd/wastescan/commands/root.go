package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wastescan/detector/internal/version"
)

// cliConfig holds every flag/env/config-file value the CLI's subcommands
// read, populated by rootCmd.PersistentPreRun the way the teacher's
// root.go populates its own package-level config var from viper.
type cliConfig struct {
	Regions            []string
	Profile            string
	Account            string
	RulesFile          string
	JSONOutput         bool
	Verbose            bool
	Strict             bool
	DiscountRate       float64
	OtelEndpoint       string
	SkipTelemetry      bool
	RegionConcurrency  int
	AdapterConcurrency int
}

var config cliConfig

var rootCmd = &cobra.Command{
	Use:     "wastescan",
	Short:   "Cloud waste detection engine",
	Long:    "wastescan scans an AWS account for idle, orphaned, and over-provisioned resources and reports their estimated monthly cost.",
	Version: version.Current,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringSlice("regions", nil, "Regions to scan (default: every region the account can see)")
	flags.String("profile", "", "AWS shared config profile")
	flags.String("account", "", "Expected AWS account id, checked against validated credentials")
	flags.String("rules", "", "Path to a YAML rule-override file")
	flags.Bool("json", false, "Emit machine-readable JSON instead of a text summary")
	flags.BoolP("verbose", "v", false, "Debug-level logging")
	flags.Bool("strict", false, "Exit non-zero if the scan was partial (a region, resource type, or scenario was skipped)")
	flags.Float64("discount-rate", 0, "Blended Savings Plan/RI discount factor for EC2-family compute, e.g. 0.8")
	flags.String("otel-endpoint", "", "OTLP/HTTP collector endpoint (default: OTEL_EXPORTER_OTLP_ENDPOINT env var, or none)")
	flags.Bool("no-telemetry", false, "Disable OpenTelemetry entirely")
	flags.Int("region-concurrency", 8, "Maximum regions scanned concurrently")
	flags.Int("adapter-concurrency", 16, "Maximum concurrent adapter calls within a region scan")

	_ = viper.BindPFlag("regions", flags.Lookup("regions"))
	_ = viper.BindPFlag("profile", flags.Lookup("profile"))
	_ = viper.BindPFlag("account", flags.Lookup("account"))
	_ = viper.BindPFlag("rules", flags.Lookup("rules"))
	_ = viper.BindPFlag("json", flags.Lookup("json"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("strict", flags.Lookup("strict"))
	_ = viper.BindPFlag("discount_rate", flags.Lookup("discount-rate"))
	_ = viper.BindPFlag("otel_endpoint", flags.Lookup("otel-endpoint"))
	_ = viper.BindPFlag("no_telemetry", flags.Lookup("no-telemetry"))
	_ = viper.BindPFlag("region_concurrency", flags.Lookup("region-concurrency"))
	_ = viper.BindPFlag("adapter_concurrency", flags.Lookup("adapter-concurrency"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		config.Regions = viper.GetStringSlice("regions")
		config.Profile = viper.GetString("profile")
		config.Account = viper.GetString("account")
		config.RulesFile = viper.GetString("rules")
		config.JSONOutput = viper.GetBool("json")
		config.Verbose = viper.GetBool("verbose")
		config.Strict = viper.GetBool("strict")
		config.DiscountRate = viper.GetFloat64("discount_rate")
		config.OtelEndpoint = viper.GetString("otel_endpoint")
		config.SkipTelemetry = viper.GetBool("no_telemetry")
		config.RegionConcurrency = viper.GetInt("region_concurrency")
		config.AdapterConcurrency = viper.GetInt("adapter_concurrency")
	}

	rootCmd.AddCommand(scanCmd)
}

// initConfig wires viper's config-file/env layering, precedence flag >
// env > config file > default, the same as the teacher's root.go.
func initConfig() {
	viper.SetConfigName("wastescan")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.wastescan")
	}

	viper.SetEnvPrefix("WASTESCAN")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig() // absent config file is not an error
}
