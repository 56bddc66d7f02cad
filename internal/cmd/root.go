// Package cmd provides the command-line interface for mdbharvest.
// It handles command parsing, configuration loading, and pipeline execution.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"mdbharvest/internal/config"
	"mdbharvest/internal/logging"
	"mdbharvest/internal/pipeline"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mdbharvest",
	Short: "Download legacy database archives and convert them to SQLite",
	Long: `mdbharvest discovers archive links on a catalog page, downloads and
unpacks the archives concurrently, and converts each contained legacy
database file into a standalone SQLite database via mdbtools.`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Configuration file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mdbharvest.yml)")

	// Configuration management flags
	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Pipeline flags
	rootCmd.Flags().StringP("out", "o", "out/raw", "Output root directory (staging/ and converted/ live under it)")
	rootCmd.Flags().String("catalog", "", "Catalog page URL listing archive links")
	rootCmd.Flags().String("selector", "", "CSS selector matching archive anchors on the catalog page")
	rootCmd.Flags().IntP("concurrency", "c", 0, "Number of concurrent conversion workers (0=one per CPU)")
	rootCmd.Flags().Float64P("delay", "r", 0, "Delay between requests per host in seconds (0 disables)")
	rootCmd.Flags().DurationP("timeout", "t", 30*time.Second, "Time allowed for HTTP response headers")
	rootCmd.Flags().StringP("user-agent", "u", "mdbharvest/1.0", "HTTP User-Agent header")
	rootCmd.Flags().StringSlice("extensions", []string{}, "File extensions treated as convertible databases")
	rootCmd.Flags().String("date-format", "", "strftime format for exported timestamps")

	// Logging flags
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-file", "", "Optional log file path")

	// Bind flags to viper
	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"output_root", "out"},
		{"catalog_url", "catalog"},
		{"link_selector", "selector"},
		{"concurrency", "concurrency"},
		{"request_delay", "delay"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
		{"file_extensions", "extensions"},
		{"date_format", "date-format"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			// Log the error but continue - non-critical for operation
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("mdbharvest")
	}

	viper.AutomaticEnv() // read in environment variables that match
	viper.SetEnvPrefix("MH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("mdbharvest/%s", version)
	}
	return "mdbharvest/dev"
}

func showCurrentConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	// Validate configuration before showing it
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current mdbharvest Configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./mdbharvest.yml\n")
	fmt.Printf("# Environment variables prefix: MH_\n\n")

	fmt.Print(string(yamlData))

	fmt.Printf("\n# Configuration source priority:\n")
	fmt.Printf("# 1. Command-line arguments (highest priority)\n")
	fmt.Printf("# 2. Environment variables (MH_ prefix)\n")
	fmt.Printf("# 3. Configuration file (mdbharvest.yml)\n")
	fmt.Printf("# 4. Default values (lowest priority)\n")

	return nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	// Handle --show-config flag first
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg := config.DefaultConfig()

	// Override with viper values
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// An empty slice bound from an unset flag must not clobber the default
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = config.DefaultConfig().Extensions
	}

	// Update User-Agent with dynamic version if not explicitly set
	if !cmd.Flags().Changed("user-agent") && cfg.UserAgent == "mdbharvest/1.0" {
		cfg.UserAgent = generateUserAgent()
	}

	// Handle --show-config: display current configuration and exit
	if showConfig {
		return showCurrentConfig(cfg)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.SetDefault(logging.Config{
		Level:    logging.ParseLevel(cfg.LogLevel),
		FilePath: cfg.LogFile,
		Console:  true,
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	fmt.Printf("Starting harvest with configuration:\n")
	fmt.Printf("  Catalog: %s\n", cfg.CatalogURL)
	fmt.Printf("  Output Root: %s\n", cfg.OutputRoot)
	fmt.Printf("  Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("  Extensions: %v\n", cfg.Extensions)

	return pipeline.New(cfg).Run(cmd.Context())
}
