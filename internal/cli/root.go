package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tonyg-mp/pubchem/internal/logging"
	"github.com/tonyg-mp/pubchem/internal/model"
)

// Version is the release reported by the version command
const Version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pubchem",
	Short: "pubchem - resumable PubChem bulk pull and wide export",
	Long: `pubchem pulls per-compound PUG-View headings and PUG REST properties for a
list of CIDs, stores the extracted records as numbered table fragments,
and consolidates them into one wide row per compound.

Pulls are resumable: completed CIDs are checkpointed after their records
are flushed, and every response is cached on disk.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pubchem %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.pubchem/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// setDefaults registers every config key so env variables can override it
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("http.base_url", cfg.HTTP.BaseURL)
	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.batch_timeout", cfg.HTTP.BatchTimeout)
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	v.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	v.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)

	v.SetDefault("pull.flush_every", cfg.Pull.FlushEvery)
	v.SetDefault("pull.sleep", cfg.Pull.Sleep)
	v.SetDefault("pull.properties_batch_size", cfg.Pull.PropertiesBatchSize)
	v.SetDefault("pull.max_cids", cfg.Pull.MaxCIDs)
	v.SetDefault("pull.extra_headings", cfg.Pull.ExtraHeadings)
	v.SetDefault("pull.respect_robots", cfg.Pull.RespectRobots)
	v.SetDefault("pull.requests_per_second", cfg.Pull.RequestsPerSecond)

	v.SetDefault("export.preview_rows", cfg.Export.PreviewRows)
	v.SetDefault("export.cell_limit", cfg.Export.CellLimit)

	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("log.level", cfg.Log.Level)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".pubchem"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// PUBCHEM_PULL_FLUSH_EVERY overrides pull.flush_every
	viper.SetEnvPrefix("PUBCHEM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig returns the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if viper.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) *slog.Logger {
	return logging.New(cfg.Log.Level)
}
