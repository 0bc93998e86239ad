package cmd

import (
	"fmt"
	"io"
	"os"

	"gachi-analyzer/infrastructure/config"
	"gachi-analyzer/infrastructure/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg     *config.Config
	cfgErr  error
	logger  = zap.NewNop()
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "gachi-analyzer",
	Short: "Find ranked battles in recorded match videos",
	Long: `gachi-analyzer scans a recorded gameplay video, recognizes lobby, loading
and result screens by template matching, and reports every completed battle
as a start time and duration:

  - Sample frames (optionally in parallel)
  - Collapse labeled frames into a screen timeline
  - Extract battles from the timeline

Example:
  gachi-analyzer analyze recording.mp4 -p 4 -i 15`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(cmd.ErrOrStderr())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json (overrides config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	// A missing file is fine: every setting has a default
	cfg, cfgErr = config.LoadOrDefault(cfgFile)
	if cfgErr != nil {
		cfg = nil
	}
}

func initLogger(w io.Writer) error {
	opts := logging.Options{Output: w}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
	}
	if logLevel != "" {
		opts.Level = logLevel
	}
	if logFormat != "" {
		opts.Format = logFormat
	}

	l, err := logging.New(opts)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// GetConfig returns the loaded configuration, or the load error
func GetConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("failed to load configuration %s: %w", cfgFile, cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
