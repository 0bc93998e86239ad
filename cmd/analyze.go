package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gachi-analyzer/application/analysis"
	"gachi-analyzer/domain/video"
	"gachi-analyzer/infrastructure/config"
	"gachi-analyzer/infrastructure/detection"
	"gachi-analyzer/infrastructure/ffmpeg"
	"gachi-analyzer/infrastructure/filesystem"
	"gachi-analyzer/infrastructure/metrics"
	"gachi-analyzer/infrastructure/progress"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeWorkers       int
	analyzeFrameInterval int
	analyzeFormat        string
	analyzeDumpEvents    bool
	analyzeFlushTrailing bool
	analyzeTemplatesDir  string
	analyzeMetricsFile   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [video]",
	Short: "Detect battles in a recorded match video",
	Long: `Analyze a recording and print every completed battle as
"start_time,duration" (seconds), one per line.

Frames are classified against the configured reference templates, collapsed
into a timeline of screens, and battles are read off that timeline. When no
video is given, the newest .mp4 in the source directory is used.

A battle whose result screen is still showing when the recording ends is not
reported unless --flush-trailing is set.

Example:
  gachi-analyzer analyze "2024-06-02 21-30-00.mp4"

  gachi-analyzer analyze match.mp4 --process 4 --frameinterval 15 --format table`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVarP(&analyzeWorkers, "process", "p", 1, "Number of parallel sampling workers")
	analyzeCmd.Flags().IntVarP(&analyzeFrameInterval, "frameinterval", "i", 1, "Classify every Nth frame")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", FormatCSV, "Output format: "+joinFormats())
	analyzeCmd.Flags().BoolVar(&analyzeDumpEvents, "dump-events", false, "Print the screen timeline before the battles")
	analyzeCmd.Flags().BoolVar(&analyzeFlushTrailing, "flush-trailing", false, "Keep the screen showing when the recording ends as a timeline event")
	analyzeCmd.Flags().StringVar(&analyzeTemplatesDir, "templates-dir", "", "Directory holding the reference images (overrides config)")
	analyzeCmd.Flags().StringVar(&analyzeMetricsFile, "metrics-file", "", "Write Prometheus text-format metrics to this file after the run")
}

// AnalyzeInput contains the input parameters for the analyze command
type AnalyzeInput struct {
	VideoPath     string
	Workers       int
	FrameInterval int
	Format        string
	DumpEvents    bool
	FlushTrailing bool
	MetricsFile   string
}

// AnalyzeDependencies are the collaborators of the analyze command
type AnalyzeDependencies struct {
	Prober      video.Prober
	Factory     video.SamplerFactory
	FileChecker video.FileChecker
	FileSizer   analysis.FileSizer
	FileFinder  analysis.FileFinder
	Recorder    *metrics.Recorder
	Progress    analysis.Progress
	Logger      *zap.Logger
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	input := resolveAnalyzeInput(cmd, cfg, args)
	if analyzeTemplatesDir != "" {
		cfg.Paths.TemplatesDir = analyzeTemplatesDir
	}

	specs, err := cfg.TemplateSpecs()
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	recorder := metrics.NewRecorder()
	observers := video.Observers{recorder}

	var bar analysis.Progress
	if progress.Enabled(stderr) {
		b := progress.New(stderr)
		observers = append(observers, b)
		bar = b
	}

	prober := ffmpeg.NewProber(ffmpeg.WithFFprobePath(cfg.Tools.FFprobePath))
	checker := filesystem.NewChecker()
	deps := AnalyzeDependencies{
		Prober: prober,
		Factory: detection.NewSamplerFactory(cfg.Detection, specs,
			detection.WithLogger(logger),
			detection.WithObserver(observers)),
		FileChecker: checker,
		FileSizer:   checker,
		FileFinder:  checker,
		Recorder:    recorder,
		Progress:    bar,
		Logger:      logger,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := prober.VerifyInstalled(ctx); err != nil {
		return fmt.Errorf("%w (set tools.ffprobe_path or GACHI_FFPROBE)", err)
	}

	return RunAnalyzeWithDependencies(ctx, cfg, deps, input, cmd.OutOrStdout(), stderr)
}

// resolveAnalyzeInput merges explicitly set flags over the configured defaults
func resolveAnalyzeInput(cmd *cobra.Command, cfg *config.Config, args []string) AnalyzeInput {
	input := AnalyzeInput{
		Workers:       cfg.Analysis.Workers,
		FrameInterval: cfg.Analysis.FrameInterval,
		Format:        analyzeFormat,
		DumpEvents:    analyzeDumpEvents,
		FlushTrailing: cfg.Analysis.FlushTrailing,
		MetricsFile:   cfg.Metrics.TextfilePath,
	}
	if len(args) > 0 {
		input.VideoPath = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("process") {
		input.Workers = analyzeWorkers
	}
	if flags.Changed("frameinterval") {
		input.FrameInterval = analyzeFrameInterval
	}
	if flags.Changed("flush-trailing") {
		input.FlushTrailing = analyzeFlushTrailing
	}
	if flags.Changed("metrics-file") {
		input.MetricsFile = analyzeMetricsFile
	}
	return input
}

// RunAnalyzeWithDependencies runs the analyze command with injected dependencies (for testing)
func RunAnalyzeWithDependencies(ctx context.Context, cfg *config.Config, deps AnalyzeDependencies, input AnalyzeInput, stdout, stderr io.Writer) error {
	if err := validateFormat(input.Format); err != nil {
		return err
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	opts := []analysis.Option{analysis.WithLogger(deps.Logger)}
	if deps.Recorder != nil {
		opts = append(opts, analysis.WithRecorder(deps.Recorder))
	}
	if deps.Progress != nil {
		opts = append(opts, analysis.WithProgress(deps.Progress))
	}

	service := analysis.NewService(
		deps.Prober,
		deps.Factory,
		deps.FileChecker,
		deps.FileSizer,
		deps.FileFinder,
		cfg,
		stderr,
		opts...,
	)

	result, err := service.Analyze(ctx, analysis.Input{
		VideoPath:     input.VideoPath,
		Workers:       input.Workers,
		FrameInterval: input.FrameInterval,
		FlushTrailing: input.FlushTrailing,
	})
	if err != nil {
		return err
	}

	if input.MetricsFile != "" && deps.Recorder != nil {
		if err := deps.Recorder.WriteTextfile(input.MetricsFile); err != nil {
			return err
		}
		deps.Logger.Debug("metrics written", zap.String("path", input.MetricsFile))
	}

	if input.DumpEvents {
		if err := writeEvents(stdout, result.Events); err != nil {
			return fmt.Errorf("failed to write events: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if err := writeBattles(stdout, input.Format, result.Battles); err != nil {
		return fmt.Errorf("failed to write battles: %w", err)
	}
	return nil
}
