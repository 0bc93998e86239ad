package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"gachi-analyzer/domain/timeline"
	"gachi-analyzer/domain/video"
	"gachi-analyzer/infrastructure/config"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileFinder abstracts file system operations for finding recordings
type FileFinder interface {
	FindNewestFile(dir, ext string) (string, error)
}

// FileSizer provides file size information
type FileSizer interface {
	Size(path string) int64
}

// Service orchestrates one analysis run: probe, sample, organize
type Service struct {
	prober      video.Prober
	factory     video.SamplerFactory
	fileChecker video.FileChecker
	fileSizer   FileSizer
	fileFinder  FileFinder
	cfg         *config.Config
	output      io.Writer
	settings    settings
}

// NewService creates a new analysis service
func NewService(
	prober video.Prober,
	factory video.SamplerFactory,
	fileChecker video.FileChecker,
	fileSizer FileSizer,
	fileFinder FileFinder,
	cfg *config.Config,
	output io.Writer,
	opts ...Option,
) *Service {
	return &Service{
		prober:      prober,
		factory:     factory,
		fileChecker: fileChecker,
		fileSizer:   fileSizer,
		fileFinder:  fileFinder,
		cfg:         cfg,
		output:      output,
		settings:    newSettings(opts),
	}
}

// Input contains the parameters of one analysis run
type Input struct {
	VideoPath     string // Recording path (optional if using newest)
	Workers       int    // Concurrent samplers; 1 samples in the calling goroutine
	FrameInterval int    // Sample every Nth frame
	FlushTrailing bool   // Keep the run that reaches the end of the recording
}

// Result contains everything derived from one analysis run
type Result struct {
	RunID     string
	VideoPath string
	Info      video.Info
	timeline.Result
	Elapsed time.Duration
}

// ValidationError contains details about a validation failure with suggestions
type ValidationError struct {
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s\n\nTo fix this, run:\n  %s", e.Message, e.Suggestion)
	}
	return e.Message
}

// Analyze runs the complete detection workflow on one recording
func (s *Service) Analyze(ctx context.Context, input Input) (*Result, error) {
	startTime := time.Now()

	videoPath, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := s.settings.logger.With(
		zap.String("run_id", runID),
		zap.String("video", filepath.Base(videoPath)))

	fmt.Fprintf(s.output, "Using recording: %s (%s)\n\n", filepath.Base(videoPath), humanize.Bytes(uint64(max(s.fileSizer.Size(videoPath), 0))))

	// Step 1: Probe
	fmt.Fprintf(s.output, "[1/3] Probing video...\n")
	probeStart := time.Now()
	info, err := s.prober.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}
	s.settings.recorder.ObserveStage("probe", time.Since(probeStart))
	fmt.Fprintf(s.output, "      %s frames at %.2f fps (%s)\n\n",
		humanize.Comma(int64(info.FrameCount)), info.FPS,
		video.TimestampFromSeconds(info.DurationSeconds()))
	logger.Info("video probed",
		zap.Int("frames", info.FrameCount),
		zap.Float64("fps", info.FPS),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height))

	// Step 2: Sample
	selected := plannedFrames(info.FrameCount, input.Workers, input.FrameInterval)
	fmt.Fprintf(s.output, "[2/3] Sampling %s frames with %d worker(s)...\n", humanize.Comma(int64(selected)), input.Workers)
	sampleStart := time.Now()
	s.settings.progress.Start(selected)
	samples, err := s.sample(ctx, logger, videoPath, info.FrameCount, input)
	s.settings.progress.Finish()
	if err != nil {
		return nil, fmt.Errorf("sampling failed: %w", err)
	}
	s.settings.recorder.ObserveStage("sample", time.Since(sampleStart))
	fmt.Fprintf(s.output, "      Classified %s frames in %s\n\n", humanize.Comma(int64(len(samples))), formatDuration(time.Since(sampleStart)))
	if skipped := selected - len(samples); skipped > 0 {
		logger.Warn("frames could not be decoded", zap.Int("skipped", skipped))
	}

	// Step 3: Organize
	fmt.Fprintf(s.output, "[3/3] Organizing timeline...\n")
	organizeStart := time.Now()
	organizer := timeline.NewOrganizer(timeline.WithTrailingRunFlush(input.FlushTrailing))
	organized := organizer.Organize(samples)
	s.settings.recorder.ObserveStage("organize", time.Since(organizeStart))
	s.settings.recorder.RecordResult(len(organized.Events), len(organized.Battles))
	fmt.Fprintf(s.output, "      %d events, %d battles\n\n", len(organized.Events), len(organized.Battles))

	elapsed := time.Since(startTime)
	logger.Info("analysis complete",
		zap.Int("samples", len(organized.Samples)),
		zap.Int("events", len(organized.Events)),
		zap.Int("battles", len(organized.Battles)),
		zap.Duration("elapsed", elapsed))
	fmt.Fprintf(s.output, "Done! Completed in %s\n", formatDuration(elapsed))

	return &Result{
		RunID:     runID,
		VideoPath: videoPath,
		Info:      info,
		Result:    organized,
		Elapsed:   elapsed,
	}, nil
}

func (s *Service) sample(ctx context.Context, logger *zap.Logger, videoPath string, totalFrames int, input Input) ([]timeline.LabeledSample, error) {
	if input.Workers > 1 {
		dispatcher := NewDispatcher(s.prober, s.factory, WithLogger(logger), WithRecorder(s.settings.recorder))
		return dispatcher.DispatchFrames(ctx, videoPath, totalFrames, input.Workers, input.FrameInterval)
	}

	if totalFrames <= 0 {
		return nil, nil
	}

	sampler, err := s.factory.NewSampler()
	if err != nil {
		return nil, err
	}
	defer sampler.Close()

	s.settings.recorder.WorkerStarted()
	defer s.settings.recorder.WorkerFinished()

	return sampler.Sample(ctx, videoPath, video.FrameRange{Start: 0, Stop: totalFrames, Step: input.FrameInterval})
}

// plannedFrames is the number of frame indices the sampling step will visit.
// Each partition restarts the stride at its own start, so the parallel path
// can visit more indices than one range over the whole video.
func plannedFrames(totalFrames, workers, step int) int {
	whole := video.FrameRange{Start: 0, Stop: totalFrames, Step: step}.Len()
	if workers <= 1 {
		return whole
	}
	ranges, err := video.Partition(totalFrames, workers, step)
	if err != nil {
		return whole
	}
	n := 0
	for _, r := range ranges {
		n += r.Len()
	}
	return n
}

func (s *Service) validateInput(input Input) (string, error) {
	if input.Workers < 1 {
		return "", &ValidationError{Message: fmt.Sprintf("worker count must be at least 1, got %d", input.Workers)}
	}
	if input.FrameInterval < 1 {
		return "", fmt.Errorf("%w: got %d", video.ErrInvalidStep, input.FrameInterval)
	}

	videoPath := input.VideoPath
	if videoPath == "" {
		newest, err := s.fileFinder.FindNewestFile(s.cfg.Paths.SourceDirectory, ".mp4")
		if err != nil {
			return "", &ValidationError{
				Message:    fmt.Sprintf("no recording given and none found: %v", err),
				Suggestion: "gachi-analyzer fetch",
			}
		}
		videoPath = newest
	} else if !s.fileChecker.Exists(videoPath) && !filepath.IsAbs(videoPath) {
		// Fall back to the source directory for bare file names
		candidate := filepath.Join(s.cfg.Paths.SourceDirectory, videoPath)
		if s.fileChecker.Exists(candidate) {
			videoPath = candidate
		}
	}

	if !s.fileChecker.Exists(videoPath) {
		return "", fmt.Errorf("%w: file does not exist: %s", video.ErrOpenVideo, videoPath)
	}
	return videoPath, nil
}

// IsInvalidArgument reports whether err was caused by bad run parameters
func IsInvalidArgument(err error) bool {
	var validation *ValidationError
	return errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, video.ErrInvalidStep) ||
		errors.Is(err, video.ErrInvalidRange) ||
		errors.As(err, &validation)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
