package analysis

import (
	"context"
	"errors"
	"fmt"

	"gachi-analyzer/domain/timeline"
	"gachi-analyzer/domain/video"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidWorkerCount is returned when parallel sampling is requested with fewer than two workers
var ErrInvalidWorkerCount = errors.New("parallel sampling needs at least 2 workers")

// Dispatcher samples one recording with several independent workers
type Dispatcher struct {
	prober   video.Prober
	factory  video.SamplerFactory
	settings settings
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(prober video.Prober, factory video.SamplerFactory, opts ...Option) *Dispatcher {
	return &Dispatcher{
		prober:   prober,
		factory:  factory,
		settings: newSettings(opts),
	}
}

// Dispatch probes the recording and samples it with workers concurrent samplers
func (d *Dispatcher) Dispatch(ctx context.Context, videoPath string, workers, step int) ([]timeline.LabeledSample, error) {
	if err := validateDispatch(workers, step); err != nil {
		return nil, err
	}

	info, err := d.prober.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", videoPath, err)
	}

	return d.DispatchFrames(ctx, videoPath, info.FrameCount, workers, step)
}

// DispatchFrames samples [0, totalFrames) split into workers contiguous
// partitions. Samples are returned partition by partition; callers that need
// global frame order merge them. The first worker error cancels the others
// and no partial result is returned.
func (d *Dispatcher) DispatchFrames(ctx context.Context, videoPath string, totalFrames, workers, step int) ([]timeline.LabeledSample, error) {
	if err := validateDispatch(workers, step); err != nil {
		return nil, err
	}

	ranges, err := video.Partition(totalFrames, workers, step)
	if err != nil {
		return nil, err
	}

	results := make([][]timeline.LabeledSample, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		if r.Empty() {
			continue
		}
		g.Go(func() error {
			samples, err := d.runWorker(gctx, i, videoPath, r)
			if err != nil {
				return err
			}
			results[i] = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, part := range results {
		total += len(part)
	}
	samples := make([]timeline.LabeledSample, 0, total)
	for _, part := range results {
		samples = append(samples, part...)
	}
	return samples, nil
}

func (d *Dispatcher) runWorker(ctx context.Context, worker int, videoPath string, r video.FrameRange) ([]timeline.LabeledSample, error) {
	sampler, err := d.factory.NewSampler()
	if err != nil {
		return nil, fmt.Errorf("worker %d: %w", worker, err)
	}
	defer sampler.Close()

	d.settings.recorder.WorkerStarted()
	defer d.settings.recorder.WorkerFinished()

	d.settings.logger.Debug("worker started",
		zap.Int("worker", worker),
		zap.Stringer("range", r))

	samples, err := sampler.Sample(ctx, videoPath, r)
	if err != nil {
		return nil, fmt.Errorf("worker %d %s: %w", worker, r, err)
	}

	d.settings.logger.Debug("worker finished",
		zap.Int("worker", worker),
		zap.Int("samples", len(samples)))
	return samples, nil
}

func validateDispatch(workers, step int) error {
	if workers < 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkerCount, workers)
	}
	if step < 1 {
		return fmt.Errorf("%w: got %d", video.ErrInvalidStep, step)
	}
	return nil
}
