package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/domain/timeline"
	"gachi-analyzer/domain/video"
)

// fakeProber returns a fixed Info
type fakeProber struct {
	info  video.Info
	err   error
	calls atomic.Int32
}

func (p *fakeProber) Probe(ctx context.Context, videoPath string) (video.Info, error) {
	p.calls.Add(1)
	return p.info, p.err
}

// fakeFactory creates samplers that label frames with labelAt
type fakeFactory struct {
	labelAt   func(frame int) screen.Label
	fps       float64
	newErr    error
	sampleErr func(r video.FrameRange) error
	skip      func(frame int) bool

	mu      sync.Mutex
	ranges  []video.FrameRange
	created atomic.Int32
	closed  atomic.Int32
}

func (f *fakeFactory) NewSampler() (video.Sampler, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	f.created.Add(1)
	return &fakeSampler{factory: f}, nil
}

func (f *fakeFactory) sampledRanges() []video.FrameRange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]video.FrameRange(nil), f.ranges...)
}

type fakeSampler struct {
	factory *fakeFactory
}

func (s *fakeSampler) Sample(ctx context.Context, videoPath string, r video.FrameRange) ([]timeline.LabeledSample, error) {
	f := s.factory
	f.mu.Lock()
	f.ranges = append(f.ranges, r)
	f.mu.Unlock()

	if f.sampleErr != nil {
		if err := f.sampleErr(r); err != nil {
			return nil, err
		}
	}

	fps := f.fps
	if fps == 0 {
		fps = 1
	}

	var samples []timeline.LabeledSample
	for i := r.Start; i < r.Stop; i += r.Step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.skip != nil && f.skip(i) {
			continue
		}
		label := screen.Unknown
		if f.labelAt != nil {
			label = f.labelAt(i)
		}
		samples = append(samples, timeline.LabeledSample{
			FrameIndex: i,
			Timestamp:  video.FrameTimestamp(i, fps),
			Label:      label,
		})
	}
	return samples, nil
}

func (s *fakeSampler) Close() {
	s.factory.closed.Add(1)
}

// countingRecorder tracks worker balance and stage observations
type countingRecorder struct {
	mu       sync.Mutex
	active   int
	peak     int
	started  int
	stages   map[string]int
	events   int
	battles  int
	finished int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{stages: make(map[string]int)}
}

func (r *countingRecorder) WorkerStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	r.active++
	if r.active > r.peak {
		r.peak = r.active
	}
}

func (r *countingRecorder) WorkerFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active--
	r.finished++
}

func (r *countingRecorder) ObserveStage(stage string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage]++
}

func (r *countingRecorder) RecordResult(events, battles int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = events
	r.battles = battles
}

// labelRuns returns a labelAt function for consecutive runs of frames
func labelRuns(runs ...struct {
	label  screen.Label
	frames int
}) func(int) screen.Label {
	return func(frame int) screen.Label {
		for _, run := range runs {
			if frame < run.frames {
				return run.label
			}
			frame -= run.frames
		}
		return screen.Unknown
	}
}

type run = struct {
	label  screen.Label
	frames int
}
