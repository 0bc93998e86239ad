package analysis

import (
	"time"

	"go.uber.org/zap"
)

// Recorder receives run statistics. The metrics Recorder implements it.
type Recorder interface {
	WorkerStarted()
	WorkerFinished()
	ObserveStage(stage string, d time.Duration)
	RecordResult(events, battles int)
}

// Progress is told how many frames a run will visit and when sampling ends
type Progress interface {
	Start(total int)
	Finish()
}

type nopRecorder struct{}

func (nopRecorder) WorkerStarted()                     {}
func (nopRecorder) WorkerFinished()                    {}
func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) RecordResult(int, int)              {}

type nopProgress struct{}

func (nopProgress) Start(int) {}
func (nopProgress) Finish()   {}

// Option is a functional option shared by Service and Dispatcher
type Option func(*settings)

type settings struct {
	logger   *zap.Logger
	recorder Recorder
	progress Progress
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the run statistics sink
func WithRecorder(recorder Recorder) Option {
	return func(s *settings) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithProgress sets the progress display driven during sampling
func WithProgress(progress Progress) Option {
	return func(s *settings) {
		if progress != nil {
			s.progress = progress
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: zap.NewNop(), recorder: nopRecorder{}, progress: nopProgress{}}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
