package video

import (
	"context"
	"errors"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/domain/timeline"
)

// ErrOpenVideo is returned when a recording cannot be opened for decoding
var ErrOpenVideo = errors.New("cannot open video")

// Info describes the stream properties needed to plan an analysis
type Info struct {
	FrameCount int
	FPS        float64
	Width      int
	Height     int
}

// DurationSeconds returns the stream length derived from frame count and rate
func (i Info) DurationSeconds() float64 {
	if i.FPS <= 0 {
		return 0
	}
	return float64(i.FrameCount) / i.FPS
}

// Prober reads stream properties from a recording
// This is a port that can be implemented by different infrastructure adapters
type Prober interface {
	// Probe returns frame count and frame rate of the first video stream
	Probe(ctx context.Context, videoPath string) (Info, error)
}

// Sampler classifies the frames of a recording selected by a FrameRange
type Sampler interface {
	// Sample returns one labeled sample per frame that could be read, in
	// frame order. Frames that cannot be read are skipped.
	Sample(ctx context.Context, videoPath string, r FrameRange) ([]timeline.LabeledSample, error)

	// Close releases any resources
	Close()
}

// SamplerFactory creates independent samplers, one per concurrent worker
type SamplerFactory interface {
	NewSampler() (Sampler, error)
}

// FrameObserver is notified for every frame a sampler visits.
// Implementations must be safe for concurrent use.
type FrameObserver interface {
	FrameSampled(label screen.Label)
	FrameSkipped(frameIndex int)
}

// FileChecker defines the interface for checking file existence
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}

// Observers fans frame notifications out to several observers
type Observers []FrameObserver

// FrameSampled implements FrameObserver
func (o Observers) FrameSampled(label screen.Label) {
	for _, obs := range o {
		obs.FrameSampled(label)
	}
}

// FrameSkipped implements FrameObserver
func (o Observers) FrameSkipped(frameIndex int) {
	for _, obs := range o {
		obs.FrameSkipped(frameIndex)
	}
}
