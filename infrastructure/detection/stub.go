//go:build !detection

package detection

import (
	"context"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/domain/timeline"
	"gachi-analyzer/domain/video"
	"gachi-analyzer/infrastructure/config"
)

// VideoSampler is a stub when GoCV/OpenCV is not available
type VideoSampler struct{}

// Sample returns ErrUnavailable
func (s *VideoSampler) Sample(ctx context.Context, videoPath string, r video.FrameRange) ([]timeline.LabeledSample, error) {
	return nil, ErrUnavailable
}

// Close is a no-op in stub mode
func (s *VideoSampler) Close() {}

// SamplerFactory is a stub when GoCV/OpenCV is not available
type SamplerFactory struct{}

// NewSamplerFactory creates a stub factory (requires building with -tags=detection)
func NewSamplerFactory(cfg config.DetectionConfig, specs []screen.TemplateSpec, opts ...SamplerOption) *SamplerFactory {
	return &SamplerFactory{}
}

// NewSampler returns ErrUnavailable
func (f *SamplerFactory) NewSampler() (video.Sampler, error) {
	return nil, ErrUnavailable
}

// CheckTemplates returns ErrUnavailable
func CheckTemplates(cfg config.DetectionConfig, specs []screen.TemplateSpec) error {
	return ErrUnavailable
}

var (
	_ video.Sampler        = (*VideoSampler)(nil)
	_ video.SamplerFactory = (*SamplerFactory)(nil)
)
