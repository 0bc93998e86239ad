//go:build detection

package detection

import (
	"context"
	"fmt"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/domain/timeline"
	"gachi-analyzer/domain/video"
	"gachi-analyzer/infrastructure/config"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// VideoSampler implements video.Sampler by decoding frames with GoCV
type VideoSampler struct {
	classifier *TemplateClassifier
	settings   samplerSettings
}

// NewVideoSampler creates a sampler that owns classifier
func NewVideoSampler(classifier *TemplateClassifier, opts ...SamplerOption) *VideoSampler {
	return &VideoSampler{
		classifier: classifier,
		settings:   newSamplerSettings(opts),
	}
}

// Sample implements video.Sampler
func (s *VideoSampler) Sample(ctx context.Context, videoPath string, r video.FrameRange) ([]timeline.LabeledSample, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", video.ErrOpenVideo, videoPath, err)
	}
	defer capture.Close()
	if !capture.IsOpened() {
		return nil, fmt.Errorf("%w %s", video.ErrOpenVideo, videoPath)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)

	frame := gocv.NewMat()
	defer frame.Close()

	samples := make([]timeline.LabeledSample, 0, r.Len())
	position := -1
	for idx := r.Start; idx < r.Stop; idx += r.Step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Sequential reads avoid a seek per frame when step is 1.
		if idx != position {
			capture.Set(gocv.VideoCapturePosFrames, float64(idx))
		}
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			position = -1
			s.settings.logger.Debug("skipping unreadable frame",
				zap.String("video", videoPath),
				zap.Int("frame", idx))
			if s.settings.observer != nil {
				s.settings.observer.FrameSkipped(idx)
			}
			continue
		}
		position = idx + 1

		label := s.classifier.Classify(frame)
		samples = append(samples, timeline.LabeledSample{
			FrameIndex: idx,
			Timestamp:  video.FrameTimestamp(idx, fps),
			Label:      label,
		})
		if s.settings.observer != nil {
			s.settings.observer.FrameSampled(label)
		}
	}

	return samples, nil
}

// Close releases the classifier templates
func (s *VideoSampler) Close() {
	s.classifier.Close()
}

// SamplerFactory builds one VideoSampler per worker, each with its own
// decoder handle and its own copy of the templates.
type SamplerFactory struct {
	config config.DetectionConfig
	specs  []screen.TemplateSpec
	opts   []SamplerOption
}

// NewSamplerFactory creates a factory for the given templates
func NewSamplerFactory(cfg config.DetectionConfig, specs []screen.TemplateSpec, opts ...SamplerOption) *SamplerFactory {
	return &SamplerFactory{config: cfg, specs: specs, opts: opts}
}

// NewSampler implements video.SamplerFactory
func (f *SamplerFactory) NewSampler() (video.Sampler, error) {
	classifier := NewTemplateClassifier(f.config)
	if err := classifier.LoadTemplates(f.specs); err != nil {
		return nil, err
	}
	sampler := NewVideoSampler(classifier, f.opts...)
	sampler.settings.logger.Debug("templates loaded", zap.Int("count", classifier.TemplateCount()))
	return sampler, nil
}

// CheckTemplates loads every template once and releases them
func CheckTemplates(cfg config.DetectionConfig, specs []screen.TemplateSpec) error {
	classifier := NewTemplateClassifier(cfg)
	defer classifier.Close()
	return classifier.LoadTemplates(specs)
}

// Ensure the adapters implement the domain ports
var (
	_ video.Sampler        = (*VideoSampler)(nil)
	_ video.SamplerFactory = (*SamplerFactory)(nil)
)
