package detection

import (
	"errors"

	"gachi-analyzer/domain/video"

	"go.uber.org/zap"
)

// ErrUnavailable is returned by the stub build when OpenCV support is not compiled in
var ErrUnavailable = errors.New("detection not available: build with '-tags=detection' and install OpenCV/GoCV")

// SamplerOption is a functional option for configuring samplers
type SamplerOption func(*samplerSettings)

type samplerSettings struct {
	logger   *zap.Logger
	observer video.FrameObserver
}

// WithLogger sets the logger used for per-frame diagnostics
func WithLogger(logger *zap.Logger) SamplerOption {
	return func(s *samplerSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers an observer notified for every visited frame
func WithObserver(observer video.FrameObserver) SamplerOption {
	return func(s *samplerSettings) {
		s.observer = observer
	}
}

func newSamplerSettings(opts []SamplerOption) samplerSettings {
	s := samplerSettings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
