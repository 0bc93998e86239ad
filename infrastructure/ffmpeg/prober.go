package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gachi-analyzer/domain/video"
)

// Prober implements video.Prober using ffprobe
type Prober struct {
	ffprobePath string
	runner      CommandRunner
}

// ProberOption is a functional option for configuring Prober
type ProberOption func(*Prober)

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		if strings.TrimSpace(path) != "" {
			p.ffprobePath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// NewProber creates a new ffprobe-based prober
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	RFrameRate    string `json:"r_frame_rate"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	NBFrames      string `json:"nb_frames"`
	NBReadPackets string `json:"nb_read_packets"`
}

// Probe implements video.Prober. Packets are counted rather than trusting
// the container header, which is often missing for screen recordings.
func (p *Prober) Probe(ctx context.Context, videoPath string) (video.Info, error) {
	if strings.TrimSpace(videoPath) == "" {
		return video.Info{}, errors.New("ffprobe: empty path")
	}

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames,nb_read_packets",
		"-of", "json",
		videoPath,
	}

	out, err := p.runner.Output(ctx, p.ffprobePath, args...)
	if err != nil {
		return video.Info{}, fmt.Errorf("%w %s: ffprobe failed: %v", video.ErrOpenVideo, videoPath, err)
	}

	return parseProbe(out)
}

func parseProbe(out []byte) (video.Info, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return video.Info{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return video.Info{}, errors.New("ffprobe: no video stream found")
	}
	s := parsed.Streams[0]

	fps := parseRate(s.RFrameRate)
	if fps <= 0 {
		fps = parseRate(s.AvgFrameRate)
	}
	if fps <= 0 {
		return video.Info{}, fmt.Errorf("ffprobe: unusable frame rate %q", s.RFrameRate)
	}

	frames := parseCount(s.NBReadPackets)
	if frames <= 0 {
		frames = parseCount(s.NBFrames)
	}
	if frames <= 0 {
		return video.Info{}, errors.New("ffprobe: frame count unavailable")
	}

	return video.Info{
		FrameCount: frames,
		FPS:        fps,
		Width:      s.Width,
		Height:     s.Height,
	}, nil
}

// parseRate parses ffprobe rationals such as "30000/1001" or plain numbers
func parseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseCount(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

// VerifyInstalled checks that ffprobe is available
func (p *Prober) VerifyInstalled(ctx context.Context) error {
	_, err := p.runner.Output(ctx, p.ffprobePath, "-version")
	if err != nil {
		return fmt.Errorf("ffprobe not found or not executable: %w", err)
	}
	return nil
}

// Ensure Prober implements video.Prober
var _ video.Prober = (*Prober)(nil)
