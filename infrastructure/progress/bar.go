package progress

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/domain/video"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Bar renders sampling progress on a terminal. It is safe for concurrent use
// by several samplers.
type Bar struct {
	writer io.Writer
	bar    atomic.Pointer[progressbar.ProgressBar]
}

// New creates a progress bar writing to w
func New(w io.Writer) *Bar {
	return &Bar{writer: w}
}

// Enabled reports whether w is an interactive terminal
func Enabled(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Start begins a new bar for total frames
func (b *Bar) Start(total int) {
	b.bar.Store(progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.writer),
		progressbar.OptionSetDescription("      Sampling"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	))
}

// Finish completes and clears the current bar
func (b *Bar) Finish() {
	bar := b.bar.Swap(nil)
	if bar == nil {
		return
	}
	_ = bar.Finish()
}

// FrameSampled implements video.FrameObserver
func (b *Bar) FrameSampled(screen.Label) {
	b.advance()
}

// FrameSkipped implements video.FrameObserver
func (b *Bar) FrameSkipped(int) {
	b.advance()
}

func (b *Bar) advance() {
	if bar := b.bar.Load(); bar != nil {
		_ = bar.Add(1)
	}
}

// Ensure Bar implements video.FrameObserver
var _ video.FrameObserver = (*Bar)(nil)
