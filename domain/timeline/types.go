package timeline

import (
	"fmt"

	"gachi-analyzer/domain/screen"
)

// LabeledSample is the classification of a single sampled frame
type LabeledSample struct {
	// FrameIndex is the zero-based frame position in the recording
	FrameIndex int

	// Timestamp is the frame time in seconds, rounded to milliseconds
	Timestamp float64

	// Label is the recognized screen, or screen.Unknown
	Label screen.Label
}

// Event is a maximal run of consecutive samples sharing one label
type Event struct {
	Label      screen.Label
	StartTime  float64
	EndTime    float64
	StartFrame int
	EndFrame   int
}

func (e Event) String() string {
	return fmt.Sprintf("%s[%d-%d]", e.Label, e.StartFrame, e.EndFrame)
}

// Battle is one completed match found in the timeline
type Battle struct {
	// StartTime is the battle start in seconds from the beginning of the recording
	StartTime float64

	// Duration is the whole-second length of the battle including results
	Duration int
}
