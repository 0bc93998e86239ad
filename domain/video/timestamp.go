package video

import (
	"fmt"
	"math"
)

// Timestamp represents a position in a recording in HH:MM:SS form
type Timestamp struct {
	Hours   int
	Minutes int
	Seconds int
}

// TimestampFromSeconds converts seconds to a Timestamp, dropping the fraction
func TimestampFromSeconds(sec float64) Timestamp {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	total := int(math.Floor(sec))
	return Timestamp{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// String returns the timestamp in HH:MM:SS format
func (t Timestamp) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// FrameTimestamp returns the time of a frame in seconds, rounded to
// milliseconds. A non-positive fps yields zero.
func FrameTimestamp(frameIndex int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return math.Round(float64(frameIndex)/fps*1000) / 1000
}
