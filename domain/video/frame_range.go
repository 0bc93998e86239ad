package video

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned for a frame range that selects nothing or starts below zero
	ErrInvalidRange = errors.New("invalid frame range")

	// ErrInvalidStep is returned for a sampling step below one
	ErrInvalidStep = errors.New("frame step must be at least 1")
)

// FrameRange selects frame indices Start, Start+Step, ... while below Stop
type FrameRange struct {
	Start int
	Stop  int
	Step  int
}

// Validate checks 0 <= Start < Stop and Step >= 1
func (r FrameRange) Validate() error {
	if r.Step < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidStep, r.Step)
	}
	if r.Start < 0 || r.Start >= r.Stop {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, r.Start, r.Stop)
	}
	return nil
}

// Empty reports whether the range selects no frames
func (r FrameRange) Empty() bool {
	return r.Stop <= r.Start
}

// Len returns the number of indices the range selects
func (r FrameRange) Len() int {
	if r.Empty() || r.Step < 1 {
		return 0
	}
	return (r.Stop - r.Start + r.Step - 1) / r.Step
}

// Indices returns every selected frame index in ascending order
func (r FrameRange) Indices() []int {
	n := r.Len()
	if n == 0 {
		return nil
	}
	indices := make([]int, 0, n)
	for i := r.Start; i < r.Stop; i += r.Step {
		indices = append(indices, i)
	}
	return indices
}

func (r FrameRange) String() string {
	return fmt.Sprintf("[%d, %d) step %d", r.Start, r.Stop, r.Step)
}

// Partition splits [0, total) into parts contiguous ranges of total/parts
// frames each. The last range also takes the total%parts remainder so every
// frame belongs to exactly one range. When total < parts the leading ranges
// are empty.
//
// Each range restarts its stride at its own Start, so with step > 1 the
// sampled indices are aligned per partition rather than globally.
func Partition(total, parts, step int) ([]FrameRange, error) {
	if parts < 1 {
		return nil, fmt.Errorf("partition count must be at least 1, got %d", parts)
	}
	if step < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStep, step)
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: negative frame count %d", ErrInvalidRange, total)
	}

	size := total / parts
	ranges := make([]FrameRange, 0, parts)
	for i := 0; i < parts; i++ {
		start := i * size
		stop := start + size
		if i == parts-1 {
			stop += total % parts
		}
		ranges = append(ranges, FrameRange{Start: start, Stop: stop, Step: step})
	}
	return ranges, nil
}
