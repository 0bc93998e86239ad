package timeline

import (
	"math"
	"sort"

	"gachi-analyzer/domain/screen"
)

// Merge flattens per-worker sample slices and orders them by frame index.
// The inputs are not modified.
func Merge(parts ...[]LabeledSample) []LabeledSample {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	merged := make([]LabeledSample, 0, n)
	for _, p := range parts {
		merged = append(merged, p...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FrameIndex < merged[j].FrameIndex
	})
	return merged
}

// Collapse turns frame-ordered samples into events. An event is only closed
// when the next sample carries a different label, so the run that reaches the
// end of the input is not returned. Use CollapseAll to include it.
func Collapse(samples []LabeledSample) []Event {
	events, _ := collapse(samples)
	return events
}

// CollapseAll is Collapse plus the trailing run as a final event
func CollapseAll(samples []LabeledSample) []Event {
	events, trailing := collapse(samples)
	if trailing != nil {
		events = append(events, *trailing)
	}
	return events
}

func collapse(samples []LabeledSample) ([]Event, *Event) {
	if len(samples) == 0 {
		return nil, nil
	}

	var events []Event
	first := samples[0]
	for i := 1; i < len(samples); i++ {
		if samples[i].Label == first.Label {
			continue
		}
		events = append(events, newEvent(first, samples[i-1]))
		first = samples[i]
	}

	trailing := newEvent(first, samples[len(samples)-1])
	return events, &trailing
}

func newEvent(first, last LabeledSample) Event {
	return Event{
		Label:      first.Label,
		StartTime:  first.Timestamp,
		EndTime:    last.Timestamp,
		StartFrame: first.FrameIndex,
		EndFrame:   last.FrameIndex,
	}
}

// extraction is the state carried from one event to the next while
// extracting battles.
type extraction struct {
	pendingStart float64
	hasPending   bool

	// anchor is the event preceding the last ResultUdemae screen
	anchor *Event

	// previous is the event processed just before the current one
	previous *Event

	battles []Battle
}

func (x *extraction) reset() {
	x.pendingStart, x.hasPending = 0, false
	x.anchor = nil
}

func (x *extraction) step(ev *Event) {
	switch {
	case ev.Label == screen.Loading:
		// the battle begins as soon as loading ends
		x.pendingStart, x.hasPending = ev.EndTime, true

	case ev.Label == screen.ResultUdemae:
		if x.previous != nil {
			x.anchor = x.previous
			x.pendingStart, x.hasPending = x.anchor.StartTime, true
		}

	case ev.Label == screen.ResultOkaneRank:
		start, ok := x.pendingStart, x.hasPending
		if !ok && x.anchor != nil {
			start, ok = x.anchor.StartTime, true
		}
		if ok {
			x.battles = append(x.battles, Battle{
				StartTime: start,
				Duration:  int(math.Floor(ev.EndTime) - math.Floor(start)),
			})
		}
		x.reset()

	case ev.Label.IsLobby():
		x.reset()
	}

	x.previous = ev
}

// ExtractBattles runs the battle state machine over frame-ordered events:
//
//   - Loading marks a pending start at the end of the loading screen.
//   - ResultUdemae replaces the pending start with the start of the event
//     right before it, and remembers that event as the anchor.
//   - ResultOkaneRank closes a battle from the pending start, or from the
//     anchor when no start is pending. With neither it is ignored.
//   - Lobby screens drop both the pending start and the anchor.
func ExtractBattles(events []Event) []Battle {
	var x extraction
	for i := range events {
		x.step(&events[i])
	}
	return x.battles
}
