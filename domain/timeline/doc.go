// Package timeline rebuilds what happened in a recording from per-frame
// screen labels.
//
// Samples coming from parallel workers are merged by frame index, collapsed
// into events (runs of one label) and fed to a small state machine that
// recovers the start time and duration of each battle. The package is pure:
// the same samples always yield the same events and battles.
package timeline
