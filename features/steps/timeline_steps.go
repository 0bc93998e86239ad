//go:build integration

package steps

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"gachi-analyzer/domain/screen"
	"gachi-analyzer/domain/timeline"

	"github.com/cucumber/godog"
)

type timelineContext struct {
	samples       []timeline.LabeledSample
	parts         [][]timeline.LabeledSample
	flushTrailing bool
	result        timeline.Result
}

// SharedTimelineContext is reset before each scenario via Before hook
var SharedTimelineContext *timelineContext

func getTimelineContext() *timelineContext {
	return SharedTimelineContext
}

func InitializeTimelineScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedTimelineContext = &timelineContext{}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedTimelineContext = nil
		return c, nil
	})

	ctx.Step(`^the sampled frames:$`, theSampledFrames)
	ctx.Step(`^the samples arrive from (\d+) workers in reverse order$`, theSamplesArriveFromWorkersInReverseOrder)
	ctx.Step(`^trailing run flush is enabled$`, trailingRunFlushIsEnabled)
	ctx.Step(`^the timeline is organized$`, theTimelineIsOrganized)
	ctx.Step(`^the events are:$`, theEventsAre)
	ctx.Step(`^the battles are:$`, theBattlesAre)
	ctx.Step(`^no battles are found$`, noBattlesAreFound)
	ctx.Step(`^organizing again gives the same result$`, organizingAgainGivesTheSameResult)
}

func theSampledFrames(table *godog.Table) error {
	t := getTimelineContext()
	for i, row := range table.Rows[1:] {
		if len(row.Cells) != 3 {
			return fmt.Errorf("row %d: expected 3 columns, got %d", i+1, len(row.Cells))
		}
		frame, err := strconv.Atoi(row.Cells[0].Value)
		if err != nil {
			return fmt.Errorf("row %d: invalid frame: %w", i+1, err)
		}
		ts, err := strconv.ParseFloat(row.Cells[1].Value, 64)
		if err != nil {
			return fmt.Errorf("row %d: invalid time: %w", i+1, err)
		}
		label, err := screen.ParseLabel(row.Cells[2].Value)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		t.samples = append(t.samples, timeline.LabeledSample{FrameIndex: frame, Timestamp: ts, Label: label})
	}
	t.parts = [][]timeline.LabeledSample{t.samples}
	return nil
}

func theSamplesArriveFromWorkersInReverseOrder(workers int) error {
	t := getTimelineContext()
	if workers < 1 {
		return fmt.Errorf("need at least one worker, got %d", workers)
	}

	size := (len(t.samples) + workers - 1) / workers
	var parts [][]timeline.LabeledSample
	for start := 0; start < len(t.samples); start += size {
		end := min(start+size, len(t.samples))
		parts = append([][]timeline.LabeledSample{t.samples[start:end]}, parts...)
	}
	t.parts = parts
	return nil
}

func trailingRunFlushIsEnabled() error {
	getTimelineContext().flushTrailing = true
	return nil
}

func (t *timelineContext) organize() timeline.Result {
	return timeline.NewOrganizer(timeline.WithTrailingRunFlush(t.flushTrailing)).Organize(t.parts...)
}

func theTimelineIsOrganized() error {
	t := getTimelineContext()
	t.result = t.organize()
	return nil
}

func theEventsAre(table *godog.Table) error {
	t := getTimelineContext()
	rows := table.Rows[1:]
	if len(rows) != len(t.result.Events) {
		return fmt.Errorf("expected %d events, got %d: %v", len(rows), len(t.result.Events), t.result.Events)
	}

	for i, row := range rows {
		label, err := screen.ParseLabel(row.Cells[0].Value)
		if err != nil {
			return err
		}
		start, err := strconv.ParseFloat(row.Cells[1].Value, 64)
		if err != nil {
			return err
		}
		end, err := strconv.ParseFloat(row.Cells[2].Value, 64)
		if err != nil {
			return err
		}
		startFrame, err := strconv.Atoi(row.Cells[3].Value)
		if err != nil {
			return err
		}
		endFrame, err := strconv.Atoi(row.Cells[4].Value)
		if err != nil {
			return err
		}

		want := timeline.Event{Label: label, StartTime: start, EndTime: end, StartFrame: startFrame, EndFrame: endFrame}
		if got := t.result.Events[i]; got != want {
			return fmt.Errorf("event %d: expected %+v, got %+v", i, want, got)
		}
	}
	return nil
}

func theBattlesAre(table *godog.Table) error {
	t := getTimelineContext()
	rows := table.Rows[1:]
	if len(rows) != len(t.result.Battles) {
		return fmt.Errorf("expected %d battles, got %d: %+v", len(rows), len(t.result.Battles), t.result.Battles)
	}

	for i, row := range rows {
		start, err := strconv.ParseFloat(row.Cells[0].Value, 64)
		if err != nil {
			return err
		}
		duration, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return err
		}

		want := timeline.Battle{StartTime: start, Duration: duration}
		if got := t.result.Battles[i]; got != want {
			return fmt.Errorf("battle %d: expected %+v, got %+v", i, want, got)
		}
	}
	return nil
}

func noBattlesAreFound() error {
	t := getTimelineContext()
	if len(t.result.Battles) != 0 {
		return fmt.Errorf("expected no battles, got %+v", t.result.Battles)
	}
	return nil
}

func organizingAgainGivesTheSameResult() error {
	t := getTimelineContext()
	again := t.organize()
	if !reflect.DeepEqual(again, t.result) {
		return fmt.Errorf("second run differs: %+v vs %+v", again, t.result)
	}
	return nil
}
