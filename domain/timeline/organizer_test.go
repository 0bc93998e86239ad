package timeline

import (
	"math/rand"
	"testing"

	"gachi-analyzer/domain/screen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(frame int, ts float64, label screen.Label) LabeledSample {
	return LabeledSample{FrameIndex: frame, Timestamp: ts, Label: label}
}

func TestMerge(t *testing.T) {
	t.Run("orders samples from all workers by frame", func(t *testing.T) {
		second := []LabeledSample{sample(30, 1.5, screen.ResultOkaneRank), sample(40, 2.0, screen.LobbyStandby)}
		first := []LabeledSample{sample(0, 0, screen.LobbyStandby), sample(10, 0.5, screen.Loading), sample(20, 1.0, screen.Unknown)}

		merged := Merge(second, first)

		require.Len(t, merged, 5)
		for i, want := range []int{0, 10, 20, 30, 40} {
			assert.Equal(t, want, merged[i].FrameIndex)
		}
		assert.Equal(t, 30, second[0].FrameIndex, "input must not be reordered")
	})

	t.Run("is idempotent", func(t *testing.T) {
		in := []LabeledSample{sample(9, 0.9, ""), sample(3, 0.3, screen.Loading), sample(6, 0.6, "")}
		once := Merge(in)
		assert.Equal(t, once, Merge(once))
	})

	t.Run("no input", func(t *testing.T) {
		assert.Empty(t, Merge())
		assert.Empty(t, Merge(nil, nil))
	})

	t.Run("frame indices strictly increase for disjoint partitions", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		var parts [][]LabeledSample
		for p := 0; p < 4; p++ {
			var part []LabeledSample
			for f := p * 25; f < (p+1)*25; f += 2 {
				part = append(part, sample(f, float64(f)/10, ""))
			}
			parts = append(parts, part)
		}
		rng.Shuffle(len(parts), func(i, j int) { parts[i], parts[j] = parts[j], parts[i] })

		merged := Merge(parts...)
		for i := 1; i < len(merged); i++ {
			assert.Less(t, merged[i-1].FrameIndex, merged[i].FrameIndex)
		}
	})
}

func TestCollapse(t *testing.T) {
	t.Run("closes runs on label change", func(t *testing.T) {
		samples := []LabeledSample{
			sample(0, 0.0, screen.LobbyStandby),
			sample(10, 0.5, screen.LobbyStandby),
			sample(20, 1.0, screen.Loading),
			sample(30, 1.5, screen.Loading),
			sample(40, 2.0, screen.Loading),
			sample(50, 2.5, screen.Unknown),
		}

		events := Collapse(samples)

		assert.Equal(t, []Event{
			{Label: screen.LobbyStandby, StartTime: 0, EndTime: 0.5, StartFrame: 0, EndFrame: 10},
			{Label: screen.Loading, StartTime: 1.0, EndTime: 2.0, StartFrame: 20, EndFrame: 40},
		}, events)
	})

	t.Run("trailing run is dropped", func(t *testing.T) {
		// Only a label change closes an event, so the last run never does.
		samples := []LabeledSample{
			sample(0, 0, screen.Loading),
			sample(1, 1, screen.ResultOkaneRank),
			sample(2, 2, screen.ResultOkaneRank),
		}

		events := Collapse(samples)

		require.Len(t, events, 1)
		assert.Equal(t, screen.Loading, events[0].Label)
	})

	t.Run("single run yields no events", func(t *testing.T) {
		samples := []LabeledSample{sample(0, 0, screen.LobbyStandby), sample(1, 1, screen.LobbyStandby)}
		assert.Empty(t, Collapse(samples))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Collapse(nil))
		assert.Empty(t, CollapseAll(nil))
	})

	t.Run("CollapseAll keeps the trailing run", func(t *testing.T) {
		samples := []LabeledSample{
			sample(0, 0, screen.Loading),
			sample(1, 1, screen.ResultOkaneRank),
			sample(2, 2, screen.ResultOkaneRank),
		}

		events := CollapseAll(samples)

		require.Len(t, events, 2)
		assert.Equal(t, Event{Label: screen.ResultOkaneRank, StartTime: 1, EndTime: 2, StartFrame: 1, EndFrame: 2}, events[1])
	})
}

func TestCollapseLaws(t *testing.T) {
	labels := []screen.Label{screen.Unknown, screen.Loading, screen.LobbyStandby, screen.ResultUdemae, screen.ResultOkaneRank}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		samples := make([]LabeledSample, n)
		for i := range samples {
			samples[i] = sample(i*3, float64(i)*0.1, labels[rng.Intn(len(labels))])
		}

		all := CollapseAll(samples)
		events := Collapse(samples)

		if n == 0 {
			assert.Empty(t, all)
			continue
		}
		require.Len(t, events, len(all)-1, "only the trailing run may be missing")
		assert.Equal(t, all[:len(all)-1], append([]Event{}, events...))

		next := 0
		for i, ev := range all {
			assert.LessOrEqual(t, ev.StartFrame, ev.EndFrame)
			assert.LessOrEqual(t, ev.StartTime, ev.EndTime)
			if i > 0 {
				assert.NotEqual(t, all[i-1].Label, ev.Label, "adjacent events must differ")
				assert.Greater(t, ev.StartFrame, all[i-1].EndFrame, "events must not overlap")
			}
			for next < n && samples[next].FrameIndex <= ev.EndFrame {
				assert.Equal(t, ev.Label, samples[next].Label)
				next++
			}
		}
		assert.Equal(t, n, next, "every sample belongs to an event")
	}
}

func TestExtractBattles(t *testing.T) {
	organize := func(samples ...LabeledSample) Result {
		return NewOrganizer().Organize(samples)
	}

	t.Run("loading then result", func(t *testing.T) {
		res := organize(
			sample(0, 0.0, screen.LobbyStandby),
			sample(10, 0.5, screen.Loading),
			sample(20, 1.0, screen.Unknown),
			sample(30, 1.5, screen.ResultOkaneRank),
			sample(40, 2.0, screen.LobbyStandby),
		)

		assert.Equal(t, []Event{
			{Label: screen.LobbyStandby, StartTime: 0, EndTime: 0, StartFrame: 0, EndFrame: 0},
			{Label: screen.Loading, StartTime: 0.5, EndTime: 0.5, StartFrame: 10, EndFrame: 10},
			{Label: screen.Unknown, StartTime: 1.0, EndTime: 1.0, StartFrame: 20, EndFrame: 20},
			{Label: screen.ResultOkaneRank, StartTime: 1.5, EndTime: 1.5, StartFrame: 30, EndFrame: 30},
		}, res.Events)
		assert.Equal(t, []Battle{{StartTime: 0.5, Duration: 1}}, res.Battles)
	})

	t.Run("recording starts mid-battle", func(t *testing.T) {
		res := organize(
			sample(0, 0.0, screen.Unknown),
			sample(300, 10.0, screen.Unknown),
			sample(600, 20.0, screen.ResultUdemae),
			sample(900, 30.0, screen.ResultOkaneRank),
			sample(1200, 40.0, screen.Unknown),
		)

		assert.Equal(t, []Battle{{StartTime: 0.0, Duration: 30}}, res.Battles)
	})

	t.Run("result without any start is skipped", func(t *testing.T) {
		res := organize(
			sample(0, 0, screen.ResultOkaneRank),
			sample(10, 1, screen.Unknown),
			sample(20, 2, screen.LobbyStandby),
		)

		require.NotEmpty(t, res.Events)
		assert.Equal(t, screen.ResultOkaneRank, res.Events[0].Label)
		assert.Empty(t, res.Battles)
	})

	t.Run("lobby abandons a pending battle", func(t *testing.T) {
		res := organize(
			sample(0, 0, screen.Loading),
			sample(10, 5, screen.LobbyFindBattle),
			sample(20, 10, screen.Unknown),
			sample(30, 15, screen.ResultOkaneRank),
			sample(40, 20, screen.Unknown),
		)

		assert.Empty(t, res.Battles)
	})

	t.Run("lobby then fresh anchor", func(t *testing.T) {
		res := organize(
			sample(0, 0, screen.Loading),
			sample(10, 5, screen.LobbyModeSelect),
			sample(20, 10, screen.Unknown),
			sample(30, 100, screen.ResultUdemae),
			sample(40, 110, screen.ResultOkaneRank),
			sample(50, 120, screen.ResultContinue),
		)

		assert.Equal(t, []Battle{{StartTime: 10, Duration: 100}}, res.Battles)
	})

	t.Run("udemae overrides the loading start", func(t *testing.T) {
		res := organize(
			sample(0, 0.0, screen.Loading),
			sample(1, 2.0, screen.Loading),
			sample(2, 3.0, screen.Unknown),
			sample(3, 50.0, screen.Unknown),
			sample(4, 60.0, screen.ResultUdemae),
			sample(5, 70.9, screen.ResultOkaneRank),
			sample(6, 80.0, screen.ResultContinue),
		)

		assert.Equal(t, []Battle{{StartTime: 3.0, Duration: 67}}, res.Battles)
	})

	t.Run("udemae as first event has no anchor", func(t *testing.T) {
		res := organize(
			sample(0, 0, screen.ResultUdemae),
			sample(1, 1, screen.ResultOkaneRank),
			sample(2, 2, screen.Unknown),
		)

		assert.Empty(t, res.Battles)
	})

	t.Run("loading ending at zero still counts as a start", func(t *testing.T) {
		res := organize(
			sample(0, 0, screen.Loading),
			sample(1, 0.5, screen.Unknown),
			sample(2, 12.7, screen.ResultOkaneRank),
			sample(3, 13.0, screen.ResultContinue),
		)

		assert.Equal(t, []Battle{{StartTime: 0, Duration: 12}}, res.Battles)
	})

	t.Run("duration floors both ends", func(t *testing.T) {
		res := organize(
			sample(0, 0.9, screen.Loading),
			sample(1, 1.5, screen.Unknown),
			sample(2, 2.1, screen.ResultOkaneRank),
			sample(3, 2.2, screen.Unknown),
		)

		assert.Equal(t, []Battle{{StartTime: 0.9, Duration: 2}}, res.Battles)
	})

	t.Run("okane rank end time is the end of its run", func(t *testing.T) {
		res := organize(
			sample(0, 1, screen.Loading),
			sample(1, 2, screen.ResultOkaneRank),
			sample(2, 9.5, screen.ResultOkaneRank),
			sample(3, 10, screen.Unknown),
		)

		assert.Equal(t, []Battle{{StartTime: 1, Duration: 8}}, res.Battles)
	})

	t.Run("a closed battle does not leak its start", func(t *testing.T) {
		res := organize(
			sample(0, 0, screen.Loading),
			sample(1, 10, screen.ResultOkaneRank),
			sample(2, 20, screen.Unknown),
			sample(3, 30, screen.ResultOkaneRank),
			sample(4, 40, screen.Unknown),
		)

		assert.Equal(t, []Battle{{StartTime: 0, Duration: 10}}, res.Battles)
	})

	t.Run("battles are reported in order", func(t *testing.T) {
		res := organize(
			sample(0, 0, screen.LobbyFindBattle),
			sample(1, 10, screen.Loading),
			sample(2, 20, screen.Unknown),
			sample(3, 200, screen.ResultUdemae),
			sample(4, 210, screen.ResultOkaneRank),
			sample(5, 220, screen.LobbyFindBattle),
			sample(6, 300, screen.Loading),
			sample(7, 310, screen.Unknown),
			sample(8, 500, screen.ResultOkaneRank),
			sample(9, 505, screen.LobbyStandby),
		)

		assert.Equal(t, []Battle{
			{StartTime: 20, Duration: 190},
			{StartTime: 300, Duration: 200},
		}, res.Battles)
	})

	t.Run("no events", func(t *testing.T) {
		assert.Empty(t, ExtractBattles(nil))
	})
}

func TestOrganizer(t *testing.T) {
	endsOnResult := []LabeledSample{
		sample(0, 0, screen.Loading),
		sample(30, 1, screen.Unknown),
		sample(60, 2, screen.ResultOkaneRank),
		sample(90, 3, screen.ResultOkaneRank),
	}

	t.Run("battle still on screen at the end is not reported", func(t *testing.T) {
		res := NewOrganizer().Organize(endsOnResult)
		assert.Empty(t, res.Battles)
	})

	t.Run("trailing flush reports it", func(t *testing.T) {
		res := NewOrganizer(WithTrailingRunFlush(true)).Organize(endsOnResult)
		assert.Equal(t, []Battle{{StartTime: 0, Duration: 3}}, res.Battles)
	})

	t.Run("is a pure function of its input", func(t *testing.T) {
		a := []LabeledSample{sample(40, 2.0, screen.LobbyStandby), sample(30, 1.5, screen.ResultOkaneRank)}
		b := []LabeledSample{sample(0, 0, screen.LobbyStandby), sample(10, 0.5, screen.Loading), sample(20, 1.0, "")}

		o := NewOrganizer()
		first := o.Organize(a, b)
		second := o.Organize(a, b)
		again := o.Organize(first.Samples)

		assert.Equal(t, first, second)
		assert.Equal(t, first.Events, again.Events)
		assert.Equal(t, first.Battles, again.Battles)
	})
}
