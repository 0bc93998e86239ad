package timeline

// Organizer reconstructs events and battles from sampled frame labels
type Organizer struct {
	flushTrailing bool
}

// OrganizerOption is a functional option for configuring Organizer
type OrganizerOption func(*Organizer)

// WithTrailingRunFlush makes the organizer keep the run of samples that
// reaches the end of the input as a final event. Off by default, in which
// case a battle whose result screen is still showing when the recording
// stops is not reported.
func WithTrailingRunFlush(enabled bool) OrganizerOption {
	return func(o *Organizer) {
		o.flushTrailing = enabled
	}
}

// NewOrganizer creates a new Organizer
func NewOrganizer(opts ...OrganizerOption) *Organizer {
	o := &Organizer{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result holds everything derived from one set of samples
type Result struct {
	Samples []LabeledSample
	Events  []Event
	Battles []Battle
}

// Organize merges the per-worker samples and extracts events and battles
func (o *Organizer) Organize(parts ...[]LabeledSample) Result {
	samples := Merge(parts...)

	var events []Event
	if o.flushTrailing {
		events = CollapseAll(samples)
	} else {
		events = Collapse(samples)
	}

	return Result{
		Samples: samples,
		Events:  events,
		Battles: ExtractBattles(events),
	}
}
