package schema

// EventSink receives ordered, one-directional progress notifications from an
// install run. Implementations must not block for long; the install runs on a
// single worker and every sink call happens inline between install steps.
//
// A nil-safe no-op implementation is [NopSink], for headless operation.
type EventSink interface {
	// Status replaces the one-line status text.
	Status(text string)

	// Percent reports overall install progress in the range 0-100.
	Percent(pct int)

	// Busy toggles an indeterminate-progress phase (e.g. a download with an
	// unknown total size).
	Busy(on bool)
}

// NopSink is an [EventSink] that discards all notifications.
type NopSink struct{}

// Status implements [EventSink].
func (NopSink) Status(string) {}

// Percent implements [EventSink].
func (NopSink) Percent(int) {}

// Busy implements [EventSink].
func (NopSink) Busy(bool) {}
