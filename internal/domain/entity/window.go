package entity

import "time"

// Window is a half-open reservation interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Normalize returns the window in UTC on whole seconds, so stored values
// compare consistently across drivers. Start rounds down and End rounds up:
// the normalized window always covers the requested one, and against stored
// whole-second windows it overlaps exactly what the requested one overlaps.
func (w Window) Normalize() Window {
	start := w.Start.UTC().Truncate(time.Second)
	end := w.End.UTC()
	if truncated := end.Truncate(time.Second); truncated.Before(end) {
		end = truncated.Add(time.Second)
	}
	return Window{Start: start, End: end}
}

// IsValid reports whether Start is strictly before End.
func (w Window) IsValid() bool {
	return w.Start.Before(w.End)
}

// Overlaps uses open-interval semantics: touching endpoints do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Key is the normalized value guarded by the per-doctor unique index on
// active appointments. Two BOOKED windows with the same start always overlap.
func (w Window) Key() string {
	return w.Normalize().Start.Format(time.RFC3339)
}
