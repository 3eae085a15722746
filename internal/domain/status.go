package domain

// Status is derived from an entry, never stored.
type Status int

const (
	StatusActive Status = iota
	StatusDropped
	StatusFinished
)

// Status returns finished when the known episode max is reached, dropped
// when flagged, active otherwise.
func (e Entry) Status() Status {
	if e.EpisodeMax > 0 && e.Progress == e.EpisodeMax {
		return StatusFinished
	}
	if e.Dropped {
		return StatusDropped
	}
	return StatusActive
}

// Glyph is the marker renderers put in front of a title.
// Active entries have none.
func (s Status) Glyph() string {
	switch s {
	case StatusFinished:
		return "✅"
	case StatusDropped:
		return "❌"
	default:
		return ""
	}
}

func (s Status) String() string {
	switch s {
	case StatusFinished:
		return "finished"
	case StatusDropped:
		return "dropped"
	default:
		return "active"
	}
}
