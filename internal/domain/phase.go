package domain

// Phase represents one time-boxed, independently priced tranche of sellable
// token supply. Phases are append-mostly: created by an admin action,
// mutated only by Sold increments, never deleted.
type Phase struct {
	Index       int    // position in the registry, assigned on creation
	UnitPrice   uint64 // price per whole token unit, smallest base-currency denomination
	Supply      uint64 // max token units sellable in this phase
	Sold        uint64 // cumulative token units sold, Sold <= Supply
	WindowStart int64  // Unix timestamp in milliseconds, inclusive
	WindowEnd   int64  // Unix timestamp in milliseconds, inclusive
}

// Remaining returns the unsold token units of the phase.
func (p *Phase) Remaining() uint64 {
	if p.Sold >= p.Supply {
		return 0
	}
	return p.Supply - p.Sold
}

// Active reports whether the phase can serve a purchase at the given time.
func (p *Phase) Active(nowMs int64) bool {
	return p.WindowStart <= nowMs && nowMs <= p.WindowEnd && p.Sold < p.Supply
}

// Overlaps reports whether the phase window intersects [start, end].
func (p *Phase) Overlaps(start, end int64) bool {
	return start <= p.WindowEnd && p.WindowStart <= end
}
