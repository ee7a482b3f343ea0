package overtone

// PartialOf exposes the registered partial itself, so tests can exercise the
// Partial layer directly, bypassing the Instrument's clamping.
func PartialOf(ins *Instrument, degree int) *Partial { return ins.partials[degree] }
