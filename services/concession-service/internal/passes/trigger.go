package passes

// ZeroTrigger reports transitions of a result count into zero.
// The state before the first observation counts as non-zero.
type ZeroTrigger struct {
	prev   int
	primed bool
}

// Observe records count and reports whether it entered zero.
func (z *ZeroTrigger) Observe(count int) bool {
	fire := count == 0 && (!z.primed || z.prev != 0)
	z.prev = count
	z.primed = true
	return fire
}
