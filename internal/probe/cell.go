// Package probe wraps selected sub-modules of a composed model so their
// outputs are recorded during a forward pass and reported alongside the
// model's own output. Instrumenting never changes what the model computes.
package probe

// captureStore holds one slot per tapped location, indexed by the order the
// selector enumerated the targets. A write unconditionally overwrites the
// slot; only the most recent write within a pass survives. A nil slot means
// the tapped sub-module has not run since the store was created.
type captureStore struct {
	slots [][]float64
}

func newCaptureStore(n int) *captureStore {
	return &captureStore{slots: make([][]float64, n)}
}

func (s *captureStore) update(slot int, value []float64) {
	s.slots[slot] = value
}

func (s *captureStore) snapshot() [][]float64 {
	out := make([][]float64, len(s.slots))
	copy(out, s.slots)
	return out
}
