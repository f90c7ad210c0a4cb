package probe

import (
	"fmt"
	"math/rand"

	"axoscope/internal/model"
)

// tapWrapper substitutes for exactly one sub-module. It delegates the call
// unchanged (input, randomness source and all), records the result in its
// slot, and returns the result as-is, so inserting it is observationally
// transparent apart from the capture.
type tapWrapper struct {
	inner model.Module
	store *captureStore
	slot  int
}

func (w *tapWrapper) Forward(x []float64, key *rand.Rand) ([]float64, error) {
	out, err := w.inner.Forward(x, key)
	if err != nil {
		return nil, err
	}
	w.store.update(w.slot, out)
	return out, nil
}

// A wrapper stays traversable so paths running through a tapped location
// keep resolving after instrumentation.
func (w *tapWrapper) Children() []model.Module {
	return []model.Module{w.inner}
}

func (w *tapWrapper) WithChildren(children []model.Module) (model.Module, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("tap rebuild with %d children, want 1", len(children))
	}
	return &tapWrapper{inner: children[0], store: w.store, slot: w.slot}, nil
}
