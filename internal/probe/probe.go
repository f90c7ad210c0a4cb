package probe

import (
	"fmt"
	"math/rand"

	"axoscope/internal/model"
)

// Instrumented runs a model whose tapped sub-modules report into a shared
// capture store, and returns the captures alongside the model's own output.
//
// An instance supports one in-flight call at a time: the tap slots are
// shared mutable state, so concurrent or re-entrant calls race on them.
type Instrumented struct {
	inner model.Module
	store *captureStore
	taps  []model.Path
}

// Intermediates instruments the targets a selector picks and returns the
// aggregate model. The selector runs once, here; selection problems (bad
// indices, dangling paths) fail construction. A selector that picks nothing
// is fine — every call then reports an empty capture list.
//
// A flat *model.Sequential tapped by position is rebuilt with a single
// linear scan; any other model/selector combination goes through the
// generic immutable replace-at-path operation. Both leave the original
// model untouched.
func Intermediates(m model.Module, sel Selector) (*Instrumented, error) {
	if m == nil {
		return nil, fmt.Errorf("model is required")
	}
	if sel == nil {
		return nil, fmt.Errorf("selector is required")
	}
	if byIndex, ok := sel.(indexSelector); ok {
		return instrumentPipeline(m, byIndex)
	}
	return instrumentTree(m, sel)
}

func instrumentPipeline(root model.Module, sel indexSelector) (*Instrumented, error) {
	paths, err := sel.Select(root)
	if err != nil {
		return nil, err
	}
	seq := root.(*model.Sequential)

	store := newCaptureStore(len(paths))
	layers := make([]model.Module, len(seq.Layers))
	next := 0
	for i, layer := range seq.Layers {
		if next < len(paths) && paths[next][0] == i {
			layers[i] = &tapWrapper{inner: layer, store: store, slot: next}
			next++
			continue
		}
		layers[i] = layer
	}
	if next != len(paths) {
		return nil, fmt.Errorf("instrumented %d of %d selected positions", next, len(paths))
	}

	return &Instrumented{inner: model.NewSequential(layers...), store: store, taps: paths}, nil
}

func instrumentTree(root model.Module, sel Selector) (*Instrumented, error) {
	paths, err := sel.Select(root)
	if err != nil {
		return nil, err
	}

	store := newCaptureStore(len(paths))
	current := root
	for slot, p := range paths {
		occupant, err := model.At(current, p)
		if err != nil {
			return nil, fmt.Errorf("tap %d: %w", slot, err)
		}
		current, err = model.ReplaceAt(current, p, &tapWrapper{inner: occupant, store: store, slot: slot})
		if err != nil {
			return nil, fmt.Errorf("tap %d: %w", slot, err)
		}
	}

	return &Instrumented{inner: current, store: store, taps: paths}, nil
}

// Forward runs the instrumented model, then reads out every tap slot in
// selector order. The capture list always has one entry per tap. An entry is
// the exact output of that tap's most recent invocation; if the tap never
// ran during this call it is nil on a fresh instance or whatever the
// previous call left behind — the slots are not reset between calls.
func (m *Instrumented) Forward(x []float64, key *rand.Rand) ([]float64, [][]float64, error) {
	out, err := m.inner.Forward(x, key)
	if err != nil {
		return nil, nil, err
	}
	return out, m.store.snapshot(), nil
}

// Taps returns the instrumented locations, in capture order.
func (m *Instrumented) Taps() []model.Path {
	taps := make([]model.Path, len(m.taps))
	copy(taps, m.taps)
	return taps
}

// TapNames returns the string form of every tap location, in capture order.
func (m *Instrumented) TapNames() []string {
	names := make([]string, len(m.taps))
	for i, p := range m.taps {
		names[i] = p.String()
	}
	return names
}

// Model returns the rebuilt inner model, taps included.
func (m *Instrumented) Model() model.Module {
	return m.inner
}
