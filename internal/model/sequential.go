package model

import (
	"fmt"
	"math/rand"
)

// Sequential is the flat ordered pipeline: each layer's output feeds the
// next layer's input.
type Sequential struct {
	Layers []Module
}

func NewSequential(layers ...Module) *Sequential {
	return &Sequential{Layers: layers}
}

func (s *Sequential) Forward(x []float64, key *rand.Rand) ([]float64, error) {
	current := x
	for i, layer := range s.Layers {
		out, err := layer.Forward(current, key)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		current = out
	}
	return current, nil
}

func (s *Sequential) Children() []Module {
	children := make([]Module, len(s.Layers))
	copy(children, s.Layers)
	return children
}

func (s *Sequential) WithChildren(children []Module) (Module, error) {
	if len(children) != len(s.Layers) {
		return nil, fmt.Errorf("sequential rebuild with %d layers, want %d", len(children), len(s.Layers))
	}
	layers := make([]Module, len(children))
	copy(layers, children)
	return &Sequential{Layers: layers}, nil
}

// Residual adds its body's output to the input: y = x + body(x).
type Residual struct {
	Body Module
}

func (r *Residual) Forward(x []float64, key *rand.Rand) ([]float64, error) {
	out, err := r.Body.Forward(x, key)
	if err != nil {
		return nil, err
	}
	if len(out) != len(x) {
		return nil, fmt.Errorf("residual body produced width %d, want %d", len(out), len(x))
	}
	sum := make([]float64, len(x))
	for i := range x {
		sum[i] = x[i] + out[i]
	}
	return sum, nil
}

func (r *Residual) Children() []Module {
	return []Module{r.Body}
}

func (r *Residual) WithChildren(children []Module) (Module, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("residual rebuild with %d children, want 1", len(children))
	}
	return &Residual{Body: children[0]}, nil
}

// Repeat applies its body Times times in a row, feeding each output back in.
// The same body instance runs every iteration.
type Repeat struct {
	Body  Module
	Times int
}

func (r *Repeat) Forward(x []float64, key *rand.Rand) ([]float64, error) {
	if r.Times < 1 {
		return nil, fmt.Errorf("repeat times %d, want >= 1", r.Times)
	}
	current := x
	for i := 0; i < r.Times; i++ {
		out, err := r.Body.Forward(current, key)
		if err != nil {
			return nil, fmt.Errorf("repeat iteration %d: %w", i, err)
		}
		current = out
	}
	return current, nil
}

func (r *Repeat) Children() []Module {
	return []Module{r.Body}
}

func (r *Repeat) WithChildren(children []Module) (Module, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("repeat rebuild with %d children, want 1", len(children))
	}
	return &Repeat{Body: children[0], Times: r.Times}, nil
}

// Gate runs its body only when the first input element is at or above
// Threshold; otherwise the input passes through untouched and the body is
// never invoked. Used to model data-dependent branching.
type Gate struct {
	Body      Module
	Threshold float64
}

func (g *Gate) Forward(x []float64, key *rand.Rand) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("gate requires a non-empty input")
	}
	if x[0] < g.Threshold {
		out := make([]float64, len(x))
		copy(out, x)
		return out, nil
	}
	return g.Body.Forward(x, key)
}

func (g *Gate) Children() []Module {
	return []Module{g.Body}
}

func (g *Gate) WithChildren(children []Module) (Module, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("gate rebuild with %d children, want 1", len(children))
	}
	return &Gate{Body: children[0], Threshold: g.Threshold}, nil
}
