package model

import (
	"fmt"
	"math/rand"

	"axoscope/internal/nn"
)

// Linear is a fully connected layer: y = W*x + b. Weights are row-major,
// one row per output.
type Linear struct {
	Weights [][]float64
	Bias    []float64
}

func NewLinear(weights [][]float64, bias []float64) (*Linear, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("linear layer requires at least one output row")
	}
	width := len(weights[0])
	for i, row := range weights {
		if len(row) != width {
			return nil, fmt.Errorf("linear weight row %d has width %d, want %d", i, len(row), width)
		}
	}
	if bias != nil && len(bias) != len(weights) {
		return nil, fmt.Errorf("linear bias length %d does not match %d outputs", len(bias), len(weights))
	}
	return &Linear{Weights: weights, Bias: bias}, nil
}

func (l *Linear) Forward(x []float64, _ *rand.Rand) ([]float64, error) {
	if len(x) != len(l.Weights[0]) {
		return nil, fmt.Errorf("linear input width %d, want %d", len(x), len(l.Weights[0]))
	}
	out := make([]float64, len(l.Weights))
	for i, row := range l.Weights {
		sum := 0.0
		for j, w := range row {
			sum += w * x[j]
		}
		if l.Bias != nil {
			sum += l.Bias[i]
		}
		out[i] = sum
	}
	return out, nil
}

// Activation applies a registered activation function elementwise.
type Activation struct {
	Name string
}

func (a *Activation) Forward(x []float64, _ *rand.Rand) ([]float64, error) {
	return nn.Apply(a.Name, x)
}

// Scale multiplies every element by a constant factor.
type Scale struct {
	Factor float64
}

func (s *Scale) Forward(x []float64, _ *rand.Rand) ([]float64, error) {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * s.Factor
	}
	return out, nil
}

// Dropout zeroes each element with probability Rate and rescales the
// survivors by 1/(1-Rate). With a nil key it is the identity (inference
// mode). It is the one built-in layer that consumes the randomness source.
type Dropout struct {
	Rate float64
}

func (d *Dropout) Forward(x []float64, key *rand.Rand) ([]float64, error) {
	if d.Rate < 0 || d.Rate >= 1 {
		return nil, fmt.Errorf("dropout rate %v outside [0, 1)", d.Rate)
	}
	if key == nil || d.Rate == 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out, nil
	}
	scale := 1.0 / (1.0 - d.Rate)
	out := make([]float64, len(x))
	for i, v := range x {
		if key.Float64() < d.Rate {
			out[i] = 0
			continue
		}
		out[i] = v * scale
	}
	return out, nil
}

// Func wraps a plain function as a leaf module.
type Func struct {
	Name string
	Fn   func(x []float64) ([]float64, error)
}

func (f *Func) Forward(x []float64, _ *rand.Rand) ([]float64, error) {
	if f.Fn == nil {
		return nil, fmt.Errorf("func module %q has no function", f.Name)
	}
	return f.Fn(x)
}
