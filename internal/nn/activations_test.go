package nn

import (
	"errors"
	"math"
	"testing"
)

func TestBuiltInActivations(t *testing.T) {
	tests := []struct {
		name  string
		act   string
		x     float64
		want  float64
		delta float64
	}{
		{name: "identity", act: "identity", x: 2.5, want: 2.5, delta: 1e-9},
		{name: "relu-negative", act: "relu", x: -1, want: 0, delta: 1e-9},
		{name: "relu-positive", act: "relu", x: 3, want: 3, delta: 1e-9},
		{name: "tanh-zero", act: "tanh", x: 0, want: 0, delta: 1e-9},
		{name: "sigmoid-zero", act: "sigmoid", x: 0, want: 0.5, delta: 1e-9},
		{name: "sin-zero", act: "sin", x: 0, want: 0, delta: 1e-9},
		{name: "gaussian-zero", act: "gaussian", x: 0, want: 1, delta: 1e-9},
		{name: "gaussian-one", act: "gaussian", x: 1, want: math.Exp(-1), delta: 1e-9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fn, err := GetActivation(tc.act)
			if err != nil {
				t.Fatalf("get activation: %v", err)
			}
			got := fn(tc.x)
			if math.Abs(got-tc.want) > tc.delta {
				t.Fatalf("unexpected value: got=%f want=%f", got, tc.want)
			}
		})
	}
}

func TestGetActivationUnknown(t *testing.T) {
	_, err := GetActivation("does-not-exist")
	if !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got %v", err)
	}
}

func TestRegisterActivationDuplicate(t *testing.T) {
	defer resetActivationRegistryForTests()

	if err := RegisterActivation("custom", func(x float64) float64 { return x * 2 }); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := RegisterActivation("custom", func(x float64) float64 { return x })
	if !errors.Is(err, ErrActivationExists) {
		t.Fatalf("expected ErrActivationExists, got %v", err)
	}
}

func TestRegisterActivationValidation(t *testing.T) {
	if err := RegisterActivation("", func(x float64) float64 { return x }); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := RegisterActivation("nilfn", nil); err == nil {
		t.Fatal("expected error for nil function")
	}
}

func TestListActivationsSorted(t *testing.T) {
	names := ListActivations()
	if len(names) == 0 {
		t.Fatal("expected built-in activations")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestApply(t *testing.T) {
	out, err := Apply("relu", []float64{-2, 0, 3})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := []float64{0, 0, 3}
	if len(out) != len(want) {
		t.Fatalf("unexpected length: %d", len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("unexpected output at %d: got=%f want=%f", i, out[i], want[i])
		}
	}
}

func TestApplyUnknownActivation(t *testing.T) {
	if _, err := Apply("missing", []float64{1}); err == nil {
		t.Fatal("expected error for unknown activation")
	}
}
