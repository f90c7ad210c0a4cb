package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec describes a model as data, for loading from configuration files.
type Spec struct {
	Name  string    `json:"name" yaml:"name"`
	Model LayerSpec `json:"model" yaml:"model"`
}

// LayerSpec describes one module. Type selects the module kind; the other
// fields apply only to the kinds that use them.
type LayerSpec struct {
	Type       string      `json:"type" yaml:"type"`
	Activation string      `json:"activation,omitempty" yaml:"activation,omitempty"`
	Factor     float64     `json:"factor,omitempty" yaml:"factor,omitempty"`
	Rate       float64     `json:"rate,omitempty" yaml:"rate,omitempty"`
	Times      int         `json:"times,omitempty" yaml:"times,omitempty"`
	Threshold  float64     `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Weights    [][]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	Bias       []float64   `json:"bias,omitempty" yaml:"bias,omitempty"`
	Layers     []LayerSpec `json:"layers,omitempty" yaml:"layers,omitempty"`
	Body       *LayerSpec  `json:"body,omitempty" yaml:"body,omitempty"`
}

// LoadSpec reads a model spec from a JSON or YAML file, chosen by extension.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, err
	}

	var spec Spec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return Spec{}, fmt.Errorf("parse yaml spec %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &spec); err != nil {
			return Spec{}, fmt.Errorf("parse json spec %s: %w", path, err)
		}
	}
	return spec, nil
}

// Build constructs the module tree a spec describes.
func Build(spec Spec) (Module, error) {
	return buildLayer(spec.Model)
}

func buildLayer(spec LayerSpec) (Module, error) {
	switch spec.Type {
	case "sequential":
		layers := make([]Module, 0, len(spec.Layers))
		for i, child := range spec.Layers {
			built, err := buildLayer(child)
			if err != nil {
				return nil, fmt.Errorf("sequential layer %d: %w", i, err)
			}
			layers = append(layers, built)
		}
		return NewSequential(layers...), nil
	case "linear":
		return NewLinear(spec.Weights, spec.Bias)
	case "activation":
		if spec.Activation == "" {
			return nil, fmt.Errorf("activation layer requires an activation name")
		}
		return &Activation{Name: spec.Activation}, nil
	case "scale":
		return &Scale{Factor: spec.Factor}, nil
	case "dropout":
		if spec.Rate < 0 || spec.Rate >= 1 {
			return nil, fmt.Errorf("dropout rate %v outside [0, 1)", spec.Rate)
		}
		return &Dropout{Rate: spec.Rate}, nil
	case "residual":
		body, err := buildBody(spec, "residual")
		if err != nil {
			return nil, err
		}
		return &Residual{Body: body}, nil
	case "repeat":
		if spec.Times < 1 {
			return nil, fmt.Errorf("repeat times %d, want >= 1", spec.Times)
		}
		body, err := buildBody(spec, "repeat")
		if err != nil {
			return nil, err
		}
		return &Repeat{Body: body, Times: spec.Times}, nil
	case "gate":
		body, err := buildBody(spec, "gate")
		if err != nil {
			return nil, err
		}
		return &Gate{Body: body, Threshold: spec.Threshold}, nil
	case "":
		return nil, fmt.Errorf("layer type is required")
	default:
		return nil, fmt.Errorf("unsupported layer type: %s", spec.Type)
	}
}

func buildBody(spec LayerSpec, kind string) (Module, error) {
	if spec.Body == nil {
		return nil, fmt.Errorf("%s layer requires a body", kind)
	}
	body, err := buildLayer(*spec.Body)
	if err != nil {
		return nil, fmt.Errorf("%s body: %w", kind, err)
	}
	return body, nil
}
