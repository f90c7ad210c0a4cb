package probe

import (
	"fmt"
	"sort"

	"axoscope/internal/model"
)

// Selector identifies the sub-modules to tap. It is applied exactly once,
// when the model is instrumented; the order of the returned paths fixes the
// order captures are reported in.
type Selector interface {
	Select(root model.Module) ([]model.Path, error)
}

// ByIndex selects positions in a flat Sequential pipeline. Positions are
// canonicalized to ascending order, so captures come back in pipeline order.
// Duplicate or out-of-range positions are configuration errors.
func ByIndex(indices ...int) Selector {
	return indexSelector{indices: indices}
}

type indexSelector struct {
	indices []int
}

func (s indexSelector) Select(root model.Module) ([]model.Path, error) {
	seq, ok := root.(*model.Sequential)
	if !ok {
		return nil, fmt.Errorf("index selection requires a *model.Sequential root, got %T", root)
	}

	sorted := append([]int(nil), s.indices...)
	sort.Ints(sorted)
	paths := make([]model.Path, 0, len(sorted))
	for i, idx := range sorted {
		if idx < 0 || idx >= len(seq.Layers) {
			return nil, fmt.Errorf("index %d out of range for pipeline of %d layers", idx, len(seq.Layers))
		}
		if i > 0 && idx == sorted[i-1] {
			return nil, fmt.Errorf("duplicate index: %d", idx)
		}
		paths = append(paths, model.Path{idx})
	}
	return paths, nil
}

// ByPath selects explicit structural locations in an arbitrary module tree,
// in the order given. Paths are validated against the tree at instrumentation
// time; duplicates are allowed and tap independently.
func ByPath(paths ...model.Path) Selector {
	return pathSelector{paths: paths}
}

type pathSelector struct {
	paths []model.Path
}

func (s pathSelector) Select(root model.Module) ([]model.Path, error) {
	out := make([]model.Path, len(s.paths))
	for i, p := range s.paths {
		if _, err := model.At(root, p); err != nil {
			return nil, fmt.Errorf("selector path %s: %w", p, err)
		}
		out[i] = append(model.Path(nil), p...)
	}
	return out, nil
}

// ByType selects every sub-module of the given concrete type, in
// depth-first pre-order.
func ByType[T model.Module]() Selector {
	return Where(func(_ model.Path, m model.Module) bool {
		_, ok := m.(T)
		return ok
	})
}

// Where selects every module the predicate matches, in depth-first
// pre-order. The root itself is never selected; wrapping the whole model
// would just duplicate its output.
func Where(match func(path model.Path, m model.Module) bool) Selector {
	return predicateSelector{match: match}
}

type predicateSelector struct {
	match func(path model.Path, m model.Module) bool
}

func (s predicateSelector) Select(root model.Module) ([]model.Path, error) {
	if s.match == nil {
		return nil, fmt.Errorf("predicate selector requires a match function")
	}
	var paths []model.Path
	model.Walk(root, func(path model.Path, m model.Module) {
		if len(path) == 0 {
			return
		}
		if s.match(path, m) {
			paths = append(paths, path)
		}
	})
	return paths, nil
}
