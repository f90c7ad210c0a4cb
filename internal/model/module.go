// Package model holds the composed-model abstraction: callable modules,
// composite tree structure, and immutable locate/replace operations over it.
package model

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Module is one callable unit of a composed model. The randomness source is
// optional; modules that do not consume randomness must ignore a nil key and
// must not advance a non-nil one.
type Module interface {
	Forward(x []float64, key *rand.Rand) ([]float64, error)
}

// Composite is implemented by modules built from ordered sub-modules.
// WithChildren returns a rebuilt copy with the given sub-modules substituted;
// the receiver is never modified. The replacement list must have the same
// length as Children.
type Composite interface {
	Module
	Children() []Module
	WithChildren(children []Module) (Module, error)
}

// Path addresses one sub-module inside a composite tree as a sequence of
// child indices from the root. The empty path addresses the root itself.
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, "/")
}

// ParsePath parses the String form of a path ("." or "0/2/1").
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}
	if s == "." {
		return Path{}, nil
	}
	parts := strings.Split(s, "/")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid path element %q: %w", part, err)
		}
		if idx < 0 {
			return nil, fmt.Errorf("negative path element: %d", idx)
		}
		path = append(path, idx)
	}
	return path, nil
}

// At returns the sub-module addressed by path.
func At(root Module, path Path) (Module, error) {
	current := root
	for depth, idx := range path {
		composite, ok := current.(Composite)
		if !ok {
			return nil, fmt.Errorf("path %s: module %T at depth %d has no children", path, current, depth)
		}
		children := composite.Children()
		if idx < 0 || idx >= len(children) {
			return nil, fmt.Errorf("path %s: index %d out of range at depth %d (have %d children)", path, idx, depth, len(children))
		}
		current = children[idx]
	}
	return current, nil
}

// ReplaceAt returns a copy of the tree with the sub-module at path replaced.
// Every composite along the path is rebuilt; nothing else changes.
func ReplaceAt(root Module, path Path, replacement Module) (Module, error) {
	if len(path) == 0 {
		return replacement, nil
	}

	composite, ok := root.(Composite)
	if !ok {
		return nil, fmt.Errorf("path %s: module %T has no children", path, root)
	}
	children := composite.Children()
	idx := path[0]
	if idx < 0 || idx >= len(children) {
		return nil, fmt.Errorf("path %s: index %d out of range (have %d children)", path, idx, len(children))
	}

	child, err := ReplaceAt(children[idx], path[1:], replacement)
	if err != nil {
		return nil, err
	}
	rebuilt := make([]Module, len(children))
	copy(rebuilt, children)
	rebuilt[idx] = child
	return composite.WithChildren(rebuilt)
}

// ReplaceAll applies the replacements one path at a time, in order. Later
// paths see the partially rebuilt tree, so overlapping paths compose instead
// of clobbering each other.
func ReplaceAll(root Module, paths []Path, replacements []Module) (Module, error) {
	if len(paths) != len(replacements) {
		return nil, fmt.Errorf("path count %d does not match replacement count %d", len(paths), len(replacements))
	}
	current := root
	for i := range paths {
		next, err := ReplaceAt(current, paths[i], replacements[i])
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// Walk visits every module in the tree in depth-first pre-order, the root
// first. The visit order is deterministic: children in declaration order.
func Walk(root Module, visit func(path Path, m Module)) {
	walk(root, Path{}, visit)
}

func walk(m Module, path Path, visit func(path Path, m Module)) {
	visit(path, m)
	composite, ok := m.(Composite)
	if !ok {
		return
	}
	for i, child := range composite.Children() {
		childPath := make(Path, len(path)+1)
		copy(childPath, path)
		childPath[len(path)] = i
		walk(child, childPath, visit)
	}
}
