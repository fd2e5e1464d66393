// Package classifier evaluates the pre-trained subtype suggestion model.
//
// The model artifact is a JSON export of a decision forest. Each tree is a flat
// node table; a node with Left == -1 is a leaf whose Value holds per-class
// weights. Internal nodes send a sample left when x[Feature] <= Threshold.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrUnavailable     = errors.New("classifier unavailable")
	ErrFeatureMismatch = errors.New("feature vector does not match model")
)

const leaf = -1

type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is immutable once loaded and safe for concurrent use.
type Forest struct {
	Classes  []string `json:"classes"`
	Features []string `json:"features"`
	Trees    []Tree   `json:"trees"`
}

// LoadFile reads and validates a forest artifact from disk.
func LoadFile(path string) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Forest, error) {
	var forest Forest
	if err := json.NewDecoder(r).Decode(&forest); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := forest.validate(); err != nil {
		return nil, err
	}
	return &forest, nil
}

func (f *Forest) validate() error {
	if len(f.Classes) == 0 {
		return errors.New("model has no classes")
	}
	if len(f.Features) == 0 {
		return errors.New("model has no features")
	}
	if len(f.Trees) == 0 {
		return errors.New("model has no trees")
	}
	for t, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for n, node := range tree.Nodes {
			if node.Left == leaf {
				if len(node.Value) != len(f.Classes) {
					return fmt.Errorf("tree %d leaf %d has %d class weights, want %d", t, n, len(node.Value), len(f.Classes))
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= len(f.Features) {
				return fmt.Errorf("tree %d node %d references feature %d", t, n, node.Feature)
			}
			if !inRange(node.Left, len(tree.Nodes)) || !inRange(node.Right, len(tree.Nodes)) {
				return fmt.Errorf("tree %d node %d has child out of range", t, n)
			}
		}
	}
	return nil
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}

// Predict returns the class with the largest summed leaf weight across trees.
// Ties resolve to the class listed first.
func (f *Forest) Predict(features []float64) (string, error) {
	if f == nil {
		return "", ErrUnavailable
	}
	if len(features) != len(f.Features) {
		return "", fmt.Errorf("%w: got %d values, want %d", ErrFeatureMismatch, len(features), len(f.Features))
	}

	votes := make([]float64, len(f.Classes))
	for t := range f.Trees {
		weights, err := f.Trees[t].evaluate(features)
		if err != nil {
			return "", fmt.Errorf("tree %d: %w", t, err)
		}
		total := 0.0
		for _, w := range weights {
			total += w
		}
		if total == 0 {
			continue
		}
		for c, w := range weights {
			votes[c] += w / total
		}
	}

	best := 0
	for c := range votes {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return f.Classes[best], nil
}

func (t *Tree) evaluate(features []float64) ([]float64, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.Left == leaf {
			return node.Value, nil
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return nil, errors.New("cycle detected")
}
