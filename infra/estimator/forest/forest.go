// Package forest evaluates a regression-tree ensemble exported from a trained
// random forest. Each tree uses the flat array layout of scikit-learn's
// tree_ attribute: node i splits on feature[i] at threshold[i], going to
// children_left[i] when x <= threshold and to children_right[i] otherwise.
// Leaves have both children set to -1 and carry their prediction in value[i].
package forest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/deliveryeta/core/features"
	"github.com/kilianp07/deliveryeta/core/prediction"
)

const leaf = -1

// Tree is one regression tree.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// Model is the serialized ensemble.
type Model struct {
	Version   string `json:"version"`
	NFeatures int    `json:"n_features"`
	Trees     []Tree `json:"trees"`
}

// Estimator averages the outputs of all trees. It is immutable and safe for
// concurrent use.
type Estimator struct {
	version   string
	nFeatures int
	trees     []Tree
}

// Load reads and validates a model file.
func Load(path string) (*Estimator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open forest model: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes and validates a model document.
func Parse(r io.Reader) (*Estimator, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode forest model: %w", err)
	}
	return New(m)
}

// New validates m and returns an Estimator for it.
func New(m Model) (*Estimator, error) {
	if m.NFeatures != features.Size {
		return nil, fmt.Errorf("forest model expects %d features, vectors have %d", m.NFeatures, features.Size)
	}
	if len(m.Trees) == 0 {
		return nil, errors.New("forest model has no trees")
	}
	for i, t := range m.Trees {
		if err := t.validate(m.NFeatures); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Estimator{version: m.Version, nFeatures: m.NFeatures, trees: m.Trees}, nil
}

// validate checks array lengths and that children always point forward so
// evaluation terminates.
func (t Tree) validate(nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leaf && r == leaf {
			continue
		}
		if l == leaf || r == leaf {
			return fmt.Errorf("node %d has a single child", i)
		}
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, l, r)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("node %d splits on unknown feature %d", i, f)
		}
	}
	return nil
}

func (t Tree) eval(v features.Vector) float64 {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if v[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// Predict returns the mean of the tree outputs for v.
func (e *Estimator) Predict(ctx context.Context, v features.Vector) (float64, error) {
	if err := prediction.CheckShape(v, e.nFeatures); err != nil {
		return 0, err
	}
	outs := make([]float64, len(e.trees))
	for i, t := range e.trees {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		outs[i] = t.eval(v)
	}
	return stat.Mean(outs, nil), nil
}

// Version returns the version recorded in the model file.
func (e *Estimator) Version() string { return e.version }

// Trees returns the number of trees in the ensemble.
func (e *Estimator) Trees() int { return len(e.trees) }

// Write encodes m as JSON.
func Write(w io.Writer, m Model) error {
	return json.NewEncoder(w).Encode(m)
}
