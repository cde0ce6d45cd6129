package scoring

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

const leafNode = -1

// decisionTree is one fitted tree in array form. Node 0 is the root.
type decisionTree struct {
	left      []int
	right     []int
	feature   []int
	threshold []float64
	// dist holds the normalized class distribution of each leaf
	dist [][2]float64
}

// RandomForest averages the class distributions of its trees
type RandomForest struct {
	nFeatures int
	classes   [2]int
	trees     []decisionTree
}

type treeExport struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type forestExport struct {
	NFeatures int          `json:"n_features"`
	Classes   []int        `json:"classes"`
	Trees     []treeExport `json:"trees"`
}

// ParseRandomForest decodes and validates the JSON forest export
func ParseRandomForest(data []byte) (*RandomForest, error) {
	var export forestExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if export.NFeatures <= 0 {
		return nil, fmt.Errorf("forest must declare n_features > 0")
	}
	if len(export.Classes) != 2 {
		return nil, fmt.Errorf("forest must have exactly 2 classes, got %d", len(export.Classes))
	}
	if len(export.Trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}

	rf := &RandomForest{
		nFeatures: export.NFeatures,
		classes:   [2]int{export.Classes[0], export.Classes[1]},
		trees:     make([]decisionTree, len(export.Trees)),
	}
	for i, t := range export.Trees {
		tree, err := buildTree(t, export.NFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		rf.trees[i] = tree
	}
	return rf, nil
}

func buildTree(t treeExport, nFeatures int) (decisionTree, error) {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return decisionTree{}, fmt.Errorf("no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return decisionTree{}, fmt.Errorf("node arrays differ in length")
	}

	tree := decisionTree{
		left:      t.ChildrenLeft,
		right:     t.ChildrenRight,
		feature:   t.Feature,
		threshold: t.Threshold,
		dist:      make([][2]float64, n),
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leafNode {
			if r != leafNode {
				return decisionTree{}, fmt.Errorf("node %d has only one child", i)
			}
			if len(t.Value[i]) != 2 {
				return decisionTree{}, fmt.Errorf("leaf %d has %d class values", i, len(t.Value[i]))
			}
			sum := floats.Sum(t.Value[i])
			if sum <= 0 || t.Value[i][0] < 0 || t.Value[i][1] < 0 {
				return decisionTree{}, fmt.Errorf("leaf %d has an invalid class distribution", i)
			}
			tree.dist[i] = [2]float64{t.Value[i][0] / sum, t.Value[i][1] / sum}
			continue
		}
		// children always follow their parent, which also rules out cycles
		if l <= i || l >= n || r <= i || r >= n {
			return decisionTree{}, fmt.Errorf("node %d has out-of-range children", i)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return decisionTree{}, fmt.Errorf("node %d splits on unknown feature %d", i, f)
		}
	}
	return tree, nil
}

// leaf walks x down to a leaf. Features are compared at float32 precision,
// matching how the trees were fitted.
func (t *decisionTree) leaf(x []float64) int {
	node := 0
	for t.left[node] != leafNode {
		if float64(float32(x[t.feature[node]])) <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return node
}

// NumFeatures returns the expected vector length
func (rf *RandomForest) NumFeatures() int {
	return rf.nFeatures
}

// NumTrees returns the size of the ensemble
func (rf *RandomForest) NumTrees() int {
	return len(rf.trees)
}

// PredictProba returns the mean leaf distribution across all trees
func (rf *RandomForest) PredictProba(x []float64) ([2]float64, error) {
	if len(x) != rf.nFeatures {
		return [2]float64{}, fmt.Errorf("forest expects %d features, got %d", rf.nFeatures, len(x))
	}
	var proba [2]float64
	for i := range rf.trees {
		d := rf.trees[i].dist[rf.trees[i].leaf(x)]
		proba[0] += d[0]
		proba[1] += d[1]
	}
	n := float64(len(rf.trees))
	proba[0] /= n
	proba[1] /= n
	return proba, nil
}

// Predict returns the class label with the highest probability, the first on ties
func (rf *RandomForest) Predict(x []float64) (int, error) {
	proba, err := rf.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if proba[1] > proba[0] {
		return rf.classes[1], nil
	}
	return rf.classes[0], nil
}
