package forest

import (
	"math/rand"
	"sort"
)

const leaf = -1

// Node is one node of a regression tree. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int32   `json:"l,omitempty"`
	Right     int32   `json:"r,omitempty"`
	Value     float64 `json:"v"`
	Samples   int     `json:"n"`
}

// Tree is a regression tree stored as a flat node array, root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks x down to a leaf.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = int(n.Left)
		} else {
			i = int(n.Right)
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return d
		}
		return max(walk(int(n.Left), d+1), walk(int(n.Right), d+1))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0, 0)
}

// builder grows one tree.
type builder struct {
	cfg        Config
	X          [][]float64
	y          []float64
	rng        *rand.Rand
	nFeatures  int
	nodes      []Node
	importance []float64
}

func growTree(cfg Config, X [][]float64, y []float64, idx []int, rng *rand.Rand) (Tree, []float64) {
	b := &builder{
		cfg:        cfg,
		X:          X,
		y:          y,
		rng:        rng,
		nFeatures:  len(X[0]),
		importance: make([]float64, len(X[0])),
	}
	b.grow(idx, 0)
	return Tree{Nodes: b.nodes}, b.importance
}

type split struct {
	feature   int
	threshold float64
	pos       int // idx[:pos] goes left once sorted by feature
	gain      float64
}

func (b *builder) grow(idx []int, depth int) int32 {
	id := int32(len(b.nodes))
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	b.nodes = append(b.nodes, Node{Feature: leaf, Value: sum / n, Samples: len(idx)})

	sse := sumSq - sum*sum/n
	if len(idx) < b.cfg.MinSamplesSplit ||
		len(idx) < 2*b.cfg.MinSamplesLeaf ||
		(b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) ||
		sse <= 1e-12 {
		return id
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}

	sortByFeature(b.X, idx, best.feature)
	left := append([]int(nil), idx[:best.pos]...)
	right := append([]int(nil), idx[best.pos:]...)
	b.importance[best.feature] += best.gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].Feature = best.feature
	b.nodes[id].Threshold = best.threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit maximizes the reduction in squared error over a random subset of
// MaxFeatures features.
func (b *builder) bestSplit(idx []int, sum float64) (split, bool) {
	n := float64(len(idx))
	parent := sum * sum / n
	minLeaf := b.cfg.MinSamplesLeaf

	features := b.rng.Perm(b.nFeatures)
	if m := b.cfg.MaxFeatures; m > 0 && m < b.nFeatures {
		features = features[:m]
	}

	var best split
	found := false
	work := append([]int(nil), idx...)
	for _, f := range features {
		sortByFeature(b.X, work, f)
		leftSum := 0.0
		for k := 0; k < len(work)-1; k++ {
			leftSum += b.y[work[k]]
			nl := k + 1
			nr := len(work) - nl
			if nl < minLeaf {
				continue
			}
			if nr < minLeaf {
				break
			}
			v, next := b.X[work[k]][f], b.X[work[k+1]][f]
			if v == next {
				continue
			}
			rightSum := sum - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - parent
			if !found || gain > best.gain {
				t := v + (next-v)/2
				if t >= next {
					t = v
				}
				best = split{feature: f, threshold: t, pos: nl, gain: gain}
				found = true
			}
		}
	}
	if !found || best.gain <= 1e-12 {
		return split{}, false
	}
	return best, true
}

func sortByFeature(X [][]float64, idx []int, f int) {
	sort.SliceStable(idx, func(a, b int) bool {
		return X[idx[a]][f] < X[idx[b]][f]
	})
}
