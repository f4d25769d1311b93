package model

import (
	"math/rand/v2"
	"sort"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
)

// node is a CART decision node. Leaves carry the majority class of the
// training samples that reached them.
type node struct {
	leaf      bool
	class     domain.Tier
	feature   int
	threshold float64
	left      *node // x[feature] <= threshold
	right     *node
}

func (n *node) predict(x domain.Features) domain.Tier {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.class
}

func (n *node) depth() int {
	if n.leaf {
		return 0
	}
	return 1 + max(n.left.depth(), n.right.depth())
}

// treeBuilder grows one fully expanded tree using Gini impurity. At every
// node it draws features in random order and keeps the best split among the
// first maxFeatures that can split at all.
type treeBuilder struct {
	x           []domain.Features
	y           []domain.Tier
	maxFeatures int
	rng         *rand.Rand
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) build(idx []int) *node {
	counts := b.classCounts(idx)
	if len(idx) < 2 || isPure(counts) {
		return &node{leaf: true, class: majority(counts)}
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		return &node{leaf: true, class: majority(counts)}
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		left:      b.build(left),
		right:     b.build(right),
	}
}

func (b *treeBuilder) bestSplit(idx []int) (split, bool) {
	best := split{impurity: 2}
	found := false
	evaluated := 0

	for _, f := range b.rng.Perm(domain.NumFeatures) {
		s, ok := b.bestSplitOn(idx, f)
		if !ok {
			continue
		}
		evaluated++
		if !found || s.impurity < best.impurity {
			best = s
			found = true
		}
		if evaluated >= b.maxFeatures {
			break
		}
	}
	return best, found
}

// bestSplitOn scans midpoints between consecutive distinct values of feature f.
func (b *treeBuilder) bestSplitOn(idx []int, f int) (split, bool) {
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.SliceStable(sorted, func(i, j int) bool {
		return b.x[sorted[i]][f] < b.x[sorted[j]][f]
	})

	var left, right [domain.NumTiers]int
	for _, i := range sorted {
		right[b.y[i]]++
	}

	n := len(sorted)
	best := split{feature: f, impurity: 2}
	found := false
	for k := 1; k < n; k++ {
		prev := sorted[k-1]
		left[b.y[prev]]++
		right[b.y[prev]]--

		lo, hi := b.x[prev][f], b.x[sorted[k]][f]
		if lo == hi {
			continue
		}

		impurity := (float64(k)*gini(left, k) + float64(n-k)*gini(right, n-k)) / float64(n)
		if !found || impurity < best.impurity {
			threshold := lo + (hi-lo)/2
			if threshold >= hi {
				threshold = lo
			}
			best.threshold = threshold
			best.impurity = impurity
			found = true
		}
	}
	return best, found
}

func (b *treeBuilder) classCounts(idx []int) [domain.NumTiers]int {
	var counts [domain.NumTiers]int
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func gini(counts [domain.NumTiers]int, total int) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		g -= p * p
	}
	return g
}

func isPure(counts [domain.NumTiers]int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// majority returns the most frequent class; ties go to the lower tier.
func majority(counts [domain.NumTiers]int) domain.Tier {
	best := 0
	for c := 1; c < len(counts); c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return domain.Tier(best)
}
