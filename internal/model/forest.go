// Package model trains and serves the drainage severity classifier: a bagged
// ensemble of CART trees fit once at startup on the embedded corpus.
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
)

// Params controls training. The zero value is not usable; start from DefaultParams.
type Params struct {
	Estimators      int     // number of trees
	Seed            uint64  // drives the holdout split, bootstraps and feature draws
	MaxFeatures     int     // features considered per split; 0 means floor(sqrt(NumFeatures))
	HoldoutFraction float64 // share of the corpus kept out of training for offline accuracy
}

// DefaultParams returns the production training parameters.
func DefaultParams() Params {
	return Params{
		Estimators:      100,
		Seed:            42,
		HoldoutFraction: 0.2,
	}
}

func (p Params) validate() error {
	if p.Estimators < 1 {
		return fmt.Errorf("estimators must be positive, got %d", p.Estimators)
	}
	if p.MaxFeatures < 0 || p.MaxFeatures > domain.NumFeatures {
		return fmt.Errorf("max features must be in [0, %d], got %d", domain.NumFeatures, p.MaxFeatures)
	}
	if p.HoldoutFraction < 0 || p.HoldoutFraction >= 1 {
		return fmt.Errorf("holdout fraction must be in [0, 1), got %v", p.HoldoutFraction)
	}
	return nil
}

func (p Params) maxFeatures() int {
	if p.MaxFeatures > 0 {
		return p.MaxFeatures
	}
	return max(1, int(math.Sqrt(domain.NumFeatures)))
}

// Forest is an immutable trained ensemble. It is safe for concurrent Predict
// calls because nothing writes to it after Fit returns.
type Forest struct {
	trees []*node
}

// Fit grows one tree per estimator, each on a bootstrap sample of (x, y).
func Fit(x []domain.Features, y []domain.Tier, params Params) (*Forest, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("fit: need matching non-empty inputs, got %d rows and %d labels", len(x), len(y))
	}
	for i, label := range y {
		if !label.Valid() {
			return nil, fmt.Errorf("fit: row %d has invalid label %d", i, int(label))
		}
	}

	master := rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15))
	n := len(x)
	trees := make([]*node, params.Estimators)
	for t := range trees {
		rng := rand.New(rand.NewPCG(master.Uint64(), master.Uint64()))
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		b := &treeBuilder{x: x, y: y, maxFeatures: params.maxFeatures(), rng: rng}
		trees[t] = b.build(sample)
	}

	return &Forest{trees: trees}, nil
}

// Predict returns the majority vote of the ensemble.
func (f *Forest) Predict(x domain.Features) (domain.Tier, error) {
	if f == nil || len(f.trees) == 0 {
		return 0, domain.ErrModelNotReady
	}
	return majority(f.Votes(x)), nil
}

// Votes counts the per-tier predictions of every tree.
func (f *Forest) Votes(x domain.Features) [domain.NumTiers]int {
	var votes [domain.NumTiers]int
	if f == nil {
		return votes
	}
	for _, t := range f.trees {
		votes[t.predict(x)]++
	}
	return votes
}

// Size is the number of trees in the ensemble.
func (f *Forest) Size() int {
	if f == nil {
		return 0
	}
	return len(f.trees)
}

// MaxDepth is the depth of the deepest tree.
func (f *Forest) MaxDepth() int {
	d := 0
	if f == nil {
		return d
	}
	for _, t := range f.trees {
		d = max(d, t.depth())
	}
	return d
}

// Evaluation describes a training run. Holdout accuracy is informational and
// never consulted at inference time.
type Evaluation struct {
	CorpusVersion   string
	TrainRows       []int
	HoldoutRows     []int
	HoldoutCorrect  int
	HoldoutAccuracy float64 // NaN when the holdout set is empty
}

// Train splits the corpus, fits the ensemble on the training rows and scores
// the held-out rows.
func Train(c Corpus, params Params) (*Forest, Evaluation, error) {
	if err := c.Validate(); err != nil {
		return nil, Evaluation{}, err
	}
	if err := params.validate(); err != nil {
		return nil, Evaluation{}, err
	}

	x, y := c.Matrix()
	trainRows, holdoutRows := holdoutSplit(len(x), params.HoldoutFraction, params.Seed)
	if len(trainRows) == 0 {
		return nil, Evaluation{}, errors.New("train: holdout split left no training rows")
	}

	trainX := make([]domain.Features, len(trainRows))
	trainY := make([]domain.Tier, len(trainRows))
	for i, r := range trainRows {
		trainX[i] = x[r]
		trainY[i] = y[r]
	}

	forest, err := Fit(trainX, trainY, params)
	if err != nil {
		return nil, Evaluation{}, fmt.Errorf("train: %w", err)
	}

	eval := Evaluation{
		CorpusVersion:   c.Version,
		TrainRows:       trainRows,
		HoldoutRows:     holdoutRows,
		HoldoutAccuracy: math.NaN(),
	}
	for _, r := range holdoutRows {
		if got, _ := forest.Predict(x[r]); got == y[r] {
			eval.HoldoutCorrect++
		}
	}
	if len(holdoutRows) > 0 {
		eval.HoldoutAccuracy = float64(eval.HoldoutCorrect) / float64(len(holdoutRows))
	}

	return forest, eval, nil
}

// holdoutSplit shuffles row indices with a seeded generator and reserves
// ceil(fraction*n) rows for evaluation, always leaving at least one for training.
func holdoutSplit(n int, fraction float64, seed uint64) (train, holdout []int) {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	perm := rng.Perm(n)

	k := int(math.Ceil(fraction * float64(n)))
	if k >= n {
		k = n - 1
	}
	holdout = append([]int(nil), perm[:k]...)
	train = append([]int(nil), perm[k:]...)
	sort.Ints(holdout)
	sort.Ints(train)
	return train, holdout
}
