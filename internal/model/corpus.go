package model

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
	"gopkg.in/yaml.v3"
)

// CorpusVersion names the training set compiled into the binary.
const CorpusVersion = "v1"

//go:embed corpus_v1.yaml
var corpusV1 []byte

// Corpus is a versioned, labelled training set.
type Corpus struct {
	Version  string                  `yaml:"version"`
	Examples []domain.LabeledExample `yaml:"examples"`
}

// LoadCorpus decodes the embedded training corpus. The returned value is a
// fresh copy; callers may not affect later loads.
func LoadCorpus() (Corpus, error) {
	return ParseCorpus(corpusV1)
}

// ParseCorpus decodes and validates a YAML corpus.
func ParseCorpus(data []byte) (Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Corpus{}, fmt.Errorf("decode corpus: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Corpus{}, err
	}
	return c, nil
}

// Validate checks that the corpus is usable for training.
func (c Corpus) Validate() error {
	if c.Version == "" {
		return errors.New("corpus: version is required")
	}
	if len(c.Examples) < 2 {
		return fmt.Errorf("corpus %s: need at least 2 examples, got %d", c.Version, len(c.Examples))
	}
	for i, ex := range c.Examples {
		if !ex.Condition.Valid() {
			return fmt.Errorf("corpus %s: example %d has invalid condition %d", c.Version, i, int(ex.Condition))
		}
	}
	return nil
}

// Matrix splits the corpus into feature rows and ordinal labels.
func (c Corpus) Matrix() ([]domain.Features, []domain.Tier) {
	x := make([]domain.Features, len(c.Examples))
	y := make([]domain.Tier, len(c.Examples))
	for i, ex := range c.Examples {
		x[i] = ex.Features()
		y[i] = ex.Condition
	}
	return x, y
}
