// Command evaluate trains the severity model the way the service does and
// checks it against the corpus and the reference scenarios. It prints the
// holdout split, per-row votes and a pass/fail line per check phase.
//
// Usage:
//
//	go run ./cmd/evaluate -estimators 100 -seed 42
//	go run ./cmd/evaluate -corpus testdata/corpus_v2.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
	"github.com/couchcryptid/drainage-monitor/internal/model"
)

// scenario is a reading with a known expected severity.
type scenario struct {
	name    string
	reading domain.Reading
	want    domain.Tier
}

var scenarios = []scenario{
	{name: "calm", reading: domain.Reading{Gas: 300, WaterSpeed: 0.5, WaterLevel: 10, GPSLocation: 1}, want: domain.Stable},
	{name: "storm surge", reading: domain.Reading{Gas: 800, WaterSpeed: 2.0, WaterLevel: 35, GPSLocation: 6}, want: domain.Critical},
}

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	defaults := model.DefaultParams()
	estimators := flag.Int("estimators", defaults.Estimators, "number of trees in the ensemble")
	seed := flag.Uint64("seed", defaults.Seed, "training seed")
	corpusPath := flag.String("corpus", "", "YAML corpus file (defaults to the embedded corpus)")
	flag.Parse()

	params := defaults
	params.Estimators = *estimators
	params.Seed = *seed

	if code := run(os.Stdout, *corpusPath, params); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, corpusPath string, params model.Params) int {
	corpus, err := loadCorpus(corpusPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load corpus: %v\n", err)
		return 1
	}

	fmt.Fprintln(w, "=== Drainage Severity Model Evaluation ===")
	fmt.Fprintf(w, "Corpus %s: %d examples, %d trees, seed %d\n\n",
		corpus.Version, len(corpus.Examples), params.Estimators, params.Seed)

	forest, eval, err := model.Train(corpus, params)
	if err != nil {
		fmt.Fprintf(w, "FATAL: train: %v\n", err)
		return 1
	}

	fmt.Fprintf(w, "Train rows:   %v\n", eval.TrainRows)
	fmt.Fprintf(w, "Holdout rows: %v\n", eval.HoldoutRows)
	if math.IsNaN(eval.HoldoutAccuracy) {
		fmt.Fprintln(w, "Holdout accuracy: n/a (empty holdout)")
	} else {
		fmt.Fprintf(w, "Holdout accuracy: %d/%d (%.2f)\n",
			eval.HoldoutCorrect, len(eval.HoldoutRows), eval.HoldoutAccuracy)
	}
	fmt.Fprintf(w, "Deepest tree: %d\n\n", forest.MaxDepth())

	fmt.Fprintln(w, "Corpus votes (Stable/Caution/Critical):")
	for i, ex := range corpus.Examples {
		votes := forest.Votes(ex.Features())
		got, _ := forest.Predict(ex.Features())
		mark := " "
		if got != ex.Condition {
			mark = "*"
		}
		fmt.Fprintf(w, " %s [%d] %-42s label=%-8s predicted=%-8s votes=%v\n",
			mark, i, formatReading(ex.Reading), ex.Condition, got, votes)
	}
	fmt.Fprintln(w)

	phases := []*phase{
		checkScenarios(forest),
		checkThresholds(),
		checkDeterminism(corpus, params, forest),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(w, "\nEvaluation FAILED.")
	return 1
}

func loadCorpus(path string) (model.Corpus, error) {
	if path == "" {
		return model.LoadCorpus()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Corpus{}, err
	}
	return model.ParseCorpus(data)
}

// ── Phases ──

func checkScenarios(forest *model.Forest) *phase {
	p := &phase{name: "Reference scenarios"}
	for _, s := range scenarios {
		got, err := forest.Predict(s.reading.Features())
		if err != nil {
			p.errorf("%s: %v", s.name, err)
			continue
		}
		if got != s.want {
			p.errorf("%s %s: predicted %s, want %s (votes %v)",
				s.name, formatReading(s.reading), got, s.want, forest.Votes(s.reading.Features()))
		}
	}
	return p
}

// checkThresholds verifies the per-channel rules agree with the scenario
// severity on every channel.
func checkThresholds() *phase {
	p := &phase{name: "Threshold classification"}
	for _, s := range scenarios {
		for _, status := range domain.ClassifySensors(s.reading) {
			if status.Tier != s.want {
				p.errorf("%s: %s classified %s, want %s", s.name, status.Channel, status.Tier, s.want)
			}
		}
	}
	return p
}

func checkDeterminism(corpus model.Corpus, params model.Params, forest *model.Forest) *phase {
	p := &phase{name: "Reproducible training"}
	again, _, err := model.Train(corpus, params)
	if err != nil {
		p.errorf("retrain: %v", err)
		return p
	}
	probes := make([]domain.Features, 0, len(corpus.Examples)+len(scenarios))
	for _, ex := range corpus.Examples {
		probes = append(probes, ex.Features())
	}
	for _, s := range scenarios {
		probes = append(probes, s.reading.Features())
	}
	for _, x := range probes {
		if a, b := forest.Votes(x), again.Votes(x); a != b {
			p.errorf("votes differ for %v: %v vs %v", x, a, b)
		}
	}
	return p
}

func formatReading(r domain.Reading) string {
	return fmt.Sprintf("(gas=%g speed=%g level=%g loc=%d)", r.Gas, r.WaterSpeed, r.WaterLevel, r.GPSLocation)
}
