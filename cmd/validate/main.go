// Command validate performs integrity checks on a risk score snapshot before
// it is shipped to the service: key shape, context labels, score ranges, and
// metadata consistency.
//
// Usage:
//
//	go run ./cmd/validate -snapshot data/risk_scores.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/viaseguro/roadrisk/internal/domain"
	"github.com/viaseguro/roadrisk/internal/scoretable"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type snapshotFile struct {
	Metadata scoretable.Metadata           `json:"metadata"`
	Scores   map[string]map[string]float64 `json:"scores"`
}

var validContexts = map[string]bool{
	"day_clear": true, "day_cloudy": true, "day_rainy": true,
	"night_clear": true, "night_cloudy": true, "night_rainy": true,
}

func main() {
	snapshot := flag.String("snapshot", "", "path to the risk score snapshot JSON")
	flag.Parse()

	if *snapshot == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*snapshot); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read snapshot: %v\n", err)
		return 1
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse snapshot: %v\n", err)
		return 1
	}

	fmt.Println("=== Risk Score Snapshot Validation ===")
	fmt.Println()

	phases := []*phase{
		validateKeys(file.Scores),
		validateContexts(file.Scores),
		validateScores(file.Scores),
		validateMetadata(file),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-40s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Segments: %d\n", len(file.Scores))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateKeys checks every segment key parses back to a canonical segment.
func validateKeys(scores map[string]map[string]float64) *phase {
	p := &phase{name: "Phase 1: Segment keys"}

	for key := range scores {
		seg, ok := domain.ParseSegmentKey(key)
		if !ok {
			p.errorf("key %q does not match REGION_HIGHWAY_KM", key)
			continue
		}
		if seg.Key() != key {
			p.errorf("key %q is not canonical (expected %q)", key, seg.Key())
		}
		if seg.Bucket%domain.BucketWidthKm != 0 {
			p.errorf("key %q: bucket %d is not a multiple of %d", key, seg.Bucket, domain.BucketWidthKm)
		}
	}
	return p
}

// validateContexts checks every context label is one the engine resolves.
func validateContexts(scores map[string]map[string]float64) *phase {
	p := &phase{name: "Phase 2: Context labels"}

	for key, contexts := range scores {
		if len(contexts) == 0 {
			p.errorf("key %q has no contexts", key)
		}
		for ctx := range contexts {
			if !validContexts[ctx] {
				p.errorf("key %q: unknown context %q", key, ctx)
			}
		}
	}
	return p
}

// validateScores checks every score is inside [0,100].
func validateScores(scores map[string]map[string]float64) *phase {
	p := &phase{name: "Phase 3: Score ranges"}

	for key, contexts := range scores {
		for ctx, score := range contexts {
			if score < 0 || score > 100 {
				p.errorf("key %q context %q: score %g outside [0,100]", key, ctx, score)
			}
		}
	}
	return p
}

// validateMetadata cross-checks the metadata block against the scores section.
func validateMetadata(file snapshotFile) *phase {
	p := &phase{name: "Phase 4: Metadata consistency"}

	if file.Metadata.TotalSegments != 0 && file.Metadata.TotalSegments != len(file.Scores) {
		p.errorf("metadata total_segments=%d but scores has %d entries",
			file.Metadata.TotalSegments, len(file.Scores))
	}
	if file.Metadata.ModelType == "" {
		p.errorf("metadata model_type is empty")
	}
	if file.Metadata.GeneratedAt == "" {
		p.errorf("metadata generated_at is empty")
	}
	return p
}
