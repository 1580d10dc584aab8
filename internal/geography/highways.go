// Package geography bounds-checks prediction requests against known highway
// extents, so the lookup and ensemble components only ever see plausible
// kilometer values.
package geography

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

// Highway describes one highway's known extent within a region.
type Highway struct {
	ID        string  `json:"highway"`
	Name      string  `json:"name"`
	MinKm     float64 `json:"min_km"`
	MaxKm     float64 `json:"max_km"`
	Accidents int     `json:"accidents"`
}

// ValidationResult reports whether a (region, highway, km) triple is inside
// a known extent, with a human-readable message when it is not.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Highway *Highway `json:"highway,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Validator serves highway extent lookups from a region-keyed table. The
// table comes from an optional JSON file (regenerated from accident records)
// and falls back to a built-in excerpt of the busiest corridors.
type Validator struct {
	mu     sync.RWMutex
	byUF   map[string][]Highway
	logger *slog.Logger
}

// NewValidator builds a Validator. When path is empty or unreadable the
// built-in extents are used; a file that loads later via Watch replaces them.
func NewValidator(path string, logger *slog.Logger) *Validator {
	v := &Validator{byUF: defaultExtents(), logger: logger}

	if path == "" {
		return v
	}
	if err := v.loadFile(path); err != nil {
		logger.Warn("highway extents file unavailable, using built-in table",
			"path", path, "error", err)
	}
	return v
}

// loadFile parses a region-keyed extents file and swaps the table.
func (v *Validator) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read highway extents: %w", err)
	}

	var byUF map[string][]Highway
	if err := json.Unmarshal(data, &byUF); err != nil {
		return fmt.Errorf("parse highway extents: %w", err)
	}
	if len(byUF) == 0 {
		return fmt.Errorf("highway extents file %s is empty", path)
	}

	v.mu.Lock()
	v.byUF = byUF
	v.mu.Unlock()

	v.logger.Info("highway extents loaded", "path", path, "regions", len(byUF))
	return nil
}

// Validate checks a kilometer against the known extent of the highway.
// Unknown highways and out-of-range kilometers are both invalid.
func (v *Validator) Validate(region, highway string, km float64) ValidationResult {
	hw := v.lookup(region, highway)
	if hw == nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("highway %s not found in region %s", highway, strings.ToUpper(region)),
		}
	}

	if km < hw.MinKm || km > hw.MaxKm {
		return ValidationResult{
			Valid:   false,
			Highway: hw,
			Message: fmt.Sprintf("km %.1f is outside %s (km %.0f-%.0f)", km, hw.Name, hw.MinKm, hw.MaxKm),
		}
	}

	return ValidationResult{Valid: true, Highway: hw}
}

// Options lists the known highways of a region, ordered by recorded accident
// count descending. Supports client-side input assistance.
func (v *Validator) Options(region string) []Highway {
	v.mu.RLock()
	highways := v.byUF[strings.ToUpper(strings.TrimSpace(region))]
	v.mu.RUnlock()

	out := make([]Highway, len(highways))
	copy(out, highways)
	sort.Slice(out, func(i, j int) bool { return out[i].Accidents > out[j].Accidents })
	return out
}

// Regions returns the known region codes in sorted order.
func (v *Validator) Regions() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	regions := make([]string, 0, len(v.byUF))
	for uf := range v.byUF {
		regions = append(regions, uf)
	}
	sort.Strings(regions)
	return regions
}

func (v *Validator) lookup(region, highway string) *Highway {
	v.mu.RLock()
	defer v.mu.RUnlock()

	highway = strings.TrimLeft(strings.TrimSpace(highway), "0")
	for _, hw := range v.byUF[strings.ToUpper(strings.TrimSpace(region))] {
		if strings.TrimLeft(hw.ID, "0") == highway {
			clone := hw
			return &clone
		}
	}
	return nil
}

// defaultExtents is a built-in excerpt of the extents table covering the
// corridors with the most recorded accidents, used when no file is supplied.
func defaultExtents() map[string][]Highway {
	return map[string][]Highway{
		"SP": {
			{ID: "116", Name: "Via Dutra / Régis Bittencourt", MinKm: 0, MaxKm: 600, Accidents: 12840},
			{ID: "381", Name: "Fernão Dias", MinKm: 0, MaxKm: 90, Accidents: 3110},
			{ID: "153", Name: "Transbrasiliana", MinKm: 0, MaxKm: 340, Accidents: 1270},
		},
		"RJ": {
			{ID: "101", Name: "Rio-Santos / BR-101 Norte", MinKm: 0, MaxKm: 620, Accidents: 7420},
			{ID: "116", Name: "Via Dutra / Rio-Bahia", MinKm: 0, MaxKm: 340, Accidents: 6880},
			{ID: "040", Name: "Rio-Juiz de Fora", MinKm: 0, MaxKm: 130, Accidents: 2930},
		},
		"MG": {
			{ID: "381", Name: "Fernão Dias / BR-381 Norte", MinKm: 0, MaxKm: 890, Accidents: 9150},
			{ID: "040", Name: "BR-040", MinKm: 0, MaxKm: 780, Accidents: 5470},
			{ID: "262", Name: "BR-262", MinKm: 0, MaxKm: 870, Accidents: 3980},
		},
		"PR": {
			{ID: "376", Name: "Rodovia do Café", MinKm: 0, MaxKm: 690, Accidents: 5110},
			{ID: "277", Name: "BR-277", MinKm: 0, MaxKm: 730, Accidents: 4760},
		},
		"SC": {
			{ID: "101", Name: "BR-101 Sul", MinKm: 0, MaxKm: 470, Accidents: 6240},
			{ID: "282", Name: "BR-282", MinKm: 0, MaxKm: 680, Accidents: 2180},
		},
		"RS": {
			{ID: "116", Name: "BR-116 Sul", MinKm: 0, MaxKm: 560, Accidents: 4520},
			{ID: "290", Name: "Freeway / BR-290", MinKm: 0, MaxKm: 730, Accidents: 3340},
		},
	}
}
