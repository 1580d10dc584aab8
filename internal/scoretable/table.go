// Package scoretable owns the precomputed segment-by-context risk scores:
// loading the snapshot artifact, swapping it atomically on administrative
// reload, and resolving scores through the bounded fallback chain
// (exact match, default context, expanding spatial search, neutral default).
package scoretable

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/viaseguro/roadrisk/internal/observability"
)

// Metadata describes the offline training run that produced a snapshot.
type Metadata struct {
	GeneratedAt            string `json:"generated_at"`
	TotalSegments          int    `json:"total_segments"`
	TotalAccidentsAnalyzed int    `json:"total_accidents_analyzed"`
	ModelType              string `json:"model_type"`
	Accuracy               string `json:"accuracy"`
}

// snapshot is one immutable generation of the score table. Readers hold a
// snapshot pointer for the duration of a lookup; reload swaps the pointer.
type snapshot struct {
	meta   Metadata
	scores map[string]map[string]float64 // segment key -> context label -> score
}

type snapshotFile struct {
	Metadata Metadata                      `json:"metadata"`
	Scores   map[string]map[string]float64 `json:"scores"`
}

// Table is the process-wide score table. Read-only between reloads; a reload
// parses the whole file before swapping, so readers never observe a partially
// built generation.
type Table struct {
	path    string
	current atomic.Pointer[snapshot]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTable creates a Table and attempts the initial load. A missing or
// malformed snapshot is not an error: the table stays empty and every lookup
// degrades to the neutral default until a reload succeeds.
func NewTable(path string, logger *slog.Logger, metrics *observability.Metrics) *Table {
	t := &Table{path: path, logger: logger, metrics: metrics}
	t.current.Store(&snapshot{scores: map[string]map[string]float64{}})

	if err := t.Reload(); err != nil {
		logger.Warn("risk score snapshot unavailable, starting with empty table",
			"path", path, "error", err)
	}
	return t
}

// Reload re-reads the snapshot file and atomically swaps the table. This is
// the only mutation path; it is triggered administratively, never implicitly.
func (t *Table) Reload() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	if file.Scores == nil {
		return fmt.Errorf("snapshot %s has no scores section", t.path)
	}

	t.current.Store(&snapshot{meta: file.Metadata, scores: file.Scores})
	t.metrics.TableSegments.Set(float64(len(file.Scores)))
	t.metrics.TableReloads.Inc()
	t.logger.Info("risk score snapshot loaded",
		"path", t.path,
		"segments", len(file.Scores),
		"model", file.Metadata.ModelType,
		"generated_at", file.Metadata.GeneratedAt,
	)
	return nil
}

// Ready reports whether a non-empty snapshot is loaded.
func (t *Table) Ready() bool {
	return len(t.current.Load().scores) > 0
}

// Metadata returns the loaded snapshot's training metadata.
func (t *Table) Metadata() Metadata {
	return t.current.Load().meta
}

// SegmentCount returns the number of segments in the loaded snapshot.
func (t *Table) SegmentCount() int {
	return len(t.current.Load().scores)
}
