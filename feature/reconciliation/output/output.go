package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"csv-reconciler/core/reconcile"
	"csv-reconciler/core/tabular"

	"go.uber.org/zap"
)

// File names inside a pair's output folder.
const (
	MatchedFile     = "matched.csv"
	OnlyInAFile     = "only-in-folderA.csv"
	OnlyInBFile     = "only-in-folderB.csv"
	ErrorsFile      = "errors.csv"
	PairSummaryFile = "reconcile-summary.json"
	GlobalSummary   = "global-summary.json"
)

// Writer persists per-pair partitions under root/<pair name>/.
type Writer struct {
	root   string
	csv    *tabular.Writer
	logger *zap.Logger
}

// NewWriter creates a Writer rooted at root.
func NewWriter(root string, delimiter rune, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{root: root, csv: tabular.NewWriter(delimiter), logger: logger}
}

// WritePair writes the three partitions, the malformed rows when there are
// any, and the pair summary. All partitions share one column set: folder A's
// header, then folder B's new fields, then any other field found in the
// records, sorted.
func (w *Writer) WritePair(ctx context.Context, pair reconcile.Pair, outcome *reconcile.Outcome, result reconcile.PairResult) error {
	dir := filepath.Join(w.root, pair.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create pair folder: %w", err)
	}

	columns := unionColumns([][]string{outcome.ColumnsA, outcome.ColumnsB}, outcome.Matched, outcome.OnlyInA, outcome.OnlyInB)

	partitions := []struct {
		file    string
		records []reconcile.Record
	}{
		{MatchedFile, outcome.Matched},
		{OnlyInAFile, outcome.OnlyInA},
		{OnlyInBFile, outcome.OnlyInB},
	}
	for _, p := range partitions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.csv.WriteRecords(filepath.Join(dir, p.file), columns, p.records); err != nil {
			return err
		}
	}

	if outcome.MalformedA.Count > 0 || outcome.MalformedB.Count > 0 {
		rows := make([]string, 0, len(outcome.MalformedA.Rows)+len(outcome.MalformedB.Rows))
		rows = append(rows, outcome.MalformedA.Rows...)
		rows = append(rows, outcome.MalformedB.Rows...)
		if err := tabular.WriteLines(filepath.Join(dir, ErrorsFile), rows); err != nil {
			return err
		}
		w.logger.Warn("Malformed rows written",
			zap.String("file", pair.Name),
			zap.Int("count", outcome.MalformedA.Count+outcome.MalformedB.Count),
		)
	}

	if err := writeJSON(filepath.Join(dir, PairSummaryFile), result); err != nil {
		return err
	}

	w.logger.Debug("Pair outputs written", zap.String("file", pair.Name), zap.String("dir", dir))
	return nil
}

// Summary writes the run aggregate to root/global-summary.json.
type Summary struct {
	root   string
	logger *zap.Logger
}

// NewSummary creates a Summary rooted at root.
func NewSummary(root string, logger *zap.Logger) *Summary {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summary{root: root, logger: logger}
}

// WriteSummary writes result and returns the path of the written file.
func (s *Summary) WriteSummary(_ context.Context, result *reconcile.RunResult) (string, error) {
	path := filepath.Join(s.root, GlobalSummary)
	if err := writeJSON(path, result); err != nil {
		return "", err
	}
	result.SummaryJSONPath = path
	s.logger.Info("Global summary written", zap.String("path", path))
	return path, nil
}

func unionColumns(headers [][]string, partitions ...[]reconcile.Record) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, header := range headers {
		for _, name := range header {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				columns = append(columns, name)
			}
		}
	}

	var extra []string
	for _, records := range partitions {
		for _, rec := range records {
			for k := range rec {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					extra = append(extra, k)
				}
			}
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
