package reconcile

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PairHandler reconciles one pair. It must not fail: every outcome,
// including errors, is reported through the returned PairResult.
type PairHandler interface {
	Process(ctx context.Context, pair Pair) PairResult
}

// SummaryWriter persists the aggregate of a run and returns where it went.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, result *RunResult) (string, error)
}

// Runner fans pairs out to a PairHandler with bounded parallelism and
// merges their results.
type Runner struct {
	handler     PairHandler
	summary     SummaryWriter
	parallelism int
	logger      *zap.Logger
}

// NewRunner creates a Runner. A non-positive parallelism means the number
// of CPUs.
func NewRunner(handler PairHandler, summary SummaryWriter, parallelism int, logger *zap.Logger) *Runner {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		handler:     handler,
		summary:     summary,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Run reconciles every pair and returns the aggregate. At most parallelism
// pairs are in flight. Pair results travel over a channel to a single
// goroutine that owns the aggregate, so each result is applied as one unit
// without locking. An error is returned only when the summary cannot be
// written; the returned result is complete either way.
func (r *Runner) Run(ctx context.Context, pairs []Pair) (*RunResult, error) {
	result := &RunResult{
		RunID:           uuid.NewString(),
		FilePairResults: []PairResult{},
		StartTime:       time.Now(),
	}

	if len(pairs) == 0 {
		r.logger.Warn("No file pairs to reconcile")
	} else {
		r.logger.Info("Processing file pairs",
			zap.Int("pairs", len(pairs)),
			zap.Int("parallelism", r.parallelism),
		)
		r.fanOut(ctx, pairs, result)
	}

	sort.Slice(result.FilePairResults, func(i, j int) bool {
		return result.FilePairResults[i].FileName < result.FilePairResults[j].FileName
	})

	end := time.Now()
	result.EndTime = &end

	if r.summary != nil {
		path, err := r.summary.WriteSummary(ctx, result)
		if err != nil {
			return result, fmt.Errorf("write global summary: %w", err)
		}
		result.SummaryJSONPath = path
	}

	r.logger.Info("Reconciliation completed")
	r.printDigest(result)
	return result, nil
}

func (r *Runner) fanOut(ctx context.Context, pairs []Pair, result *RunResult) {
	results := make(chan PairResult)
	merged := make(chan struct{})

	go func() {
		defer close(merged)
		for pr := range results {
			result.Merge(pr)
		}
	}()

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for _, pair := range pairs {
		g.Go(func() error {
			results <- r.handler.Process(ctx, pair)
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	<-merged
}

// printDigest logs the console summary of a run.
func (r *Runner) printDigest(result *RunResult) {
	r.logger.Info("Reconciliation summary",
		zap.String("run_id", result.RunID),
		zap.Int("total_in_folder_a", result.TotalInFolderA),
		zap.Int("total_in_folder_b", result.TotalInFolderB),
		zap.Int("matched", result.TotalMatched),
		zap.Int("only_in_folder_a", result.TotalOnlyInFolderA),
		zap.Int("only_in_folder_b", result.TotalOnlyInFolderB),
		zap.Int("successful_pairs", result.SuccessfulPairs),
		zap.Int("failed_pairs", result.FailedPairs),
		zap.Int("missing_files", result.MissingFiles),
		zap.Int("empty_pairs", result.EmptyPairs),
		zap.Int64("total_processing_time_ms", result.TotalProcessingTimeMs),
		zap.String("summary", result.SummaryJSONPath),
	)

	for _, pr := range result.FilePairResults {
		if pr.Status == StatusFailed {
			r.logger.Warn("Failed pair", zap.String("file", pr.FileName), zap.String("error", pr.Error))
		}
	}
}
