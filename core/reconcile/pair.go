package reconcile

import (
	"context"
	"fmt"
	"time"

	"csv-reconciler/core/tabular"

	"go.uber.org/zap"
)

// OutputWriter persists the partitions and summary of one pair.
type OutputWriter interface {
	WritePair(ctx context.Context, pair Pair, outcome *Outcome, result PairResult) error
}

// PairProcessor reconciles a single pair end to end: read, categorize, write.
type PairProcessor struct {
	reader      *tabular.Reader
	categorizer *Categorizer
	writer      OutputWriter
	mode        Mode
	logger      *zap.Logger
}

// NewPairProcessor creates a PairProcessor.
func NewPairProcessor(reader *tabular.Reader, categorizer *Categorizer, writer OutputWriter, mode Mode, logger *zap.Logger) *PairProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == "" {
		mode = ModeStreaming
	}
	return &PairProcessor{
		reader:      reader,
		categorizer: categorizer,
		writer:      writer,
		mode:        mode,
		logger:      logger,
	}
}

// Process reconciles pair and always returns a result. A missing file yields
// a zero-count result with StatusMissing; any error or panic yields
// StatusFailed with whatever counts were computed before the fault.
func (p *PairProcessor) Process(ctx context.Context, pair Pair) (result PairResult) {
	start := time.Now()
	result = PairResult{FileName: pair.Name, Status: StatusOK}
	l := p.logger.With(zap.String("file", pair.Name))

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusFailed
			result.Error = fmt.Sprint(r)
			l.Error("Pair reconciliation panicked", zap.Any("panic", r))
		}
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
	}()

	if pair.PathA == "" || pair.PathB == "" {
		side := SideB
		if pair.PathA == "" {
			side = SideA
		}
		l.Warn("File missing", zap.String("missing_in", side))
		result.Status = StatusMissing
		result.MissingSide = side
		return result
	}

	if err := p.reconcile(ctx, pair, &result, start, l); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		l.Error("Error reconciling file pair", zap.Error(err))
	}
	return result
}

func (p *PairProcessor) reconcile(ctx context.Context, pair Pair, result *PairResult, start time.Time, l *zap.Logger) error {
	l.Info("Reading file pair", zap.String("mode", string(p.mode)))

	outcome := &Outcome{}
	var (
		cat *Categorized
		err error
	)

	switch p.mode {
	case ModeBulk:
		cat, err = p.readBulk(ctx, pair, outcome)
	default:
		cat, err = p.readStreaming(ctx, pair, outcome)
	}
	if err != nil {
		return err
	}
	outcome.Categorized = cat

	result.TotalInFolderA = cat.TotalA
	result.TotalInFolderB = cat.TotalB
	result.MatchedCount = len(cat.Matched)
	result.OnlyInFolderACount = len(cat.OnlyInA)
	result.OnlyInFolderBCount = len(cat.OnlyInB)
	result.InvalidInFolderA = cat.InvalidA
	result.InvalidInFolderB = cat.InvalidB
	result.MalformedInFolderA = outcome.MalformedA.Count
	result.MalformedInFolderB = outcome.MalformedB.Count

	if cat.InvalidA > 0 {
		l.Warn("Records missing matching fields", zap.String("side", SideA), zap.Int("count", cat.InvalidA))
	}
	if cat.InvalidB > 0 {
		l.Warn("Records missing matching fields", zap.String("side", SideB), zap.Int("count", cat.InvalidB))
	}
	if cat.DuplicatesB > 0 {
		l.Info("Duplicate keys resolved", zap.String("side", SideB), zap.Int("count", cat.DuplicatesB))
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	if err := p.writer.WritePair(ctx, pair, outcome, *result); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	l.Info("Completed reconciliation",
		zap.Int("matched", result.MatchedCount),
		zap.Int("only_a", result.OnlyInFolderACount),
		zap.Int("only_b", result.OnlyInFolderBCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (p *PairProcessor) readStreaming(ctx context.Context, pair Pair, outcome *Outcome) (*Categorized, error) {
	b, err := p.reader.Open(ctx, pair.PathB, &outcome.MalformedB)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	a, err := p.reader.Open(ctx, pair.PathA, &outcome.MalformedA)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	outcome.ColumnsA, outcome.ColumnsB = a.Columns(), b.Columns()
	return p.categorizer.Stream(ctx, a, b)
}

func (p *PairProcessor) readBulk(ctx context.Context, pair Pair, outcome *Outcome) (*Categorized, error) {
	a, err := p.reader.ReadTable(ctx, pair.PathA, &outcome.MalformedA)
	if err != nil {
		return nil, err
	}
	b, err := p.reader.ReadTable(ctx, pair.PathB, &outcome.MalformedB)
	if err != nil {
		return nil, err
	}
	outcome.ColumnsA, outcome.ColumnsB = a.Columns, b.Columns
	return p.categorizer.Categorize(ctx, a.Records, b.Records)
}
