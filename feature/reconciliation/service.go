package reconciliation

import (
	"context"
	"fmt"
	"os"

	"csv-reconciler/core/reconcile"
	"csv-reconciler/core/storage"
	"csv-reconciler/core/tabular"
	"csv-reconciler/feature/reconciliation/discovery"
	"csv-reconciler/feature/reconciliation/output"
	"csv-reconciler/feature/reconciliation/publish"

	"go.uber.org/zap"
)

// Service wires discovery, the reconcile engine and the output collaborators
// into a single run.
type Service struct {
	cfg       reconcile.Config
	publisher *publish.Publisher
	logger    *zap.Logger
}

// NewService creates a reconciliation service. client may be nil, in which
// case outputs stay on local disk only.
func NewService(cfg reconcile.Config, client storage.Client, storageCfg storage.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Normalize()
	s := &Service{cfg: cfg, logger: logger}
	if client != nil {
		s.publisher = publish.NewPublisher(client, storageCfg, logger)
	}
	return s
}

// Pairs discovers the file pairs of the configured folders.
func (s *Service) Pairs() ([]reconcile.Pair, error) {
	if err := checkFolder(s.cfg.FolderA); err != nil {
		return nil, err
	}
	if err := checkFolder(s.cfg.FolderB); err != nil {
		return nil, err
	}
	return discovery.Scan(s.cfg.FolderA, s.cfg.FolderB, s.logger)
}

// Run reconciles every pair and writes outputs under the configured folder.
// A missing source folder aborts before any pair is processed. Per-pair
// failures are reported in the result, not as an error.
func (s *Service) Run(ctx context.Context) (*reconcile.RunResult, error) {
	pairs, err := s.Pairs()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.cfg.Output, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	mode, err := reconcile.ParseMode(s.cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reconcile.ErrInvalidConfig, err)
	}
	dedupe, err := reconcile.ParseDedupePolicy(s.cfg.Dedupe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reconcile.ErrInvalidConfig, err)
	}

	s.logger.Info("Starting reconciliation",
		zap.String("folder_a", s.cfg.FolderA),
		zap.String("folder_b", s.cfg.FolderB),
		zap.String("output", s.cfg.Output),
		zap.Strings("matching_fields", s.cfg.MatchingFields),
		zap.String("mode", string(mode)),
		zap.String("dedupe", string(dedupe)),
	)

	reader := tabular.NewReader(s.cfg.Delimiter(), s.cfg.HasHeader, s.cfg.ChunkSize, s.logger)
	categorizer := reconcile.NewCategorizer(reconcile.NewMatcher(s.cfg.Rule()), reconcile.CategorizerOptions{
		Dedupe:    dedupe,
		Workers:   s.cfg.ChunkWorkers,
		ChunkSize: s.cfg.ChunkSize,
	})
	writer := output.NewWriter(s.cfg.Output, s.cfg.Delimiter(), s.logger)
	processor := reconcile.NewPairProcessor(reader, categorizer, writer, mode, s.logger)
	runner := reconcile.NewRunner(processor, output.NewSummary(s.cfg.Output, s.logger), s.cfg.Parallelism, s.logger)

	result, err := runner.Run(ctx, pairs)
	if err != nil {
		return result, err
	}

	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, s.cfg.Output, result.RunID); err != nil {
			return result, fmt.Errorf("publish outputs: %w", err)
		}
	}
	return result, nil
}

func checkFolder(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", reconcile.ErrFolderNotFound, dir)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", reconcile.ErrFolderNotFound, dir)
	}
	return nil
}
