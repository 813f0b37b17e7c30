package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"csv-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const uploadWorkers = 4

// Publisher uploads a finished run's output folder to object storage.
type Publisher struct {
	client storage.Client
	cfg    storage.Config
	logger *zap.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(client storage.Client, cfg storage.Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, cfg: cfg, logger: logger}
}

// Publish uploads every regular file under root to
// <bucket>/<prefix>/<runID>/<relative path> and returns the number of
// objects written.
func (p *Publisher) Publish(ctx context.Context, root, runID string) (int, error) {
	if err := storage.EnsureBucket(ctx, p.client, p.cfg.Bucket, p.cfg.Region); err != nil {
		return 0, err
	}

	var files []string
	err := filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", root, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadWorkers)
	for _, file := range files {
		g.Go(func() error {
			rel, err := filepath.Rel(root, file)
			if err != nil {
				return err
			}
			return p.upload(gctx, file, ObjectName(p.cfg.Prefix, runID, rel))
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	p.logger.Info("Outputs published",
		zap.String("bucket", p.cfg.Bucket),
		zap.String("run_id", runID),
		zap.Int("objects", len(files)),
	)
	return len(files), nil
}

func (p *Publisher) upload(ctx context.Context, file, object string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = p.client.PutObject(ctx, p.cfg.Bucket, object, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType(file),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", object, err)
	}
	p.logger.Debug("Uploaded", zap.String("object", object))
	return nil
}

// ObjectName joins prefix, run ID and a relative file path with forward
// slashes, skipping an empty prefix.
func ObjectName(prefix, runID, rel string) string {
	parts := []string{runID, filepath.ToSlash(rel)}
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		parts = append([]string{prefix}, parts...)
	}
	return path.Join(parts...)
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "text/plain"
	}
}
