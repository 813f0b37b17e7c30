// Package storage provides the object storage client used to publish
// reconciliation outputs.
//
// It wraps the MinIO Go client behind a small Client interface so uploads can
// be mocked in tests (see core/storage/mocks). Both AWS S3 and self-hosted
// MinIO are supported.
//
// # Usage
//
//	client, err := storage.NewClient(cfg)
//	if err := storage.EnsureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
//	    return err
//	}
package storage
