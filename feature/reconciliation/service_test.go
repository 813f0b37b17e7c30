package reconciliation

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"csv-reconciler/core/reconcile"
	"csv-reconciler/core/storage"
	"csv-reconciler/core/storage/mocks"
	"csv-reconciler/feature/reconciliation/output"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cfg reconcile.Config
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	cfg := reconcile.Config{
		FolderA:        filepath.Join(root, "a"),
		FolderB:        filepath.Join(root, "b"),
		Output:         filepath.Join(root, "out"),
		MatchingFields: []string{"Id"},
		Trim:           true,
		Separator:      ",",
		HasHeader:      true,
		Parallelism:    2,
	}
	cfg.Normalize()
	require.NoError(t, os.MkdirAll(cfg.FolderA, 0o755))
	require.NoError(t, os.MkdirAll(cfg.FolderB, 0o755))
	return fixture{cfg: cfg}
}

func (f fixture) write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestService_Run(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.cfg.FolderA, "employees.csv", "Id,Name\nEMP001,John\nEMP002,Jane\n")
	f.write(t, f.cfg.FolderB, "employees.csv", "Id,Name\nEMP001,John\nEMP003,Bob\n")
	f.write(t, f.cfg.FolderA, "orders.csv", "Id\n1\n")
	f.write(t, f.cfg.FolderA, "blank.csv", "")
	f.write(t, f.cfg.FolderB, "blank.csv", "")

	result, err := NewService(f.cfg, nil, storage.Config{}, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.SuccessfulPairs)
	assert.Equal(t, 1, result.MissingFiles)
	assert.Equal(t, 1, result.EmptyPairs)
	assert.Zero(t, result.FailedPairs)
	assert.Equal(t, 1, result.TotalMatched)
	assert.Equal(t, 1, result.TotalOnlyInFolderA)
	assert.Equal(t, 1, result.TotalOnlyInFolderB)

	assert.FileExists(t, filepath.Join(f.cfg.Output, "employees", output.MatchedFile))
	assert.NoDirExists(t, filepath.Join(f.cfg.Output, "orders"))

	data, err := os.ReadFile(filepath.Join(f.cfg.Output, output.GlobalSummary))
	require.NoError(t, err)
	var summary reconcile.RunResult
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, result.RunID, summary.RunID)
	assert.Len(t, summary.FilePairResults, 3)
}

func TestService_Run_BulkMatchesStreaming(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.cfg.FolderA, "p.csv", "Id,V\n1,a\n2,b\n 3 ,c\n4,d\n")
	f.write(t, f.cfg.FolderB, "p.csv", "Id,V\n3,x\n4,y\n5,z\n")

	streaming, err := NewService(f.cfg, nil, storage.Config{}, nil).Run(context.Background())
	require.NoError(t, err)

	f.cfg.Mode = string(reconcile.ModeBulk)
	bulk, err := NewService(f.cfg, nil, storage.Config{}, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, bulk.FilePairResults, 1)
	s, b := streaming.FilePairResults[0], bulk.FilePairResults[0]
	s.ProcessingTimeMs, b.ProcessingTimeMs = 0, 0
	assert.Equal(t, s, b)
	assert.Equal(t, 2, b.MatchedCount)
}

func TestService_Run_Headerless(t *testing.T) {
	f := newFixture(t)
	f.cfg.HasHeader = false
	f.cfg.Mode = string(reconcile.ModeStreaming)
	f.cfg.MatchingFields = []string{"Column1"}
	f.write(t, f.cfg.FolderA, "p.csv", "1,A\n2,B\n")
	f.write(t, f.cfg.FolderB, "p.csv", "1,A\n3,C\n")

	result, err := NewService(f.cfg, nil, storage.Config{}, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.FilePairResults, 1)
	pr := result.FilePairResults[0]
	assert.Equal(t, reconcile.StatusOK, pr.Status)
	assert.Equal(t, 2, pr.TotalInFolderA)
	assert.Equal(t, 2, pr.TotalInFolderB)
	assert.Equal(t, 1, pr.MatchedCount)
	assert.Equal(t, 1, pr.OnlyInFolderACount)
	assert.Equal(t, 1, pr.OnlyInFolderBCount)
	assert.Zero(t, result.EmptyPairs)
	assert.Equal(t, "Column1,Column2\n1,A\n", readFile(t, filepath.Join(f.cfg.Output, "p", output.MatchedFile)))
}

func TestService_Run_MissingFolder(t *testing.T) {
	f := newFixture(t)
	f.cfg.FolderB = filepath.Join(t.TempDir(), "nope")

	_, err := NewService(f.cfg, nil, storage.Config{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, reconcile.ErrFolderNotFound)
	assert.NoDirExists(t, f.cfg.Output)
}

func TestService_Run_FailedPair(t *testing.T) {
	f := newFixture(t)
	f.cfg.Dedupe = string(reconcile.DedupeReject)
	f.write(t, f.cfg.FolderA, "d.csv", "Id\n1\n")
	f.write(t, f.cfg.FolderB, "d.csv", "Id\n1\n1\n")

	result, err := NewService(f.cfg, nil, storage.Config{}, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.FailedPairs)
	assert.Equal(t, reconcile.StatusFailed, result.FilePairResults[0].Status)
	assert.Contains(t, result.FilePairResults[0].Error, "duplicate match key")
}

func TestService_Run_NoPairs(t *testing.T) {
	f := newFixture(t)

	result, err := NewService(f.cfg, nil, storage.Config{}, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.FilePairResults)
	assert.FileExists(t, filepath.Join(f.cfg.Output, output.GlobalSummary))
}

func TestService_Run_Publishes(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.cfg.FolderA, "x.csv", "Id\n1\n")
	f.write(t, f.cfg.FolderB, "x.csv", "Id\n1\n")

	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "recon").Return(true, nil)
	client.On("PutObject", mock.Anything, "recon", mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), mock.AnythingOfType("minio.PutObjectOptions")).
		Return(minio.UploadInfo{}, nil)

	result, err := NewService(f.cfg, client, storage.Config{Bucket: "recon"}, nil).Run(context.Background())
	require.NoError(t, err)

	// x/matched.csv, x/only-in-folderA.csv, x/only-in-folderB.csv, x/reconcile-summary.json, global-summary.json
	client.AssertNumberOfCalls(t, "PutObject", 5)
	client.AssertCalled(t, "PutObject", mock.Anything, "recon", result.RunID+"/global-summary.json", mock.Anything, mock.Anything, mock.Anything)
}
