package tabular

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func drain(t *testing.T, c *ChunkReader) [][]Record {
	t.Helper()
	var chunks [][]Record
	for {
		chunk, err := c.Next()
		if errors.Is(err, io.EOF) {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
}

func TestReader_Open_ChunksPreserveOrder(t *testing.T) {
	path := writeFile(t, "Id,Name\n1,A\n2,B\n3,C\n4,D\n5,E\n")
	r := NewReader(',', true, 2, nil)

	c, err := r.Open(context.Background(), path, nil)
	require.NoError(t, err)
	defer c.Close()

	chunks := drain(t, c)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)

	var ids []string
	for _, chunk := range chunks {
		for _, rec := range chunk {
			ids = append(ids, rec["Id"])
		}
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
	assert.Equal(t, []string{"Id", "Name"}, c.Columns())

	// Exhausted readers stay exhausted.
	_, err = c.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_Open_MalformedRow(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := writeFile(t, "Id,Name\n1,Foo,Extra\n2,Bar\n")
	r := NewReader(',', true, 0, zap.New(core))

	var sink MalformedRows
	c, err := r.Open(context.Background(), path, &sink)
	require.NoError(t, err)

	chunks := drain(t, c)
	require.Len(t, chunks, 1)
	assert.Equal(t, []Record{{"Id": "2", "Name": "Bar"}}, chunks[0])

	assert.Equal(t, 1, sink.Count)
	assert.Equal(t, []string{"Id,Name", "1,Foo,Extra"}, sink.Rows)

	assert.Equal(t, 1, logs.FilterMessage("Malformed row").Len())
	assert.Equal(t, 1, logs.FilterMessage("Malformed rows skipped").Len())
}

func TestReader_Open_HeaderPushedOnce(t *testing.T) {
	path := writeFile(t, "a;b\n1\n2;3\n4;5;6\n")
	r := NewReader(';', true, 0, nil)

	var sink MalformedRows
	c, err := r.Open(context.Background(), path, &sink)
	require.NoError(t, err)
	drain(t, c)

	assert.Equal(t, 2, sink.Count)
	assert.Equal(t, []string{"a;b", "1", "4;5;6"}, sink.Rows)
}

func TestReader_Open_BlankLinesSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := writeFile(t, "\n\nId,Name\n\n   \n1,A\n\n")
	r := NewReader(',', true, 0, zap.New(core))

	var sink MalformedRows
	c, err := r.Open(context.Background(), path, &sink)
	require.NoError(t, err)

	chunks := drain(t, c)
	require.Len(t, chunks, 1)
	assert.Equal(t, []Record{{"Id": "1", "Name": "A"}}, chunks[0])
	assert.Zero(t, sink.Count)
	assert.Zero(t, logs.Len())
}

func TestReader_Open_HeaderNormalization(t *testing.T) {
	path := writeFile(t, "\uFEFF Id , Name \r\n1, Alice \r\n")
	r := NewReader(',', true, 0, nil)

	c, err := r.Open(context.Background(), path, nil)
	require.NoError(t, err)

	chunks := drain(t, c)
	require.Len(t, chunks, 1)
	// Field names are trimmed, values are not.
	assert.Equal(t, Record{"Id": "1", "Name": " Alice "}, chunks[0][0])
}

func TestReader_Open_EmptyFile(t *testing.T) {
	path := writeFile(t, "")
	r := NewReader(',', true, 0, nil)

	c, err := r.Open(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Empty(t, drain(t, c))
}

func TestReader_Open_HeaderlessStreamsNothing(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := writeFile(t, "1,A\n2,B\n")
	r := NewReader(',', false, 0, zap.New(core))

	c, err := r.Open(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Empty(t, drain(t, c))
	assert.Equal(t, 1, logs.Len())
}

func TestReader_Open_MissingFile(t *testing.T) {
	r := NewReader(',', true, 0, nil)

	_, err := r.Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), nil)
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReader_Open_Canceled(t *testing.T) {
	path := writeFile(t, "Id\n1\n")
	r := NewReader(',', true, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Open(ctx, path, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReader_ReadAll(t *testing.T) {
	t.Run("WithHeader", func(t *testing.T) {
		path := writeFile(t, "Id,Name\n1,A\n2,B,C\n3,C\n")
		r := NewReader(',', true, 1, nil)

		var sink MalformedRows
		records, err := r.ReadAll(context.Background(), path, &sink)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, 1, sink.Count)
	})

	t.Run("Headerless", func(t *testing.T) {
		path := writeFile(t, "1,A\n2,B\n3\n")
		r := NewReader(',', false, 0, nil)

		var sink MalformedRows
		records, err := r.ReadAll(context.Background(), path, &sink)
		require.NoError(t, err)
		assert.Equal(t, []Record{
			{"Column1": "1", "Column2": "A"},
			{"Column1": "2", "Column2": "B"},
		}, records)
		assert.Equal(t, []string{"Column1,Column2", "3"}, sink.Rows)
	})

	t.Run("MissingFile", func(t *testing.T) {
		r := NewReader(',', true, 0, nil)
		_, err := r.ReadAll(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), nil)
		assert.Error(t, err)
	})
}

func TestReader_ReadTable_KeepsHeaderOrder(t *testing.T) {
	path := writeFile(t, "Name,Age,Id\nAnn,30,1\n")
	r := NewReader(',', true, 0, nil)

	table, err := r.ReadTable(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age", "Id"}, table.Columns)
	assert.Equal(t, []Record{{"Name": "Ann", "Age": "30", "Id": "1"}}, table.Records)
}
