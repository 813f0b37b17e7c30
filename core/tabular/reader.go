package tabular

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	utf8BOM = "\uFEFF"

	// maxLineSize bounds a single physical line.
	maxLineSize = 16 << 20
)

// Reader parses delimiter-separated files into Records.
type Reader struct {
	// Delimiter separates fields on every line.
	Delimiter rune
	// HasHeader reports whether the first non-blank line names the fields.
	HasHeader bool
	// ChunkSize bounds the number of records returned by ChunkReader.Next.
	ChunkSize int

	logger *zap.Logger
}

// NewReader creates a Reader. A non-positive chunkSize falls back to
// DefaultChunkSize and a nil logger discards diagnostics.
func NewReader(delimiter rune, hasHeader bool, chunkSize int, logger *zap.Logger) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		Delimiter: delimiter,
		HasHeader: hasHeader,
		ChunkSize: chunkSize,
		logger:    logger,
	}
}

// Open starts streaming the file at path. Streaming requires a header row:
// when the reader is configured without one, the returned ChunkReader is
// already exhausted. Malformed rows are appended to sink.
func (r *Reader) Open(ctx context.Context, path string, sink *MalformedRows) (*ChunkReader, error) {
	return r.open(ctx, path, sink, false)
}

// ReadAll parses the whole file at path into memory. Unlike Open it also
// supports header-less files, naming the fields Column1..ColumnN after the
// width of the first non-blank line.
func (r *Reader) ReadAll(ctx context.Context, path string, sink *MalformedRows) ([]Record, error) {
	t, err := r.ReadTable(ctx, path, sink)
	if err != nil {
		return nil, err
	}
	return t.Records, nil
}

// ReadTable is ReadAll that also reports the field names in file order.
func (r *Reader) ReadTable(ctx context.Context, path string, sink *MalformedRows) (*Table, error) {
	c, err := r.open(ctx, path, sink, true)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	t := &Table{Columns: c.Columns()}
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, chunk...)
	}
}

func (r *Reader) open(ctx context.Context, path string, sink *MalformedRows, positional bool) (*ChunkReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = &MalformedRows{}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	c := &ChunkReader{
		ctx:       ctx,
		file:      f,
		scanner:   sc,
		name:      filepath.Base(path),
		delimiter: string(r.Delimiter),
		chunkSize: r.ChunkSize,
		sink:      sink,
		logger:    r.logger,
	}

	switch {
	case r.HasHeader:
		err = c.readHeader()
	case positional:
		err = c.synthesizeHeader()
	default:
		r.logger.Warn("Streaming requires a header row; no records read",
			zap.String("file", c.name))
		c.finish()
	}
	if err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// ChunkReader hands out the records of one file in bounded, ordered chunks.
// It is not safe for concurrent use and cannot be restarted.
type ChunkReader struct {
	ctx       context.Context
	file      *os.File
	scanner   *bufio.Scanner
	name      string
	delimiter string
	chunkSize int
	sink      *MalformedRows
	logger    *zap.Logger

	columns   []string
	rawHeader string
	line      int
	malformed int

	// pending holds a data line consumed while sizing a header-less file.
	pending    string
	hasPending bool

	done bool
}

// Columns returns the field names in file order.
func (c *ChunkReader) Columns() []string {
	return c.columns
}

// Next returns the next chunk of records. It returns io.EOF once the file is
// exhausted; a chunk is never returned together with an error.
func (c *ChunkReader) Next() ([]Record, error) {
	if c.done {
		return nil, io.EOF
	}
	if err := c.ctx.Err(); err != nil {
		c.Close()
		return nil, err
	}

	chunk := make([]Record, 0, c.chunkSize)

	if c.hasPending {
		c.hasPending = false
		c.parse(c.pending, &chunk)
	}

	for len(chunk) < c.chunkSize {
		line, ok, err := c.nextLine()
		if err != nil {
			c.Close()
			return nil, err
		}
		if !ok {
			c.finish()
			break
		}
		c.parse(line, &chunk)
	}

	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (c *ChunkReader) Close() error {
	c.done = true
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func (c *ChunkReader) readHeader() error {
	line, ok, err := c.nextLine()
	if err != nil {
		return err
	}
	if !ok {
		c.finish()
		return nil
	}

	line = strings.TrimPrefix(line, utf8BOM)
	c.rawHeader = line
	names := strings.Split(line, c.delimiter)
	c.columns = make([]string, len(names))
	for i, name := range names {
		c.columns[i] = strings.TrimSpace(name)
	}
	return nil
}

func (c *ChunkReader) synthesizeHeader() error {
	line, ok, err := c.nextLine()
	if err != nil {
		return err
	}
	if !ok {
		c.finish()
		return nil
	}

	line = strings.TrimPrefix(line, utf8BOM)
	width := len(strings.Split(line, c.delimiter))
	c.columns = make([]string, width)
	for i := range c.columns {
		c.columns[i] = fmt.Sprintf("Column%d", i+1)
	}
	c.rawHeader = strings.Join(c.columns, c.delimiter)
	c.pending = line
	c.hasPending = true
	return nil
}

// nextLine returns the next non-blank line with any trailing CR removed.
func (c *ChunkReader) nextLine() (string, bool, error) {
	for c.scanner.Scan() {
		c.line++
		line := strings.TrimSuffix(c.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line, true, nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", false, fmt.Errorf("read %s: %w", c.name, err)
	}
	return "", false, nil
}

func (c *ChunkReader) parse(line string, chunk *[]Record) {
	values := strings.Split(line, c.delimiter)
	if len(values) != len(c.columns) {
		c.malformed++
		c.sink.add(c.rawHeader, line)
		c.logger.Warn("Malformed row",
			zap.String("file", c.name),
			zap.Int("line", c.line),
			zap.Int("expected_columns", len(c.columns)),
			zap.Int("actual_columns", len(values)),
		)
		return
	}

	rec := make(Record, len(c.columns))
	for i, name := range c.columns {
		rec[name] = values[i]
	}
	*chunk = append(*chunk, rec)
}

func (c *ChunkReader) finish() {
	if c.malformed > 0 {
		c.logger.Warn("Malformed rows skipped",
			zap.String("file", c.name),
			zap.Int("count", c.malformed),
		)
		c.malformed = 0
	}
	c.Close()
}
