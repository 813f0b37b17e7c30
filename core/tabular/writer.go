package tabular

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Writer renders Records as delimiter-separated text.
type Writer struct {
	// Delimiter separates fields on every written line.
	Delimiter rune
}

// NewWriter creates a Writer using the given delimiter.
func NewWriter(delimiter rune) *Writer {
	return &Writer{Delimiter: delimiter}
}

// WriteRecords writes a header row of columns followed by one row per
// record, in the given column order. Fields absent from a record are written
// empty. An empty record list produces an empty file.
func (w *Writer) WriteRecords(path string, columns []string, records []Record) error {
	if len(records) == 0 {
		return WriteLines(path, nil)
	}

	sep := string(w.Delimiter)
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(columns, sep))

	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec[col]
		}
		lines = append(lines, strings.Join(row, sep))
	}

	return WriteLines(path, lines)
}

// WriteLines writes each line followed by a newline, truncating any existing
// file at path.
func WriteLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
