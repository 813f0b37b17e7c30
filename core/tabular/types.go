package tabular

// DefaultChunkSize is the number of records handed out per chunk when the
// reader is not configured otherwise.
const DefaultChunkSize = 1000

// Record is a single parsed row keyed by header field name.
type Record map[string]string

// Table is a fully read file.
type Table struct {
	// Columns lists the field names in file order.
	Columns []string
	// Records holds every well-formed row.
	Records []Record
}

// MalformedRows collects rows whose column count did not match the header.
// The header line is stored once, ahead of the first malformed row, so the
// collected rows can be written out as a self-describing file.
type MalformedRows struct {
	// Rows holds the header line followed by each malformed row, verbatim.
	Rows []string
	// Count is the number of malformed rows (the header is not counted).
	Count int
}

func (m *MalformedRows) add(header, line string) {
	if m.Count == 0 {
		m.Rows = append(m.Rows, header)
	}
	m.Rows = append(m.Rows, line)
	m.Count++
}
