package reconcile

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// keyTerminator follows every normalized value inside a match key.
// Normalized values are assumed never to contain it.
const keyTerminator = "|"

// MatchingRule defines record identity: the ordered key fields and how
// their values are normalized before comparison.
type MatchingRule struct {
	// Fields lists the key fields in order.
	Fields []string
	// CaseSensitive disables upper-case folding of values.
	CaseSensitive bool
	// Trim strips surrounding whitespace from values.
	Trim bool
}

// Valid reports whether the rule names at least one field and no blank ones.
func (r MatchingRule) Valid() bool {
	if len(r.Fields) == 0 {
		return false
	}
	for _, f := range r.Fields {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Coverage is the outcome of checking a record against a rule: either the
// record is eligible and carries its key, or it lacks some rule fields.
type Coverage struct {
	// Eligible is true when every rule field exists in the record.
	Eligible bool
	// Key is the match key; set only when Eligible.
	Key string
	// Missing lists absent rule fields; set only when not Eligible.
	Missing []string
}

// Matcher derives match keys from records. It is safe for concurrent use.
type Matcher struct {
	rule MatchingRule

	// casers holds *cases.Caser; a Caser is stateful and must not be shared
	// between goroutines.
	casers *sync.Pool
}

// NewMatcher creates a Matcher for the given rule.
func NewMatcher(rule MatchingRule) *Matcher {
	fields := make([]string, len(rule.Fields))
	copy(fields, rule.Fields)
	rule.Fields = fields
	return &Matcher{
		rule: rule,
		casers: &sync.Pool{New: func() any {
			c := cases.Upper(language.Und)
			return &c
		}},
	}
}

// Rule returns the matching rule.
func (m *Matcher) Rule() MatchingRule {
	return m.rule
}

// HasMatchingFields reports whether every rule field exists in rec. Empty
// values count as present. A rule without fields matches nothing.
func (m *Matcher) HasMatchingFields(rec Record) bool {
	if len(m.rule.Fields) == 0 {
		return false
	}
	for _, f := range m.rule.Fields {
		if _, ok := rec[f]; !ok {
			return false
		}
	}
	return true
}

// GenerateMatchKey builds the key of rec. It is meaningful only when
// HasMatchingFields(rec) holds; absent fields contribute an empty value.
func (m *Matcher) GenerateMatchKey(rec Record) string {
	var b strings.Builder
	for _, f := range m.rule.Fields {
		b.WriteString(m.normalize(rec[f]))
		b.WriteString(keyTerminator)
	}
	return b.String()
}

// Cover checks rec against the rule in a single pass.
func (m *Matcher) Cover(rec Record) Coverage {
	if len(m.rule.Fields) == 0 {
		return Coverage{}
	}

	var (
		b       strings.Builder
		missing []string
	)
	for _, f := range m.rule.Fields {
		v, ok := rec[f]
		if !ok {
			missing = append(missing, f)
			continue
		}
		if missing == nil {
			b.WriteString(m.normalize(v))
			b.WriteString(keyTerminator)
		}
	}

	if missing != nil {
		return Coverage{Missing: missing}
	}
	return Coverage{Eligible: true, Key: b.String()}
}

// normalize trims, then folds case, as configured. Folding uses full Unicode
// case mapping, so "straße" and "STRASSE" produce the same key.
func (m *Matcher) normalize(v string) string {
	if m.rule.Trim {
		v = strings.TrimSpace(v)
	}
	if !m.rule.CaseSensitive {
		c := m.casers.Get().(*cases.Caser)
		v = c.String(v)
		m.casers.Put(c)
	}
	return v
}
