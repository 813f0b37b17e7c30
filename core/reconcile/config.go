package reconcile

import (
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"
)

// Config holds the reconciliation settings.
type Config struct {
	// FolderA is the directory holding the first set of files.
	FolderA string `mapstructure:"folder_a" default:""`
	// FolderB is the directory holding the second set of files.
	FolderB string `mapstructure:"folder_b" default:""`
	// Output is the directory receiving per-pair results and the global summary.
	Output string `mapstructure:"output" default:""`
	// MatchingFields is the ordered list of fields forming the match key.
	MatchingFields []string `mapstructure:"matching_fields" default:""`
	// CaseSensitive disables case folding of key values.
	CaseSensitive bool `mapstructure:"case_sensitive" default:"false"`
	// Trim strips surrounding whitespace from key values.
	Trim bool `mapstructure:"trim" default:"true"`
	// Separator is the single-character field delimiter.
	Separator string `mapstructure:"separator" default:","`
	// HasHeader reports whether files start with a header row.
	HasHeader bool `mapstructure:"has_header" default:"true"`
	// Parallelism bounds the number of file pairs processed at once.
	// Non-positive values mean the number of CPUs.
	Parallelism int `mapstructure:"parallelism" default:"0"`
	// ChunkSize is the number of records read per chunk.
	ChunkSize int `mapstructure:"chunk_size" default:"1000"`
	// ChunkWorkers is the number of workers scanning folder A chunks of one pair.
	ChunkWorkers int `mapstructure:"chunk_workers" default:"4"`
	// Mode selects streaming or bulk categorization.
	Mode string `mapstructure:"mode" default:"streaming"`
	// Dedupe selects how duplicate keys in folder B are resolved (last, first, reject).
	Dedupe string `mapstructure:"dedupe" default:"last"`
}

const (
	defaultChunkSize    = 1000
	defaultChunkWorkers = 4
)

// Normalize fills in values that are derived from the host or left unset.
// Header-less files can only be read whole, so they force bulk mode.
func (c *Config) Normalize() {
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.ChunkWorkers <= 0 {
		c.ChunkWorkers = defaultChunkWorkers
	}
	if c.Mode == "" {
		c.Mode = string(ModeStreaming)
	}
	if !c.HasHeader {
		c.Mode = string(ModeBulk)
	}
	if c.Dedupe == "" {
		c.Dedupe = string(DedupeLast)
	}
}

// Validate reports the first setting that makes the configuration unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.FolderA) == "" {
		return fmt.Errorf("%w: folder_a is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.FolderB) == "" {
		return fmt.Errorf("%w: folder_b is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidConfig)
	}
	if !c.Rule().Valid() {
		return fmt.Errorf("%w: matching_fields must list at least one non-empty field", ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.Separator) != 1 {
		return fmt.Errorf("%w: separator must be a single character, got %q", ErrInvalidConfig, c.Separator)
	}
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if mode == ModeStreaming && !c.HasHeader {
		return fmt.Errorf("%w: streaming mode requires has_header; use bulk mode for header-less files", ErrInvalidConfig)
	}
	if _, err := ParseDedupePolicy(c.Dedupe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Rule builds the matching rule described by the configuration.
func (c Config) Rule() MatchingRule {
	return MatchingRule{
		Fields:        c.MatchingFields,
		CaseSensitive: c.CaseSensitive,
		Trim:          c.Trim,
	}
}

// Delimiter returns the field delimiter, defaulting to a comma.
func (c Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Separator)
	if r == utf8.RuneError {
		return ','
	}
	return r
}
