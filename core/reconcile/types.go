package reconcile

import (
	"fmt"
	"time"

	"csv-reconciler/core/tabular"
)

// Record is a parsed row keyed by field name.
type Record = tabular.Record

// Mode selects how a pair's records are categorized.
type Mode string

const (
	// ModeStreaming indexes folder B fully and streams folder A in chunks.
	ModeStreaming Mode = "streaming"
	// ModeBulk loads both files into memory before categorizing.
	ModeBulk Mode = "bulk"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStreaming, ModeBulk:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (use streaming or bulk)", s)
	}
}

// Pair identifies the two files reconciled as one unit. An empty path means
// the file does not exist on that side.
type Pair struct {
	// Name is the shared base file name, without extension.
	Name string `json:"name"`
	// PathA is the file path in folder A.
	PathA string `json:"path_a,omitempty"`
	// PathB is the file path in folder B.
	PathB string `json:"path_b,omitempty"`
}

// Status describes how a pair's processing ended.
type Status string

const (
	// StatusOK means the pair was read, categorized and written.
	StatusOK Status = "ok"
	// StatusMissing means one of the two files does not exist.
	StatusMissing Status = "missing"
	// StatusFailed means processing stopped on an error.
	StatusFailed Status = "failed"
)

// Side names used in logs and results.
const (
	SideA = "FolderA"
	SideB = "FolderB"
)

// Categorized holds the three partitions of one pair plus per-side counters.
type Categorized struct {
	// Matched holds folder A records whose key exists in folder B.
	Matched []Record
	// OnlyInA holds folder A records whose key does not exist in folder B.
	OnlyInA []Record
	// OnlyInB holds folder B records whose key no folder A record matched.
	OnlyInB []Record

	// TotalA is the number of records parsed from folder A.
	TotalA int
	// TotalB is the number of records parsed from folder B.
	TotalB int
	// InvalidA counts folder A records lacking a matching field.
	InvalidA int
	// InvalidB counts folder B records lacking a matching field.
	InvalidB int
	// DuplicatesB counts folder B records whose key was already indexed.
	DuplicatesB int
}

// Outcome is everything produced for a pair, handed to the OutputWriter.
type Outcome struct {
	*Categorized

	// MalformedA holds the malformed rows of the folder A file.
	MalformedA tabular.MalformedRows
	// MalformedB holds the malformed rows of the folder B file.
	MalformedB tabular.MalformedRows

	// ColumnsA lists the folder A header fields in file order.
	ColumnsA []string
	// ColumnsB lists the folder B header fields in file order.
	ColumnsB []string
}

// PairResult summarizes the reconciliation of one pair.
type PairResult struct {
	FileName           string `json:"file_name"`
	Status             Status `json:"status"`
	MissingSide        string `json:"missing_side,omitempty"`
	Error              string `json:"error,omitempty"`
	TotalInFolderA     int    `json:"total_in_folder_a"`
	TotalInFolderB     int    `json:"total_in_folder_b"`
	MatchedCount       int    `json:"matched_count"`
	OnlyInFolderACount int    `json:"only_in_folder_a_count"`
	OnlyInFolderBCount int    `json:"only_in_folder_b_count"`
	InvalidInFolderA   int    `json:"invalid_in_folder_a,omitempty"`
	InvalidInFolderB   int    `json:"invalid_in_folder_b,omitempty"`
	MalformedInFolderA int    `json:"malformed_in_folder_a,omitempty"`
	MalformedInFolderB int    `json:"malformed_in_folder_b,omitempty"`
	ProcessingTimeMs   int64  `json:"processing_time_ms"`
}

// RunResult aggregates every pair of a run.
type RunResult struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// FilePairResults holds one entry per pair, sorted by file name.
	FilePairResults []PairResult `json:"file_pair_results"`

	TotalInFolderA        int   `json:"total_in_folder_a"`
	TotalInFolderB        int   `json:"total_in_folder_b"`
	TotalMatched          int   `json:"total_matched"`
	TotalOnlyInFolderA    int   `json:"total_only_in_folder_a"`
	TotalOnlyInFolderB    int   `json:"total_only_in_folder_b"`
	TotalProcessingTimeMs int64 `json:"total_processing_time_ms"`

	// SuccessfulPairs counts every pair the orchestrator returned a result
	// for, including missing and failed ones.
	SuccessfulPairs int `json:"successful_pairs"`
	// FailedPairs counts pairs whose processing stopped on an error.
	FailedPairs int `json:"failed_pairs"`
	// MissingFiles counts pairs with a file absent on one side.
	MissingFiles int `json:"missing_files"`
	// EmptyPairs counts pairs whose files both exist but hold no records.
	EmptyPairs int `json:"empty_pairs"`

	// SummaryJSONPath is where the global summary was written.
	SummaryJSONPath string `json:"summary_json_path,omitempty"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Merge applies one pair result to the aggregate as a single unit.
func (r *RunResult) Merge(pr PairResult) {
	r.FilePairResults = append(r.FilePairResults, pr)

	r.SuccessfulPairs++
	r.TotalInFolderA += pr.TotalInFolderA
	r.TotalInFolderB += pr.TotalInFolderB
	r.TotalMatched += pr.MatchedCount
	r.TotalOnlyInFolderA += pr.OnlyInFolderACount
	r.TotalOnlyInFolderB += pr.OnlyInFolderBCount
	r.TotalProcessingTimeMs += pr.ProcessingTimeMs

	switch pr.Status {
	case StatusFailed:
		r.FailedPairs++
	case StatusMissing:
		r.MissingFiles++
	default:
		if pr.TotalInFolderA == 0 && pr.TotalInFolderB == 0 {
			r.EmptyPairs++
		}
	}
}
