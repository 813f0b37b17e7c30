// Package reconcile compares two collections of records per file pair and
// splits them into Matched, OnlyInA and OnlyInB.
//
// Record identity is defined by a MatchingRule: an ordered list of key
// fields plus trim and case-folding flags. A Matcher turns every record into
// a match key; records lacking a key field are counted and skipped.
//
// # Architecture
//
// The package is layered bottom-up:
//
// 1. Matcher: key derivation and field coverage.
//
// 2. Categorizer: indexes folder B, then scans folder A chunks with a fixed
// worker pool against the frozen index. Duplicate keys in folder B are
// resolved by a DedupePolicy. Bulk mode runs the same code over in-memory
// slices.
//
// 3. PairProcessor: reads both files of a pair, categorizes, hands the
// outcome to an OutputWriter and turns every failure into a PairResult.
//
// 4. Runner: fans pairs out with bounded parallelism and merges PairResults
// into a RunResult on a single goroutine.
//
// # Usage Example
//
//	matcher := reconcile.NewMatcher(cfg.Rule())
//	categorizer := reconcile.NewCategorizer(matcher, reconcile.CategorizerOptions{Workers: 4})
//	processor := reconcile.NewPairProcessor(reader, categorizer, writer, reconcile.ModeStreaming, log)
//	runner := reconcile.NewRunner(processor, summary, cfg.Parallelism, log)
//	result, err := runner.Run(ctx, pairs)
package reconcile
