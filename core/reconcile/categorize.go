package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ChunkSource yields records in bounded chunks and returns io.EOF once
// exhausted. *tabular.ChunkReader satisfies it.
type ChunkSource interface {
	Next() ([]Record, error)
}

// CategorizerOptions tunes a Categorizer.
type CategorizerOptions struct {
	// Dedupe resolves repeated keys in folder B.
	Dedupe DedupePolicy
	// Workers is the number of goroutines scanning folder A chunks.
	Workers int
	// ChunkSize splits in-memory collections in bulk mode.
	ChunkSize int
}

// Categorizer splits a pair's records into Matched, OnlyInA and OnlyInB.
type Categorizer struct {
	matcher *Matcher
	opts    CategorizerOptions
}

// NewCategorizer creates a Categorizer keyed by matcher.
func NewCategorizer(matcher *Matcher, opts CategorizerOptions) *Categorizer {
	if opts.Workers <= 0 {
		opts.Workers = defaultChunkWorkers
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Dedupe == "" {
		opts.Dedupe = DedupeLast
	}
	return &Categorizer{matcher: matcher, opts: opts}
}

// Categorize partitions two in-memory collections. It follows exactly the
// same rules as Stream.
func (c *Categorizer) Categorize(ctx context.Context, recordsA, recordsB []Record) (*Categorized, error) {
	return c.Stream(ctx, newSliceSource(recordsA, c.opts.ChunkSize), newSliceSource(recordsB, c.opts.ChunkSize))
}

// Stream drains b into a key index, then scans a's chunks concurrently
// against the frozen index. Folder A records are never de-duplicated: each
// occurrence is matched or only-in-A on its own. Output order follows the
// source order of each side.
func (c *Categorizer) Stream(ctx context.Context, a, b ChunkSource) (*Categorized, error) {
	out := &Categorized{}

	idx, err := c.buildIndex(b, out)
	if err != nil {
		return nil, err
	}

	matchedKeys := NewKeySet()
	if err := c.scan(ctx, a, idx, matchedKeys, out); err != nil {
		return nil, err
	}

	out.OnlyInB = idx.Complement(matchedKeys)
	return out, nil
}

// buildIndex reads every chunk of src before returning; the index must be
// complete before any lookup happens.
func (c *Categorizer) buildIndex(src ChunkSource, out *Categorized) (*Index, error) {
	idx := NewIndex(c.opts.Dedupe)
	for {
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", SideB, err)
		}

		for _, rec := range chunk {
			out.TotalB++
			cov := c.matcher.Cover(rec)
			if !cov.Eligible {
				out.InvalidB++
				continue
			}
			if err := idx.Add(cov.Key, rec); err != nil {
				return nil, err
			}
		}
	}
	out.DuplicatesB = idx.Duplicates()
	return idx, nil
}

type sequencedChunk struct {
	seq     int
	records []Record
}

type chunkResult struct {
	matched []Record
	onlyInA []Record
	invalid int
}

// scan runs one reader feeding a fixed pool of workers. Results are stored
// by chunk sequence and stitched back together in source order.
func (c *Categorizer) scan(ctx context.Context, src ChunkSource, idx *Index, matchedKeys *KeySet, out *Categorized) error {
	var (
		mu      sync.Mutex
		results = make(map[int]chunkResult)
		chunks  = make(chan sequencedChunk, c.opts.Workers)
		total   int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)
		for seq := 0; ; seq++ {
			chunk, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", SideA, err)
			}
			total += len(chunk)

			select {
			case chunks <- sequencedChunk{seq: seq, records: chunk}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for i := 0; i < c.opts.Workers; i++ {
		g.Go(func() error {
			for sc := range chunks {
				res := c.categorizeChunk(sc.records, idx, matchedKeys)
				mu.Lock()
				results[sc.seq] = res
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	out.TotalA = total
	for seq := 0; seq < len(results); seq++ {
		res := results[seq]
		out.Matched = append(out.Matched, res.matched...)
		out.OnlyInA = append(out.OnlyInA, res.onlyInA...)
		out.InvalidA += res.invalid
	}
	return nil
}

func (c *Categorizer) categorizeChunk(records []Record, idx *Index, matchedKeys *KeySet) chunkResult {
	var res chunkResult
	for _, rec := range records {
		cov := c.matcher.Cover(rec)
		if !cov.Eligible {
			res.invalid++
			continue
		}
		if _, ok := idx.Lookup(cov.Key); ok {
			res.matched = append(res.matched, rec)
			matchedKeys.Add(cov.Key)
		} else {
			res.onlyInA = append(res.onlyInA, rec)
		}
	}
	return res
}

// sliceSource serves an in-memory collection as chunks.
type sliceSource struct {
	records []Record
	size    int
}

func newSliceSource(records []Record, size int) *sliceSource {
	return &sliceSource{records: records, size: size}
}

func (s *sliceSource) Next() ([]Record, error) {
	if len(s.records) == 0 {
		return nil, io.EOF
	}
	n := min(s.size, len(s.records))
	chunk := s.records[:n]
	s.records = s.records[n:]
	return chunk, nil
}
