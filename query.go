package encsearch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome for one search candidate.
// Exactly one of Record and Err is meaningful.
type Result struct {
	ID     int64 // zero when the posting entry itself could not be opened
	Record Record
	Err    error
}

// OK reports whether the candidate decrypted successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// Records returns the successful records of results, in order.
func Records(results []Result) []Record {
	out := make([]Record, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Record)
		}
	}
	return out
}

// SearchByKeyword returns the records containing keyword in their name,
// description, or category. Unknown keywords return an empty slice.
// Candidates that fail to decrypt are dropped; only storage failures of the
// postings lookup itself are returned as errors.
func (e *Engine) SearchByKeyword(ctx context.Context, keyword string) ([]Record, error) {
	results, err := e.KeywordResults(ctx, keyword)
	if err != nil {
		return nil, err
	}
	records := Records(results)
	e.metrics.SearchResults.WithLabelValues(kindKeyword).Observe(float64(len(records)))
	return records, nil
}

// SearchByEqualityField returns the records whose name equals value after
// normalization. Failed candidates are dropped as in SearchByKeyword.
func (e *Engine) SearchByEqualityField(ctx context.Context, value string) ([]Record, error) {
	results, err := e.EqualityResults(ctx, value)
	if err != nil {
		return nil, err
	}
	records := Records(results)
	e.metrics.SearchResults.WithLabelValues(kindEquality).Observe(float64(len(records)))
	return records, nil
}

// KeywordResults is SearchByKeyword with a Result per candidate, including failures.
// Candidates appear in posting order; an id listed by several entries appears once.
func (e *Engine) KeywordResults(ctx context.Context, keyword string) ([]Result, error) {
	release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	e.metrics.SearchQueries.WithLabelValues(kindKeyword).Inc()

	token := e.keywords.Token(keyword)
	entries, err := e.store.GetKeyword(ctx, token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("fetching postings: %w", err)
	}
	e.logger.Debug("keyword query", zap.Int("postings", len(entries)))

	results := make([]Result, 0, len(entries))
	ids := make([]int64, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		id, err := e.openDocID(entry)
		if err != nil {
			results = append(results, Result{Err: err})
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	results = append(results, e.fetch(ctx, ids)...)
	e.report(kindKeyword, results)
	return results, nil
}

// EqualityResults is SearchByEqualityField with a Result per candidate, in id order.
func (e *Engine) EqualityResults(ctx context.Context, value string) ([]Result, error) {
	release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	e.metrics.SearchQueries.WithLabelValues(kindEquality).Inc()

	ids, err := e.store.GetEquality(ctx, e.equality.Token(value))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("fetching equality ids: %w", err)
	}
	e.logger.Debug("equality query", zap.Int("candidates", len(ids)))

	ids = uniqueSorted(ids)
	results := e.fetch(ctx, ids)
	e.report(kindEquality, results)
	return results, nil
}

// openDocID decrypts a posting entry into a positive document id.
func (e *Engine) openDocID(entry []byte) (int64, error) {
	plain, err := e.records.Decrypt(entry)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(string(plain), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: posting holds %q", ErrMalformedRecord, plain)
	}
	return id, nil
}

// fetch loads and decrypts the records of ids in parallel, bounded by the
// configured query concurrency. The result order follows ids.
func (e *Engine) fetch(ctx context.Context, ids []int64) []Result {
	results := make([]Result, len(ids))
	var g errgroup.Group
	g.SetLimit(e.config.queryConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = e.fetchOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait() // fetchOne never fails the group
	return results
}

func (e *Engine) fetchOne(ctx context.Context, id int64) Result {
	enc, err := e.store.Get(ctx, id)
	if err != nil {
		return Result{ID: id, Err: err}
	}
	rec, err := e.openRecord(enc)
	if err != nil {
		return Result{ID: id, Err: err}
	}
	return Result{ID: id, Record: rec}
}

// report logs and counts the failed candidates of one query.
func (e *Engine) report(kind string, results []Result) {
	for _, r := range results {
		if r.OK() {
			continue
		}
		reason := failureReason(r.Err)
		e.metrics.CandidatesDropped.WithLabelValues(kind, reason).Inc()
		e.logger.Warn("dropping search candidate",
			zap.String("kind", kind),
			zap.Int64("id", r.ID),
			zap.String("reason", reason),
			zap.Error(r.Err),
		)
	}
}

func uniqueSorted(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
