package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one query of a batch. Exactly one of
// Result and Err is set.
type BatchItem struct {
	Index  int
	Query  string
	Result *Result
	Err    error
}

// OK reports whether the query was translated.
func (b BatchItem) OK() bool {
	return b.Err == nil
}

// ProcessBatch translates queries with at most concurrency workers and
// returns one item per query, in input order. A rejected query does not
// stop the batch; a cancelled context does, and the remaining items carry
// the context error.
func (e *Engine) ProcessBatch(ctx context.Context, queries []string, concurrency int) []BatchItem {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	items := make([]BatchItem, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, q := range queries {
		items[i] = BatchItem{Index: i, Query: q}
		if err := gctx.Err(); err != nil {
			items[i].Err = err
			continue
		}
		g.Go(func() error {
			res, err := e.Process(gctx, q)
			items[i].Result = res
			items[i].Err = err
			if err != nil && !IsQueryError(err) {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Debug("batch done", "queries", len(queries), "concurrency", concurrency)
	return items
}

// Summary counts the translated and rejected items.
func Summary(items []BatchItem) (ok, failed int) {
	for _, it := range items {
		if it.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
