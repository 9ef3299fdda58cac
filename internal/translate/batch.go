package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const defaultConcurrency = 3

// one API request worth of items
type batchFunc func(ctx context.Context, items []Item) ([]Result, error)

func splitBatches(items []Item, size int) [][]Item {
	var batches [][]Item
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
}

// translateSequential sends the batches one after another.
func translateSequential(ctx context.Context, items []Item, size int, fn batchFunc) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}

	var all []Result
	for i, batch := range splitBatches(items, size) {
		results, err := fn(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", i, err)
		}
		all = append(all, results...)
	}
	sortResults(all)
	return all, nil
}

// translateConcurrent splits items into batches and lets up to concurrency
// workers pull them from a shared queue. The first failure cancels the rest.
func translateConcurrent(ctx context.Context, items []Item, size, concurrency int, fn batchFunc) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	batches := splitBatches(items, size)
	if len(batches) == 1 {
		return fn(ctx, batches[0])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		index   int
		results []Result
		err     error
	}

	work := make(chan int)
	out := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					return
				}
				results, err := fn(ctx, batches[idx])
				if err != nil {
					cancel()
				}
				out <- batchResult{index: idx, results: results, err: err}
			}
		}()
	}

	go func() {
		defer close(work)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case work <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	var (
		all      []Result
		firstErr error
	)
	for r := range out {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", r.index, r.err)
			}
			continue
		}
		all = append(all, r.results...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(all) < len(items) {
		return nil, err
	}

	sortResults(all)
	return all, nil
}
