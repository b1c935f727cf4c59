// package paginator adapts cursor-based remote listings into a uniform
// fetch-next-page contract used to walk full collections.
package paginator

import (
	"context"
	"fmt"
)

// PageFunc fetches one page of items for the given cursor. The first call
// receives an empty cursor. A page is final when next is empty or items is
// empty; each call advances the remote cursor, so a PageFunc is not
// restartable.
type PageFunc[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// Pager walks a paginated remote collection one page at a time. It buffers at
// most one page, preserves remote ordering, and fails fast on fetch errors;
// retry policy belongs to the caller.
type Pager[T any] struct {
	fetch  PageFunc[T]
	cursor string
	done   bool
}

// New creates a Pager over the given page fetcher.
func New[T any](fetch PageFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch}
}

// Next fetches the next page. It returns nil items once the collection is
// exhausted. After an error the pager is terminal and further calls return
// the exhausted state.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		p.done = true
		return nil, err
	}

	items, next, err := p.fetch(ctx, p.cursor)
	if err != nil {
		p.done = true
		return nil, fmt.Errorf("page fetch failed (cursor %q): %w", p.cursor, err)
	}

	if len(items) == 0 {
		p.done = true
		return nil, nil
	}

	if next == "" {
		p.done = true
	}
	p.cursor = next

	return items, nil
}

// Done reports whether the pager has been exhausted or has failed.
func (p *Pager[T]) Done() bool {
	return p.done
}

// All drains the pager and returns every remaining item in remote order.
func (p *Pager[T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for !p.done {
		items, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

// Collect is a convenience that drains a fresh pager over fetch.
func Collect[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	return New(fetch).All(ctx)
}
