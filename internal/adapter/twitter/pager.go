// internal/adapter/twitter/pager.go

package twitter

import (
	"context"
	"io"
)

// pageFunc fetches one page starting at token, sized for the remaining items
type pageFunc[T any] func(ctx context.Context, token string, remaining int) ([]T, string, error)

// pager turns token-paginated endpoints into a cursor capped at limit items
type pager[T any] struct {
	fetch     pageFunc[T]
	remaining int
	buf       []T
	token     string
	started   bool
	done      bool
}

func newPager[T any](fetch pageFunc[T], limit int) *pager[T] {
	return &pager[T]{fetch: fetch, remaining: limit}
}

func (p *pager[T]) Next(ctx context.Context) (T, error) {
	var zero T

	for len(p.buf) == 0 {
		if p.done || p.remaining <= 0 {
			return zero, io.EOF
		}
		if p.started && p.token == "" {
			p.done = true
			return zero, io.EOF
		}

		items, next, err := p.fetch(ctx, p.token, p.remaining)
		if err != nil {
			return zero, err
		}
		p.started = true
		p.token = next
		p.buf = items
		if len(items) == 0 && next == "" {
			p.done = true
		}
	}

	item := p.buf[0]
	p.buf = p.buf[1:]
	p.remaining--
	return item, nil
}

func (p *pager[T]) Close() error {
	p.done = true
	p.buf = nil
	return nil
}
