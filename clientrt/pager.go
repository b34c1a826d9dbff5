package clientrt

import (
	"context"
	"iter"
	"net/http"
)

// Continuable is implemented by page types that can point at the next page.
// An empty string means there are no more pages.
type Continuable interface {
	Continuation() string
}

// PageFetcher wires a Pager to one operation.
type PageFetcher[T Continuable] struct {
	// First builds the request for the first page.
	First func(ctx context.Context) (*http.Request, error)
	// Next builds the request for the page a continuation token points at.
	Next func(ctx context.Context, token string) (*http.Request, error)
	// Do sends a request.
	Do func(req *http.Request) (*http.Response, error)
	// Decode maps a response onto the operation's response type.
	Decode func(resp *http.Response) (T, error)
	// Wrap, when set, annotates every error the pager returns.
	Wrap func(err error) error
}

// Pager pulls pages lazily, one request per NextPage call. It is not safe
// for concurrent use and cannot be rewound; build a new one to start over.
type Pager[T Continuable] struct {
	fetcher PageFetcher[T]
	started bool
	next    string
}

// NewPager returns a pager positioned before the first page.
func NewPager[T Continuable](f PageFetcher[T]) *Pager[T] {
	return &Pager[T]{fetcher: f}
}

// More reports whether another page can be fetched.
func (p *Pager[T]) More() bool {
	return !p.started || p.next != ""
}

// NextPage fetches the next page.
func (p *Pager[T]) NextPage(ctx context.Context) (T, error) {
	var zero T
	if !p.More() {
		return zero, ErrNoMorePages
	}
	var (
		req *http.Request
		err error
	)
	if !p.started {
		req, err = p.fetcher.First(ctx)
	} else {
		req, err = p.fetcher.Next(ctx, p.next)
	}
	if err != nil {
		return zero, p.wrap(err)
	}
	resp, err := p.fetcher.Do(req)
	if err != nil {
		return zero, p.wrap(err)
	}
	page, err := p.fetcher.Decode(resp)
	if err != nil {
		return zero, p.wrap(err)
	}
	p.started = true
	p.next = page.Continuation()
	return page, nil
}

// All yields every remaining page. Iteration stops after the first error.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for p.More() {
			page, err := p.NextPage(ctx)
			if !yield(page, err) || err != nil {
				return
			}
		}
	}
}

func (p *Pager[T]) wrap(err error) error {
	if p.fetcher.Wrap == nil {
		return err
	}
	return p.fetcher.Wrap(err)
}
