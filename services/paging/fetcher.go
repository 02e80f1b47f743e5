// Package paging drives paginated list views over any page-fetching function.
package paging

import (
	"context"
	"sync"

	"servicehub/models"

	"go.uber.org/zap"
)

// ErrFetchFailed is the message surfaced when a page cannot be loaded.
const ErrFetchFailed = "Failed to fetch data"

// FetchFunc loads one page. Filters are captured in the closure.
type FetchFunc[T any] func(ctx context.Context, page int) (models.Page[T], error)

// State is a snapshot of a Fetcher.
type State[T any] struct {
	Data       []T
	Page       int
	TotalPages int
	Loading    bool
	Error      string
}

// Fetcher keeps page, data, loading and error state for one list and refetches
// whenever the page or the fetch function changes. Each load is tagged with a
// sequence number and starting a new load cancels the previous one, so a slow
// response can never overwrite the result of a newer request.
type Fetcher[T any] struct {
	mu       sync.Mutex
	base     context.Context
	fetch    FetchFunc[T]
	state    State[T]
	seq      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	logger   *zap.Logger
	onChange func(State[T])
}

type Option[T any] func(*Fetcher[T])

// WithLogger logs failed loads.
func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(f *Fetcher[T]) { f.logger = l }
}

// OnChange registers a callback invoked with a fresh snapshot after every state change.
func OnChange[T any](fn func(State[T])) Option[T] {
	return func(f *Fetcher[T]) { f.onChange = fn }
}

// StartAt opens the Fetcher on page instead of page 1.
func StartAt[T any](page int) Option[T] {
	return func(f *Fetcher[T]) {
		if page > 1 {
			f.state.Page = page
		}
	}
}

// New creates a Fetcher on page 1 and starts loading it. Loads stop when ctx is done.
func New[T any](ctx context.Context, fetch FetchFunc[T], opts ...Option[T]) *Fetcher[T] {
	f := &Fetcher[T]{
		base:   ctx,
		fetch:  fetch,
		state:  State[T]{Page: 1, Data: []T{}},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.mu.Lock()
	snap := f.loadLocked()
	f.mu.Unlock()
	f.notify(snap)
	return f
}

// State returns the current snapshot.
func (f *Fetcher[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// SetPage moves to page and refetches when it differs from the current page.
func (f *Fetcher[T]) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	f.mu.Lock()
	if page == f.state.Page {
		f.mu.Unlock()
		return
	}
	f.state.Page = page
	snap := f.loadLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// Next moves one page forward unless already on the last page.
func (f *Fetcher[T]) Next() {
	s := f.State()
	if s.TotalPages > 0 && s.Page >= s.TotalPages {
		return
	}
	f.SetPage(s.Page + 1)
}

// Prev moves one page back unless already on the first page.
func (f *Fetcher[T]) Prev() {
	f.SetPage(f.State().Page - 1)
}

// SetFetch installs a new fetch function (for example after a filter change)
// and refetches the current page.
func (f *Fetcher[T]) SetFetch(fetch FetchFunc[T]) {
	f.mu.Lock()
	f.fetch = fetch
	snap := f.loadLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// Reset installs a new fetch function and reloads from page 1, as a search
// change does.
func (f *Fetcher[T]) Reset(fetch FetchFunc[T]) {
	f.mu.Lock()
	f.fetch = fetch
	f.state.Page = 1
	snap := f.loadLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// Refresh refetches the current page.
func (f *Fetcher[T]) Refresh() {
	f.mu.Lock()
	snap := f.loadLocked()
	f.mu.Unlock()
	f.notify(snap)
}

// Wait blocks until the most recent load has settled and returns the resulting state.
func (f *Fetcher[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		f.mu.Lock()
		done := f.done
		f.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return f.State(), ctx.Err()
		}

		f.mu.Lock()
		if f.done == done {
			snap := f.snapshotLocked()
			f.mu.Unlock()
			return snap, nil
		}
		f.mu.Unlock()
	}
}

// Close cancels any in-flight load and discards its result.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.state.Loading = false
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher[T]) loadLocked() State[T] {
	if f.cancel != nil {
		f.cancel()
	}
	f.seq++
	seq := f.seq
	ctx, cancel := context.WithCancel(f.base)
	done := make(chan struct{})
	f.cancel = cancel
	f.done = done
	f.state.Loading = true
	f.state.Error = ""

	go f.run(ctx, cancel, seq, f.state.Page, f.fetch, done)
	return f.snapshotLocked()
}

func (f *Fetcher[T]) run(ctx context.Context, cancel context.CancelFunc, seq uint64, page int, fetch FetchFunc[T], done chan struct{}) {
	defer close(done)
	defer cancel()

	res, err := fetch(ctx, page)

	f.mu.Lock()
	if seq != f.seq {
		f.mu.Unlock()
		f.logger.Debug("paging: dropped stale response", zap.Int("page", page), zap.Uint64("seq", seq))
		return
	}
	f.state.Loading = false
	f.cancel = nil
	if err != nil {
		f.state.Error = ErrFetchFailed
		f.logger.Warn("paging: fetch failed", zap.Int("page", page), zap.Error(err))
	} else {
		f.state.Data = res.Data
		if f.state.Data == nil {
			f.state.Data = []T{}
		}
		f.state.TotalPages = res.TotalPages
		if res.CurrentPage > 0 {
			f.state.Page = res.CurrentPage
		}
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

func (f *Fetcher[T]) snapshotLocked() State[T] {
	s := f.state
	s.Data = append([]T(nil), f.state.Data...)
	if s.Data == nil {
		s.Data = []T{}
	}
	return s
}

func (f *Fetcher[T]) notify(s State[T]) {
	if f.onChange != nil {
		f.onChange(s)
	}
}
