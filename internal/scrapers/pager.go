package scrapers

import (
	"context"
	"time"

	"hearthstats/internal/components/assert"
	"hearthstats/internal/components/telemetry"

	"github.com/cenkalti/backoff/v4"
)

const (
	report_pager_retry = "pager.retry"
	report_pager_fail  = "pager.fail"
)

type PagerState int

const (
	// Requesting means the next page has not been fetched yet.
	Requesting PagerState = iota
	// HasPage means Items holds the current page.
	HasPage
	// Exhausted means the source returned an empty page or the last known
	// page was consumed. It is terminal.
	Exhausted
	// Failed means a page could not be fetched after retries, or the fetch
	// failed with a non retryable error. It is terminal.
	Failed
)

func (s PagerState) String() string {
	switch s {
	case Requesting:
		return "requesting"
	case HasPage:
		return "has-page"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// FetchPage returns the items of a 1-indexed page, an empty slice means
// there are no more pages.
type FetchPage[T any] func(ctx context.Context, page int) ([]T, error)

type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

func (p RetryPolicy) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
}

// Retry calls fn until it succeeds, fails with an error that is not
// retryable or the policy gives up. notify is called before every retry and
// may be nil.
func Retry[T any](ctx context.Context, policy RetryPolicy, notify backoff.Notify, fn func() (T, error)) (T, error) {
	return backoff.RetryNotifyWithData(
		func() (T, error) {
			result, err := fn()
			if err != nil && !IsRetryable(err) {
				return result, backoff.Permanent(err)
			}
			return result, err
		},
		policy.backoff(ctx),
		notify,
	)
}

// Pager walks a paginated source one page at a time.
//
//	for pager.Next(ctx) {
//		use(pager.Items())
//	}
//	if pager.State() == scrapers.Failed { ... pager.Err() ... }
type Pager[T any] struct {
	fetch  FetchPage[T]
	policy RetryPolicy
	tel    telemetry.API

	state    PagerState
	page     int
	lastPage int
	items    []T
	err      error
}

func NewPager[T any](fetch FetchPage[T], policy RetryPolicy, tel telemetry.API) *Pager[T] {
	assert.NotNil(fetch)
	assert.NotNil(tel)
	return &Pager[T]{
		fetch:  fetch,
		policy: policy,
		tel:    tel,
		state:  Requesting,
	}
}

// SetLastPage bounds the walk when the source reports its page count, n <= 0
// removes the bound.
func (p *Pager[T]) SetLastPage(n int) {
	p.lastPage = n
}

func (p *Pager[T]) State() PagerState {
	return p.state
}

// Page is the number of the page held by Items.
func (p *Pager[T]) Page() int {
	return p.page
}

func (p *Pager[T]) Items() []T {
	return p.items
}

// Err is the error that moved the pager into Failed.
func (p *Pager[T]) Err() error {
	return p.err
}

// Next fetches the following page and reports whether one is available.
func (p *Pager[T]) Next(ctx context.Context) bool {
	if p.state == Exhausted || p.state == Failed {
		return false
	}
	p.state = Requesting
	p.items = nil

	next := p.page + 1
	if p.lastPage > 0 && next > p.lastPage {
		p.state = Exhausted
		return false
	}
	if err := ctx.Err(); err != nil {
		p.fail(err)
		return false
	}

	items, err := Retry(ctx, p.policy, func(err error, wait time.Duration) {
		p.tel.ReportWarning(report_pager_retry, next, wait.String(), err)
	}, func() ([]T, error) {
		return p.fetch(ctx, next)
	})
	if err != nil {
		p.fail(err)
		return false
	}

	p.page = next
	if len(items) == 0 {
		p.state = Exhausted
		return false
	}
	p.items = items
	p.state = HasPage
	return true
}

func (p *Pager[T]) fail(err error) {
	p.state = Failed
	p.err = err
	p.tel.ReportBroken(report_pager_fail, p.page+1, err)
}
