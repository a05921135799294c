package scrapers

import (
	"context"
	"errors"
	"testing"
	"time"

	"hearthstats/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

func collect[T any](ctx context.Context, p *Pager[T]) []T {
	var out []T
	for p.Next(ctx) {
		out = append(out, p.Items()...)
	}
	return out
}

func TestPagerStopsAtEmptyPage(t *testing.T) {
	pages := [][]int{{1, 2}, {3, 4}, {5}}
	var calls []int
	pager := NewPager(func(ctx context.Context, page int) ([]int, error) {
		calls = append(calls, page)
		if page > len(pages) {
			return nil, nil
		}
		return pages[page-1], nil
	}, fastRetry, telemetry.NewRecorder())

	require.Equal(t, Requesting, pager.State())
	require.Equal(t, []int{1, 2, 3, 4, 5}, collect(context.Background(), pager))
	require.Equal(t, Exhausted, pager.State())
	require.NoError(t, pager.Err())
	require.Equal(t, []int{1, 2, 3, 4}, calls)

	// terminal states stay terminal
	require.False(t, pager.Next(context.Background()))
	require.Len(t, calls, 4)
}

func TestPagerLastPage(t *testing.T) {
	calls := 0
	pager := NewPager(func(ctx context.Context, page int) ([]int, error) {
		calls++
		return []int{page}, nil
	}, fastRetry, telemetry.NewRecorder())
	pager.SetLastPage(3)

	require.Equal(t, []int{1, 2, 3}, collect(context.Background(), pager))
	require.Equal(t, Exhausted, pager.State())
	require.Equal(t, 3, calls)
}

func TestPagerRetriesTransientErrors(t *testing.T) {
	tel := telemetry.NewRecorder()
	failures := 2
	pager := NewPager(func(ctx context.Context, page int) ([]int, error) {
		if page == 1 && failures > 0 {
			failures--
			return nil, &TransportError{URL: "/decks", Status: 503, Retryable: true}
		}
		if page > 1 {
			return nil, nil
		}
		return []int{7}, nil
	}, fastRetry, tel)

	require.Equal(t, []int{7}, collect(context.Background(), pager))
	require.Equal(t, Exhausted, pager.State())
	require.Len(t, tel.Find(telemetry.KindWarning, report_pager_retry), 2)
}

func TestPagerFailsAfterRetries(t *testing.T) {
	tel := telemetry.NewRecorder()
	calls := 0
	pager := NewPager(func(ctx context.Context, page int) ([]int, error) {
		if page == 1 {
			return []int{1}, nil
		}
		calls++
		return nil, &TransportError{URL: "/decks", Err: errors.New("connection reset"), Retryable: true}
	}, fastRetry, tel)

	items := collect(context.Background(), pager)
	require.Equal(t, []int{1}, items)
	require.Equal(t, Failed, pager.State())
	require.True(t, IsTransport(pager.Err()))
	require.Equal(t, 3, calls)
	require.Len(t, tel.Find(telemetry.KindBroken, report_pager_fail), 1)
}

func TestPagerNeverRetriesAuthErrors(t *testing.T) {
	calls := 0
	pager := NewPager(func(ctx context.Context, page int) ([]int, error) {
		calls++
		return nil, &AuthError{Reason: "missing api key"}
	}, fastRetry, telemetry.NewRecorder())

	require.False(t, pager.Next(context.Background()))
	require.Equal(t, Failed, pager.State())
	require.True(t, IsAuth(pager.Err()))
	require.Equal(t, 1, calls)
}

func TestPagerNonRetryableStatus(t *testing.T) {
	calls := 0
	pager := NewPager(func(ctx context.Context, page int) ([]int, error) {
		calls++
		return nil, &TransportError{URL: "/decks", Status: 404}
	}, fastRetry, telemetry.NewRecorder())

	require.False(t, pager.Next(context.Background()))
	require.Equal(t, 1, calls)
	require.False(t, IsRetryable(pager.Err()))
}

func TestPagerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pager := NewPager(func(_ context.Context, page int) ([]int, error) {
		if page == 2 {
			cancel()
		}
		return []int{page}, nil
	}, fastRetry, telemetry.NewRecorder())

	require.Equal(t, []int{1, 2}, collect(ctx, pager))
	require.Equal(t, Failed, pager.State())
	require.ErrorIs(t, pager.Err(), context.Canceled)
}

func TestRetry(t *testing.T) {
	calls := 0
	value, err := Retry(context.Background(), fastRetry, nil, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &TransportError{URL: "/cards/1", Status: 429, Retryable: true}
		}
		return "Fireball", nil
	})
	require.NoError(t, err)
	require.Equal(t, "Fireball", value)
	require.Equal(t, 3, calls)

	calls = 0
	_, err = Retry(context.Background(), fastRetry, nil, func() (string, error) {
		calls++
		return "", &ParseError{Entity: "card 1", Err: errors.New("no title")}
	})
	require.True(t, IsParse(err))
	require.Equal(t, 1, calls)
}
