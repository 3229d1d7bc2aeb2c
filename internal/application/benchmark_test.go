package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-seat-booking/internal/lock"
)

type engine struct {
	seats    *application.SeatService
	bookings *application.BookingService
	all      []*seat.Seat
	date     calendar.Date
}

func newEngine(tb testing.TB, layout seat.Layout, withCache bool) *engine {
	tb.Helper()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	ledger := memory.NewLedger()

	var cache seat.AvailabilityCache
	if withCache {
		cache = memory.NewSeatCache(memory.NewStore(clock))
	}
	seats := application.NewSeatService(ledger.Seats(), cache, application.SeatServiceConfig{Clock: clock})
	_, err := seats.SeedSeats(ctx, layout)
	require.NoError(tb, err)

	all, err := seats.ListSeats(ctx, "")
	require.NoError(tb, err)

	coord := lock.NewCoordinator(memory.NewStore(clock), lock.WithClock(clock))
	return &engine{
		seats:    seats,
		bookings: application.NewBookingService(ledger.TxManager(), ledger.Bookings(), ledger.Seats(), coord, seats, application.DefaultBookingPolicy(), application.WithClock(clock)),
		all:      all,
		date:     calendar.New(2024, time.June, 2),
	}
}

// TestBenchmark_LargeScaleSeats は大規模座席数での空席照会と予約の処理時間を計測する
func TestBenchmark_LargeScaleSeats(t *testing.T) {
	if testing.Short() {
		t.Skip("大規模ベンチマークテストはshortモードではスキップ")
	}

	const (
		sections        = 50
		seatsPerSection = 100
		totalSeats      = sections * seatsPerSection
	)
	names := make([]string, sections)
	for i := range names {
		names[i] = fmt.Sprintf("S%02d", i+1)
	}

	startSeed := time.Now()
	e := newEngine(t, seat.Layout{Sections: names, SeatsPerSection: seatsPerSection}, true)
	require.Len(t, e.all, totalSeats)
	t.Logf("座席投入: %v (%d席)", time.Since(startSeed), totalSeats)

	ctx := context.Background()

	t.Run("空席照会", func(t *testing.T) {
		start := time.Now()
		free, err := e.seats.ListAvailableSeats(ctx, application.AvailabilityQuery{Date: e.date})
		require.NoError(t, err)
		require.Len(t, free, totalSeats)
		miss := time.Since(start)

		start = time.Now()
		_, err = e.seats.ListAvailableSeats(ctx, application.AvailabilityQuery{Date: e.date})
		require.NoError(t, err)
		t.Logf("キャッシュミス: %v, キャッシュヒット: %v", miss, time.Since(start))
	})

	t.Run("1000人が異なる座席を同時予約", func(t *testing.T) {
		const users = 1000
		var success, failed int32
		var wg sync.WaitGroup

		start := time.Now()
		for i := 0; i < users; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := e.bookings.Book(ctx, application.BookSeatInput{
					UserID: fmt.Sprintf("user-%05d", n),
					SeatID: e.all[n*(totalSeats/users)].ID,
					Date:   e.date,
				})
				if err == nil {
					atomic.AddInt32(&success, 1)
				} else {
					atomic.AddInt32(&failed, 1)
				}
			}(i)
		}
		wg.Wait()

		elapsed := time.Since(start)
		t.Logf("並行予約: %v (%.0f 予約/秒)", elapsed, float64(success)/elapsed.Seconds())
		require.Equal(t, int32(users), success)
		require.Zero(t, failed)

		free, err := e.seats.ListAvailableSeats(ctx, application.AvailabilityQuery{Date: e.date})
		require.NoError(t, err)
		require.Len(t, free, totalSeats-users)
	})

	t.Run("100人が同じ座席を同時予約", func(t *testing.T) {
		const users = 100
		target := e.all[totalSeats/2+1].ID
		var success, conflict int32
		var wg sync.WaitGroup

		start := time.Now()
		for i := 0; i < users; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := e.bookings.Book(ctx, application.BookSeatInput{
					UserID: fmt.Sprintf("compete-user-%03d", n),
					SeatID: target,
					Date:   e.date,
				})
				switch {
				case err == nil:
					atomic.AddInt32(&success, 1)
				case errors.Is(err, lock.ErrBusy), errors.Is(err, booking.ErrSeatTaken):
					atomic.AddInt32(&conflict, 1)
				}
			}(i)
		}
		wg.Wait()

		t.Logf("競合予約: %v (成功: %d, 競合: %d)", time.Since(start), success, conflict)
		require.Equal(t, int32(1), success, "競合予約では1人だけ成功するべき")
		require.Equal(t, int32(users-1), conflict, "残りは全て競合になるべき")
	})
}

// BenchmarkListAvailableSeats は空席照会をキャッシュあり・なしで計測する
func BenchmarkListAvailableSeats(b *testing.B) {
	layout := seat.Layout{Sections: []string{"A", "B", "C", "D"}, SeatsPerSection: 250}
	ctx := context.Background()

	for _, withCache := range []bool{false, true} {
		name := "Ledger"
		if withCache {
			name = "Cached"
		}
		b.Run(name, func(b *testing.B) {
			e := newEngine(b, layout, withCache)
			q := application.AvailabilityQuery{Date: e.date, Section: "B"}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := e.seats.ListAvailableSeats(ctx, q); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkBookAndCancel は予約と取り消しの往復を計測する
func BenchmarkBookAndCancel(b *testing.B) {
	e := newEngine(b, seat.Layout{Sections: []string{"A"}, SeatsPerSection: 20}, true)
	ctx := context.Background()
	input := application.BookSeatInput{UserID: "bench-user", SeatID: e.all[0].ID, Date: e.date}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk, err := e.bookings.Book(ctx, input)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := e.bookings.Cancel(ctx, bk.ID, input.UserID); err != nil {
			b.Fatal(err)
		}
	}
}
