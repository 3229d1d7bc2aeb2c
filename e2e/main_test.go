package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-seat-booking/internal/api/router"
	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-seat-booking/internal/lock"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

// TestServer はインメモリの台帳・ロック・キャッシュで起動したE2Eテスト用サーバー
type TestServer struct {
	Echo  *echo.Echo
	Clock clockwork.FakeClock
	// SeatIDs はラベル（A-01 など）から座席IDへの対応
	SeatIDs map[string]string
}

// NewTestServer は A, B の2セクション×3席を投入したサーバーを作成する
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	ctx := context.Background()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	ledger := memory.NewLedger()
	coord := lock.NewCoordinator(memory.NewStore(clock), lock.WithClock(clock), lock.WithMetrics(m))

	seatService := application.NewSeatService(ledger.Seats(), memory.NewSeatCache(memory.NewStore(clock)), application.SeatServiceConfig{
		Clock:   clock,
		Metrics: m,
	})
	_, err := seatService.SeedSeats(ctx, seat.Layout{Sections: []string{"A", "B"}, SeatsPerSection: 3})
	require.NoError(t, err)

	bookingService := application.NewBookingService(
		ledger.TxManager(), ledger.Bookings(), ledger.Seats(), coord, seatService,
		application.DefaultBookingPolicy(),
		application.WithClock(clock),
		application.WithMetrics(m),
	)

	e := router.New(router.Handlers{
		Booking: handler.NewBookingHandler(bookingService),
		Seat:    handler.NewSeatHandler(seatService),
		Health: handler.NewHealthHandler(map[string]handler.Checker{
			"ledger": func(ctx context.Context) error {
				_, err := ledger.Seats().Count(ctx)
				return err
			},
		}),
	}, router.Options{Metrics: m, Gatherer: reg})

	all, err := seatService.ListSeats(ctx, "")
	require.NoError(t, err)
	ids := make(map[string]string, len(all))
	for _, s := range all {
		ids[s.Label()] = s.ID
	}

	return &TestServer{Echo: e, Clock: clock, SeatIDs: ids}
}

// Request はHTTPリクエストを実行する（userID が空なら X-User-ID を付けない）
func (s *TestServer) Request(method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(handler.HeaderUserID, userID)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// Book は座席ラベルと日付で予約リクエストを送る
func (s *TestServer) Book(userID, label, date string) *httptest.ResponseRecorder {
	return s.Request(http.MethodPost, "/api/v1/bookings", map[string]string{
		"seat_id":      s.SeatIDs[label],
		"booking_date": date,
	}, userID)
}

// AvailableLabels は指定日の空席ラベルを返す
func (s *TestServer) AvailableLabels(t *testing.T, date string) []string {
	t.Helper()
	rec := s.Request(http.MethodGet, "/api/v1/seats?date="+date, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var seats []handler.SeatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
	labels := make([]string, len(seats))
	for i, st := range seats {
		labels[i] = st.Label
	}
	return labels
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
