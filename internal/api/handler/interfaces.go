package handler

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
)

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	ListAvailableSeats(ctx context.Context, q application.AvailabilityQuery) ([]*seat.Seat, error)
	GetSeat(ctx context.Context, id string) (*seat.Seat, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	Book(ctx context.Context, input application.BookSeatInput) (*booking.Booking, error)
	Cancel(ctx context.Context, bookingID, userID string) (*booking.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error)
	ListUserBookings(ctx context.Context, input application.ListBookingsInput) ([]*booking.Booking, error)
}

var (
	_ SeatServiceInterface    = (*application.SeatService)(nil)
	_ BookingServiceInterface = (*application.BookingService)(nil)
)
