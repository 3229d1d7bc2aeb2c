package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/lock"
)

// HeaderUserID は呼び出し元ユーザーを示すヘッダー
const HeaderUserID = "X-User-ID"

var errUserIDRequired = echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")

func currentUser(c echo.Context) (string, error) {
	userID := c.Request().Header.Get(HeaderUserID)
	if userID == "" {
		return "", errUserIDRequired
	}
	return userID, nil
}

// toHTTPError はドメインエラーをHTTPエラーに変換する
// 混雑による拒否には Retry-After を付ける
func toHTTPError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, lock.ErrBusy):
		c.Response().Header().Set("Retry-After", "1")
		return echo.NewHTTPError(http.StatusConflict, lock.ErrBusy.Error())
	case errors.Is(err, lock.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, lock.ErrUnavailable.Error()).SetInternal(err)
	case errors.Is(err, lock.ErrLeaseLost):
		return echo.NewHTTPError(http.StatusConflict, lock.ErrLeaseLost.Error())
	case errors.Is(err, booking.ErrSeatTaken),
		errors.Is(err, booking.ErrDailyLimitExceeded),
		errors.Is(err, booking.ErrAlreadyCancelled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrBookingNotFound), errors.Is(err, seat.ErrSeatNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrUserIDRequired),
		errors.Is(err, booking.ErrSeatIDRequired),
		errors.Is(err, booking.ErrDateRequired),
		errors.Is(err, booking.ErrDateInPast),
		errors.Is(err, booking.ErrDateTooFarInAdvance),
		errors.Is(err, calendar.ErrInvalidDate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "内部サーバーエラー").SetInternal(err)
	}
}
