package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	SeatID      string        `json:"seat_id" validate:"required,max=64" example:"550e8400-e29b-41d4-a716-446655440000"`
	BookingDate calendar.Date `json:"booking_date" swaggertype:"string" example:"2024-06-01"`
}

type BookingResponse struct {
	ID          string        `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatID      string        `json:"seat_id"`
	UserID      string        `json:"user_id" example:"user-123"`
	BookingDate calendar.Date `json:"booking_date" swaggertype:"string" example:"2024-06-01"`
	Status      string        `json:"status" example:"active"`
	CreatedAt   time.Time     `json:"created_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, SeatID: b.SeatID, UserID: b.UserID,
		BookingDate: b.Date, Status: string(b.Status),
		CreatedAt: b.CreatedAt, CancelledAt: b.CancelledAt,
	}
}

// Create godoc
// @Summary 座席を予約
// @Description 指定日の座席を予約します（日付省略時は今日）
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse "座席が存在しない"
// @Failure 409 {object} api.ErrorResponse "予約済み・1日1件の制限・処理中"
// @Failure 503 {object} api.ErrorResponse "ロックサービス停止"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.Book(c.Request().Context(), application.BookSeatInput{
		UserID: userID, SeatID: req.SeatID, Date: req.BookingDate,
	})
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// List godoc
// @Summary 自分の予約一覧を取得
// @Description from 以降の有効な予約を日付順に返します
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param from query string false "開始日（YYYY-MM-DD）"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	input := application.ListBookingsInput{UserID: userID}
	if s := c.QueryParam("from"); s != "" {
		if input.From, err = calendar.Parse(s); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if input.Limit, err = intQuery(c, "limit"); err != nil {
		return err
	}
	if input.Offset, err = intQuery(c, "offset"); err != nil {
		return err
	}

	bookings, err := h.service.ListUserBookings(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(c, err)
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 予約を取得
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Cancel godoc
// @Summary 予約を取り消す
// @Description 本人の予約のみ取り消せます。座席はすぐに空席に戻ります
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "取り消し済み"
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	b, err := h.service.Cancel(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

func intQuery(c echo.Context, name string) (int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" は0以上の整数で指定してください")
	}
	return n, nil
}
