package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
)

type SeatHandler struct {
	service SeatServiceInterface
}

func NewSeatHandler(s SeatServiceInterface) *SeatHandler {
	return &SeatHandler{service: s}
}

type AvailabilityRequest struct {
	Date    string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Section string `query:"section" validate:"omitempty,alphanum,max=16"`
}

type SeatResponse struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Number  int    `json:"number"`
	Label   string `json:"label"`
}

func toSeatResponse(s *seat.Seat) SeatResponse {
	return SeatResponse{ID: s.ID, Section: s.Section, Number: s.Number, Label: s.Label()}
}

// ListAvailable は指定日の空席を返す（日付省略時は今日）
func (h *SeatHandler) ListAvailable(c echo.Context) error {
	var req AvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	q := application.AvailabilityQuery{Section: req.Section}
	if req.Date != "" {
		d, err := calendar.Parse(req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		q.Date = d
	}

	seats, err := h.service.ListAvailableSeats(c.Request().Context(), q)
	if err != nil {
		return toHTTPError(c, err)
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *SeatHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetSeat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, toSeatResponse(s))
}
