package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"HTTPError はそのまま返す", echo.NewHTTPError(http.StatusConflict, "座席は既に予約されています"), http.StatusConflict, "座席は既に予約されています"},
		{"メッセージが文字列でなければステータス文言", echo.NewHTTPError(http.StatusNotFound, map[string]string{"x": "y"}), http.StatusNotFound, "Not Found"},
		{"それ以外は500", errors.New("boom"), http.StatusInternalServerError, "内部サーバーエラー"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			CustomHTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMsg, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}

	t.Run("送信済みなら何もしない", func(t *testing.T) {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, c.String(http.StatusOK, "done"))

		CustomHTTPErrorHandler(errors.New("late"), c)
		assert.Equal(t, "done", rec.Body.String())
	})
}
