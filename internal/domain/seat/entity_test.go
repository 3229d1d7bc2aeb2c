package seat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeat(t *testing.T) {
	s := NewSeat("A", 7)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "A", s.Section)
	assert.Equal(t, 7, s.Number)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, "A-07", s.Label())
}

func TestSeat_Validate(t *testing.T) {
	tests := []struct {
		name        string
		seat        *Seat
		expectedErr error
	}{
		{"有効な座席", &Seat{Section: "A", Number: 1}, nil},
		{"セクションが空", &Seat{Section: "", Number: 1}, ErrSectionRequired},
		{"座席番号が0", &Seat{Section: "A", Number: 0}, ErrInvalidSeatNumber},
		{"座席番号が負", &Seat{Section: "A", Number: -3}, ErrInvalidSeatNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seat.Validate()
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLayout_Seats(t *testing.T) {
	t.Run("セクション×座席数の座席を生成する", func(t *testing.T) {
		seats, err := Layout{Sections: []string{"A", "B"}, SeatsPerSection: 3}.Seats()
		require.NoError(t, err)
		require.Len(t, seats, 6)

		labels := make([]string, len(seats))
		ids := make(map[string]struct{})
		for i, s := range seats {
			labels[i] = s.Label()
			ids[s.ID] = struct{}{}
		}
		assert.Equal(t, []string{"A-01", "A-02", "A-03", "B-01", "B-02", "B-03"}, labels)
		assert.Len(t, ids, 6, "IDは一意")
	})

	t.Run("空の配置はエラー", func(t *testing.T) {
		_, err := Layout{}.Seats()
		assert.ErrorIs(t, err, ErrEmptyLayout)

		_, err = Layout{Sections: []string{"A"}, SeatsPerSection: 0}.Seats()
		assert.ErrorIs(t, err, ErrEmptyLayout)
	})

	t.Run("空のセクション名はエラー", func(t *testing.T) {
		_, err := Layout{Sections: []string{"A", ""}, SeatsPerSection: 1}.Seats()
		assert.ErrorIs(t, err, ErrSectionRequired)
	})
}
