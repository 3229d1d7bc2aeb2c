package seat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seat は座席エンティティを表す
// 起動時に一度だけ登録され、以後は変更されない
type Seat struct {
	ID        string    `json:"id"`
	Section   string    `json:"section"`
	Number    int       `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSeat は新しい座席を作成する
func NewSeat(section string, number int) *Seat {
	return &Seat{
		ID:        uuid.NewString(),
		Section:   section,
		Number:    number,
		CreatedAt: time.Now(),
	}
}

// Label は表示用の座席名（例: A-01）を返す
func (s *Seat) Label() string {
	return fmt.Sprintf("%s-%02d", s.Section, s.Number)
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.Section == "" {
		return ErrSectionRequired
	}
	if s.Number <= 0 {
		return ErrInvalidSeatNumber
	}
	return nil
}

// Layout は座席配置（セクションとセクションごとの座席数）を表す
type Layout struct {
	Sections        []string
	SeatsPerSection int
}

// Seats は配置に従って座席を生成する
func (l Layout) Seats() ([]*Seat, error) {
	if len(l.Sections) == 0 || l.SeatsPerSection <= 0 {
		return nil, ErrEmptyLayout
	}
	seats := make([]*Seat, 0, len(l.Sections)*l.SeatsPerSection)
	for _, section := range l.Sections {
		for n := 1; n <= l.SeatsPerSection; n++ {
			s := NewSeat(section, n)
			if err := s.Validate(); err != nil {
				return nil, err
			}
			seats = append(seats, s)
		}
	}
	return seats, nil
}
