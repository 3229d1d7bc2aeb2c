package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
)

type seatRow struct {
	ID         string    `db:"id"`
	Section    string    `db:"section"`
	SeatNumber int       `db:"seat_number"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{ID: r.ID, Section: r.Section, Number: r.SeatNumber, CreatedAt: r.CreatedAt}
}

func toSeats(rows []seatRow) []*seat.Seat {
	seats := make([]*seat.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats
}

const seatColumns = `s.id, s.section, s.seat_number, s.created_at`

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// createBulkBatch はバッチ単位でマルチバリューINSERTを実行
// 同じセクション・番号の座席が既にあればスキップする
func (r *SeatRepository) createBulkBatch(ctx context.Context, seats []*seat.Seat) error {
	const cols = 4
	args := make([]interface{}, 0, len(seats)*cols)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, s.ID, s.Section, s.Number, s.CreatedAt)
	}

	query := `INSERT INTO seats (id, section, seat_number, created_at) VALUES ` +
		strings.Join(placeholders, ", ") +
		` ON CONFLICT (section, seat_number) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats`); err != nil {
		return 0, fmt.Errorf("座席数の取得に失敗: %w", err)
	}
	return count, nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats s WHERE s.id = $1`
	var row seatRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		if pgErr, ok := pqError(err); ok && pgErr.Code.Name() == "invalid_text_representation" {
			// UUID 形式でない ID
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *SeatRepository) List(ctx context.Context, section string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats s
		WHERE ($1 = '' OR s.section = $1)
		ORDER BY s.section, s.seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, section); err != nil {
		return nil, fmt.Errorf("座席一覧の取得に失敗: %w", err)
	}
	return toSeats(rows), nil
}

// ListAvailable は指定日に有効な予約がない座席を返す
func (r *SeatRepository) ListAvailable(ctx context.Context, date calendar.Date, section string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats s
		WHERE ($2 = '' OR s.section = $2)
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.seat_id = s.id AND b.booking_date = $1 AND b.status = 'active'
		  )
		ORDER BY s.section, s.seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, date, section); err != nil {
		return nil, fmt.Errorf("空席一覧の取得に失敗: %w", err)
	}
	return toSeats(rows), nil
}

var _ seat.Repository = (*SeatRepository)(nil)
