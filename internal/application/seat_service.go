package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

const defaultCacheTTL = 5 * time.Minute

// SeatServiceConfig は SeatService の設定（ゼロ値はデフォルト）
type SeatServiceConfig struct {
	CacheTTL time.Duration
	Location *time.Location
	Clock    clockwork.Clock
	Metrics  *metrics.Metrics
}

// SeatService は座席と空席照会を扱う
// 照会はロックを取らず、キャッシュ → 台帳の順に参照する
type SeatService struct {
	seatRepo seat.Repository
	cache    seat.AvailabilityCache
	cacheTTL time.Duration
	location *time.Location
	clock    clockwork.Clock
	metrics  *metrics.Metrics
}

// NewSeatService は SeatService を作成する（cache は nil 可）
func NewSeatService(sr seat.Repository, cache seat.AvailabilityCache, cfg SeatServiceConfig) *SeatService {
	s := &SeatService{
		seatRepo: sr,
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		location: cfg.Location,
		clock:    cfg.Clock,
		metrics:  cfg.Metrics,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultCacheTTL
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	return s
}

// AvailabilityQuery は空席照会の条件（Date がゼロなら今日）
type AvailabilityQuery struct {
	Date    calendar.Date
	Section string
}

// ListAvailableSeats は指定日の空席を返す
func (s *SeatService) ListAvailableSeats(ctx context.Context, q AvailabilityQuery) ([]*seat.Seat, error) {
	date := q.Date
	if date.IsZero() {
		date = calendar.Today(s.clock.Now(), s.location)
	}
	key := AvailabilityKey(date, q.Section)
	log := logger.FromContext(ctx)

	// キャッシュから取得を試みる
	if s.cache != nil {
		seats, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.countCache("hit")
			log.Debug("キャッシュヒット", zap.String("key", key), zap.Int("count", len(seats)))
			return seats, nil
		case errors.Is(err, seat.ErrCacheMiss):
			s.countCache("miss")
		default:
			s.countCache("error")
			log.Warn("キャッシュ取得エラー", zap.String("key", key), zap.Error(err))
		}
	}

	// 世代は台帳を読む前に控える
	genKey := AvailabilityGenerationKey(date)
	var gen int64
	cacheable := s.cache != nil
	if cacheable {
		var err error
		if gen, err = s.cache.Generation(ctx, genKey); err != nil {
			log.Warn("キャッシュ世代の取得エラー", zap.String("key", genKey), zap.Error(err))
			cacheable = false
		}
	}

	// 台帳から取得
	seats, err := s.seatRepo.ListAvailable(ctx, date, q.Section)
	if err != nil {
		return nil, fmt.Errorf("空席の取得に失敗: %w", err)
	}

	// 世代が変わっていなければキャッシュに保存
	if cacheable {
		stored, cacheErr := s.cache.SetIfGeneration(ctx, key, genKey, gen, seats, s.cacheTTL)
		switch {
		case cacheErr != nil:
			log.Warn("キャッシュ保存エラー", zap.String("key", key), zap.Error(cacheErr))
		case !stored:
			log.Debug("照会中に無効化されたため保存しません", zap.String("key", key), zap.Int64("generation", gen))
		}
	}

	return seats, nil
}

func (s *SeatService) GetSeat(ctx context.Context, id string) (*seat.Seat, error) {
	return s.seatRepo.GetByID(ctx, id)
}

func (s *SeatService) ListSeats(ctx context.Context, section string) ([]*seat.Seat, error) {
	return s.seatRepo.List(ctx, section)
}

// SeedSeats は座席が1件もない場合のみ配置に従って座席を登録し、登録数を返す
func (s *SeatService) SeedSeats(ctx context.Context, layout seat.Layout) (int, error) {
	count, err := s.seatRepo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	seats, err := layout.Seats()
	if err != nil {
		return 0, err
	}
	if err := s.seatRepo.CreateBulk(ctx, seats); err != nil {
		return 0, err
	}
	logger.Info("座席を登録しました", zap.Int("count", len(seats)), zap.Strings("sections", layout.Sections))
	return len(seats), nil
}

// WarmAvailability は今日から days 日分の空席キャッシュを作り直す
// 全体とセクション別のキーを同じ照会結果から作る
// 照会中に無効化された日付は保存しない
func (s *SeatService) WarmAvailability(ctx context.Context, days int) error {
	if s.cache == nil || days <= 0 {
		return nil
	}
	today := calendar.Today(s.clock.Now(), s.location)

	for i := 0; i < days; i++ {
		date := today.AddDays(i)
		genKey := AvailabilityGenerationKey(date)
		gen, err := s.cache.Generation(ctx, genKey)
		if err != nil {
			return fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
		}
		seats, err := s.seatRepo.ListAvailable(ctx, date, "")
		if err != nil {
			return fmt.Errorf("空席の取得に失敗: %w", err)
		}

		entries := map[string][]*seat.Seat{AvailabilityKey(date, ""): seats}
		for _, se := range seats {
			k := AvailabilityKey(date, se.Section)
			entries[k] = append(entries[k], se)
		}
		for key, list := range entries {
			stored, err := s.cache.SetIfGeneration(ctx, key, genKey, gen, list, s.cacheTTL)
			if err != nil {
				return fmt.Errorf("キャッシュ保存に失敗: %w", err)
			}
			if !stored {
				logger.FromContext(ctx).Debug("照会中に無効化されたため日付を飛ばします", zap.String("date", date.String()))
				break
			}
		}
	}
	return nil
}

// InvalidateAvailability は日付の世代を進めてから空席キャッシュをすべて無効化する
// 失敗は記録のみで呼び出し元には返さない
func (s *SeatService) InvalidateAvailability(ctx context.Context, date calendar.Date) {
	if s.cache == nil {
		return
	}
	log := logger.FromContext(ctx)
	genKey := AvailabilityGenerationKey(date)
	if err := s.cache.BumpGeneration(ctx, genKey); err != nil {
		log.Warn("キャッシュ世代の更新エラー", zap.String("key", genKey), zap.Error(err))
		s.countInvalidationFailure()
	}
	prefix := AvailabilityDatePrefix(date)
	if err := s.cache.InvalidatePrefix(ctx, prefix); err != nil {
		log.Warn("キャッシュ無効化エラー", zap.String("prefix", prefix), zap.Error(err))
		s.countInvalidationFailure()
	}
}

func (s *SeatService) countInvalidationFailure() {
	if s.metrics != nil {
		s.metrics.CacheInvalidationFailures.Inc()
	}
}

func (s *SeatService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.CacheRequestsTotal.WithLabelValues(result).Inc()
	}
}

var _ AvailabilityInvalidator = (*SeatService)(nil)
