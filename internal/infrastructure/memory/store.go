package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store は有効期限付きのインメモリKVストア
// lock.Store を満たし、時計を差し替えることでリース失効をテストできる
type Store struct {
	mu    sync.Mutex
	clock clockwork.Clock
	data  map[string]entry
}

func NewStore(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{clock: clock, data: make(map[string]entry)}
}

// lookup は期限切れのエントリを掃除しつつ現在値を返す（mu 保持中に呼ぶ）
func (s *Store) lookup(key string) (entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(s.clock.Now()) {
		delete(s.data, key)
		return entry{}, false
	}
	return e, true
}

func (s *Store) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(ttl)
}

func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	s.data[key] = entry{value: value, expiresAt: s.expiry(ttl)}
	return true, nil
}

func (s *Store) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok || e.value != value {
		return false, nil
	}
	delete(s.data, key)
	return true, nil
}

func (s *Store) CompareAndExpire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok || e.value != value {
		return false, nil
	}
	e.expiresAt = s.expiry(ttl)
	s.data[key] = e
	return true, nil
}

// Get は値を返す。存在しなければ ok=false
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	return e.value, ok, nil
}

// Incr は整数値を1増やして返す（未作成なら 0 から）
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.counter(key)
	if err != nil {
		return 0, err
	}
	n++
	e, _ := s.lookup(key)
	s.data[key] = entry{value: strconv.FormatInt(n, 10), expiresAt: e.expiresAt}
	return n, nil
}

// Counter は Incr で管理する整数値を返す（未作成なら 0）
func (s *Store) Counter(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counter(key)
}

// SetIfCounter は counterKey の値が want のときだけ key を保存する
func (s *Store) SetIfCounter(ctx context.Context, key, value string, ttl time.Duration, counterKey string, want int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.counter(counterKey)
	if err != nil {
		return false, err
	}
	if n != want {
		return false, nil
	}
	s.data[key] = entry{value: value, expiresAt: s.expiry(ttl)}
	return true, nil
}

// counter は mu 保持中に呼ぶ
func (s *Store) counter(key string) (int64, error) {
	e, ok := s.lookup(key)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s は整数ではありません: %w", key, err)
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// DeletePrefix は prefix で始まるキーを削除し、削除件数を返す
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}
