package application

import "github.com/sanosuguru/go-seat-booking/internal/domain/calendar"

const (
	availabilityKeyPrefix = "seats:available:"
	generationKeyPrefix   = "seats:gen:"
)

// AvailabilityKey は空席キャッシュのキーを返す
// 例: seats:available:2024-06-01, seats:available:2024-06-01:section:A
func AvailabilityKey(date calendar.Date, section string) string {
	key := AvailabilityDatePrefix(date)
	if section != "" {
		key += ":section:" + section
	}
	return key
}

// AvailabilityDatePrefix は日付に属する全キーに共通するプレフィックス
func AvailabilityDatePrefix(date calendar.Date) string {
	return availabilityKeyPrefix + date.String()
}

// AvailabilityGenerationKey は日付ごとの世代キー
// seats:available: で始まらないため InvalidatePrefix では消えない
func AvailabilityGenerationKey(date calendar.Date) string {
	return generationKeyPrefix + date.String()
}

// SeatLockResource は座席・日付のロック対象名（lock: プレフィックスは Coordinator が付与）
func SeatLockResource(seatID string, date calendar.Date) string {
	return "seat:" + seatID + ":" + date.String()
}
