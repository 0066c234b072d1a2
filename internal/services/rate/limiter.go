package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	submitHourWindow = time.Hour
	submitDayWindow  = 24 * time.Hour
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter caps how many requests one user may submit per hour and per day.
type Limiter struct {
	store   WindowStore
	perHour int
	perDay  int
}

func NewLimiter(store WindowStore, perHour, perDay int) *Limiter {
	if perHour < 0 {
		perHour = 0
	}
	if perDay < 0 {
		perDay = 0
	}

	return &Limiter{
		store:   store,
		perHour: perHour,
		perDay:  perDay,
	}
}

// AllowSubmit reports whether the user may submit another request now. When
// blocked it returns the number of seconds until the tightest window resets.
func (l *Limiter) AllowSubmit(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perHour > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, hourKey(userID), submitHourWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perHour) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.perDay > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, dayKey(userID), submitDayWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perDay) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

func hourKey(userID int64) string {
	return "rate:submit:hour:" + strconv.FormatInt(userID, 10)
}

func dayKey(userID int64) string {
	return "rate:submit:day:" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
