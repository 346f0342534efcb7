package service

import "time"

// Clock возвращает текущее время; сервисы обрезают его до секунд в UTC
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now()
}

func (c Clock) now() time.Time {
	if c == nil {
		return SystemClock().UTC().Truncate(time.Second)
	}
	return c().UTC().Truncate(time.Second)
}

// later - время модификации никогда не уходит назад
func later(now, prev time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}
