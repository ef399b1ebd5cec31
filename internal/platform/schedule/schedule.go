// Package schedule computes delays for wall-clock aligned background jobs.
package schedule

import (
	"time"
)

// TimeUntilNextHour は now から見て次に loc の hour 時 00 分が来るまでの期間を返します。
// now がちょうどその時刻の場合は 0 を返します。
func TimeUntilNextHour(now time.Time, hour int, loc *time.Location) time.Duration {
	if loc == nil {
		loc = time.UTC
	}
	hour = ((hour % 24) + 24) % 24
	local := now.In(loc)

	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)

	// 今日の指定時刻が既に過ぎている場合は翌日の同時刻を使用
	if local.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	return next.Sub(local)
}

// LoadLocation は名前からタイムゾーンを読み込み、失敗時は UTC を返します。
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
