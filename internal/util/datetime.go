package util

import "time"

// SameCalendarDay 判断两个时间是否落在同一个自然日
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsNextCalendarDay 判断 day 是否恰好是 prev 的下一个自然日
func IsNextCalendarDay(prev, day time.Time) bool {
	return SameCalendarDay(prev.AddDate(0, 0, 1), day)
}
