package utils

import (
	"fmt"
	"math"
	"time"
)

const DateLayout = "02.01.2006"

// FormatDate приводит дату к виду "02.01.2006" для текстов уведомлений.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDays печатает количество дней без лишних нулей: 3, 2.5.
func FormatDays(days float64) string {
	if days == math.Trunc(days) {
		return fmt.Sprintf("%d", int64(days))
	}
	return fmt.Sprintf("%.1f", days)
}

// FormatMinutes преобразует минуты в строку вида "1ч 30м".
func FormatMinutes(total int) string {
	hours := total / 60
	minutes := total % 60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dч %dм", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dч", hours)
	default:
		return fmt.Sprintf("%dм", minutes)
	}
}

// StartOfDay обрезает время до полуночи в зоне t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
