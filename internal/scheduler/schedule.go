package scheduler

import "time"

// Schedule решает, пора ли запускать задачу, и к какому периоду относится запуск.
// Ключ периода одинаков для всех запусков внутри периода: по нему задача
// выполняется не более одного раза за период.
type Schedule interface {
	Due(now time.Time) (period string, ok bool)
	// ClaimTTL - сколько хранить отметку о выполнении за период.
	ClaimTTL() time.Duration
}

// Every - запуск раз в Interval, период отсчитывается от начала эпохи.
type Every struct {
	Interval time.Duration
}

func (e Every) Due(now time.Time) (string, bool) {
	return now.Truncate(e.Interval).UTC().Format(time.RFC3339), true
}

func (e Every) ClaimTTL() time.Duration {
	return e.Interval
}

// Monthly - раз в месяц в день Day с часа Hour. После старта периода задача
// может запуститься только в пределах Window.
type Monthly struct {
	Day    int
	Hour   int
	Window time.Duration
}

func (m Monthly) Due(now time.Time) (string, bool) {
	start := time.Date(now.Year(), now.Month(), m.Day, m.Hour, 0, 0, 0, now.Location())
	if !inWindow(now, start, m.Window) {
		return "", false
	}
	return start.Format("2006-01"), true
}

func (m Monthly) ClaimTTL() time.Duration {
	return 32 * 24 * time.Hour
}

// Yearly - раз в год: Month, Day, Hour.
type Yearly struct {
	Month  time.Month
	Day    int
	Hour   int
	Window time.Duration
}

func (y Yearly) Due(now time.Time) (string, bool) {
	start := time.Date(now.Year(), y.Month, y.Day, y.Hour, 0, 0, 0, now.Location())
	if !inWindow(now, start, y.Window) {
		return "", false
	}
	return start.Format("2006"), true
}

func (y Yearly) ClaimTTL() time.Duration {
	return 367 * 24 * time.Hour
}

func inWindow(now, start time.Time, window time.Duration) bool {
	return !now.Before(start) && now.Before(start.Add(window))
}
