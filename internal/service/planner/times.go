package planner

import (
	"errors"
	"time"
)

var (
	// ErrPastTime — указанное время строго раньше текущего.
	ErrPastTime = errors.New("planner: scheduled time is in the past")
	// ErrBadTimeFormat — строка не соответствует формату ГГГГ.ММ.ДД ЧЧ:ММ.
	ErrBadTimeFormat = errors.New("planner: bad time format")
	// ErrUnknownTimeKey — неизвестная кнопка выбора времени.
	ErrUnknownTimeKey = errors.New("planner: unknown time option")
)

// customLayout — формат ручного ввода даты: 2025.12.31 18:30.
const customLayout = "2006.01.02 15:04"

// Именованные варианты времени с кнопок.
const (
	KeyIn1Hour    = "1h"
	KeyIn3Hours   = "3h"
	KeyTomorrow9  = "tomorrow_9"
	KeyTomorrow18 = "tomorrow_18"
	KeyNow        = "now" // публикуем ближайшим тиком, +5 минут
)

func ResolveNamed(key string, now time.Time) (time.Time, error) {
	switch key {
	case KeyIn1Hour:
		return now.Add(time.Hour), nil
	case KeyIn3Hours:
		return now.Add(3 * time.Hour), nil
	case KeyTomorrow9:
		return tomorrowAt(now, 9), nil
	case KeyTomorrow18:
		return tomorrowAt(now, 18), nil
	case KeyNow:
		return now.Add(5 * time.Minute), nil
	default:
		return time.Time{}, ErrUnknownTimeKey
	}
}

// ParseCustom принимает время, равное текущему; отклоняет строго прошлое.
func ParseCustom(input string, now time.Time) (time.Time, error) {
	at, err := time.ParseInLocation(customLayout, input, now.Location())
	if err != nil {
		return time.Time{}, ErrBadTimeFormat
	}
	if at.Before(now) {
		return time.Time{}, ErrPastTime
	}
	return at, nil
}

func tomorrowAt(now time.Time, hour int) time.Time {
	d := now.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, now.Location())
}
