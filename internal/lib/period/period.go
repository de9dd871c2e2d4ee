// Package period содержит вычисления календарных границ, используемых фильтрами активностей.
package period

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDate возвращается, если строку не удалось разобрать как дату.
var ErrInvalidDate = errors.New("invalid date")

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// StartOfDay возвращает полночь дня t в его часовом поясе.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay возвращает последнюю микросекунду дня t.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Microsecond)
}

// StartOfWeek возвращает начало недели, неделя начинается с воскресенья.
func StartOfWeek(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}

// StartOfMonth возвращает первое число месяца t.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// WorkWeek возвращает рабочую неделю (понедельник 00:00 - пятница конец дня), в которую попадает t.
// Для воскресенья берется неделя, начавшаяся шестью днями ранее.
func WorkWeek(t time.Time) (from, to time.Time) {
	offset := int(t.Weekday()) - int(time.Monday)
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	from = StartOfDay(t).AddDate(0, 0, -offset)
	to = EndOfDay(from.AddDate(0, 0, 4))
	return from, to
}

// ParseDate разбирает дату в формате YYYY-MM-DD (локальное время) или RFC 3339.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, time.Local)
}

// ParseDateIn разбирает дату так же, как ParseDate, но в поясе loc.
// Момент из RFC 3339 переводится в loc, чтобы границы дня считались по этому поясу.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range layouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t.In(loc), nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
