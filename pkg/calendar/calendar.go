package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DurationType - единица длительности ротации
type DurationType string

const (
	DurationWeeks  DurationType = "weeks"
	DurationMonths DurationType = "months"
	DurationDays   DurationType = "days"
	DurationCustom DurationType = "custom"
)

const dateLayout = "2006-01-02"

// ParseDurationType приводит свободную строку ("week", "Months", ...) к DurationType
func ParseDurationType(value string) (DurationType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "week", "weeks":
		return DurationWeeks, nil
	case "month", "months":
		return DurationMonths, nil
	case "day", "days":
		return DurationDays, nil
	case "custom":
		return DurationCustom, nil
	}
	return "", fmt.Errorf("unknown duration type %q", value)
}

// Day отбрасывает время и возвращает полночь UTC той же календарной даты
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayIn возвращает календарную дату момента t в указанной зоне
func DayIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc))
}

// Date - короткий конструктор даты в UTC
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате 2006-01-02
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// FormatDate форматирует дату в 2006-01-02
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// AddMonthsClamped прибавляет n календарных месяцев; если в целевом месяце
// нет такого числа, берется последний день месяца (31 января + 1 = 29 февраля)
func AddMonthsClamped(t time.Time, n int) time.Time {
	t = Day(t)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := EndOfMonth(first.Year(), first.Month()).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// EndDate вычисляет дату окончания (включительно) по дате начала и длительности.
// weeks: +7N дней -1; months: +N месяцев -1 день; days/custom: +max(N,1)-1 дней
func EndDate(start time.Time, durationType DurationType, value int) (time.Time, error) {
	start = Day(start)
	switch durationType {
	case DurationWeeks:
		if value < 1 {
			return time.Time{}, fmt.Errorf("duration value must be positive for %s", durationType)
		}
		return start.AddDate(0, 0, 7*value-1), nil
	case DurationMonths:
		if value < 1 {
			return time.Time{}, fmt.Errorf("duration value must be positive for %s", durationType)
		}
		return AddMonthsClamped(start, value).AddDate(0, 0, -1), nil
	case DurationDays, DurationCustom:
		if value < 1 {
			value = 1
		}
		return start.AddDate(0, 0, value-1), nil
	}
	return time.Time{}, fmt.Errorf("unknown duration type %q", durationType)
}

// StartOfMonth возвращает первое число месяца
func StartOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth возвращает последнее число месяца
func EndOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// IsFullMonth проверяет, что диапазон ровно покрывает один календарный месяц
func IsFullMonth(start, end time.Time) bool {
	start, end = Day(start), Day(end)
	return start.Day() == 1 &&
		start.Year() == end.Year() &&
		start.Month() == end.Month() &&
		end.Equal(EndOfMonth(end.Year(), end.Month()))
}

// IsWeekday - понедельник..пятница
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// DaysInclusive - количество календарных дней в [start, end]
func DaysInclusive(start, end time.Time) int {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// CountWeekdays считает будни в [start, end]; даты из skip (ключ 2006-01-02) не учитываются
func CountWeekdays(start, end time.Time, skip map[string]bool) int {
	start, end = Day(start), Day(end)
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsWeekday(d) {
			continue
		}
		if skip != nil && skip[FormatDate(d)] {
			continue
		}
		count++
	}
	return count
}

// WeekdaysInMonth считает будни в календарном месяце
func WeekdaysInMonth(year int, month time.Month, skip map[string]bool) int {
	return CountWeekdays(StartOfMonth(year, month), EndOfMonth(year, month), skip)
}

// Overlaps проверяет пересечение двух закрытых интервалов дат
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !Day(aStart).After(Day(bEnd)) && !Day(bStart).After(Day(aEnd))
}

// ParseClock разбирает время "HH:MM" и возвращает минуты от полуночи
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
