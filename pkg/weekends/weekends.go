package weekends

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CalendarJSON - производственный календарь на год (формат xmlcalendar.ru)
type CalendarJSON struct {
	Year      int             `json:"year"`
	Months    []MonthWeekends `json:"months"`
	Statistic Statistic       `json:"statistic"`
}

type MonthWeekends struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

type Statistic struct {
	Workdays int     `json:"workdays"`
	Holidays int     `json:"holidays"`
	Hours40  float64 `json:"hours40"`
}

// NonWorkingDay - нерабочий день календаря
type NonWorkingDay struct {
	Date  time.Time
	Year  int
	Month int
	Day   int
}

// ParseFile читает календарь из файла
func ParseFile(filePath string) ([]NonWorkingDay, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse разбирает календарь. Дни с суффиксом "*" - сокращенные рабочие, они пропускаются;
// "+" - перенесенный выходной, он остается нерабочим
func Parse(r io.Reader) ([]NonWorkingDay, error) {
	var cal CalendarJSON
	if err := json.NewDecoder(r).Decode(&cal); err != nil {
		return nil, fmt.Errorf("failed to decode calendar JSON: %w", err)
	}
	if cal.Year == 0 {
		return nil, fmt.Errorf("calendar year is missing")
	}

	days := []NonWorkingDay{}
	for _, m := range cal.Months {
		if m.Month < 1 || m.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", m.Month)
		}
		for _, raw := range strings.Split(m.Days, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" || strings.HasSuffix(raw, "*") {
				continue
			}
			raw = strings.TrimSuffix(raw, "+")

			day, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", raw, m.Month, err)
			}

			date := time.Date(cal.Year, time.Month(m.Month), day, 0, 0, 0, 0, time.UTC)
			if date.Month() != time.Month(m.Month) {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, m.Month)
			}
			days = append(days, NonWorkingDay{Date: date, Year: cal.Year, Month: m.Month, Day: day})
		}
	}

	return days, nil
}

// Weekdays оставляет только нерабочие дни, выпадающие на будни:
// субботы и воскресенья и так не входят в норму часов
func Weekdays(days []NonWorkingDay) []NonWorkingDay {
	result := make([]NonWorkingDay, 0, len(days))
	for _, d := range days {
		if wd := d.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		result = append(result, d)
	}
	return result
}
