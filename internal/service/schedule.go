package service

import (
	"fmt"
	"rotation-workflow/pkg/calendar"
	"sort"
	"time"
)

// ScheduleRow - строка графика в том виде, как ее прислал клиент
type ScheduleRow struct {
	DepartmentID  uint       `json:"department_id"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	DurationType  string     `json:"duration_type,omitempty"`
	DurationValue int        `json:"duration_value,omitempty"`
	SupervisorID  *uint      `json:"supervisor_id,omitempty"`
}

// ScheduledRow - строка графика с вычисленными датами
type ScheduledRow struct {
	DepartmentID  uint
	StartDate     time.Time
	EndDate       time.Time
	DurationType  string
	DurationValue int
	SupervisorID  *uint
}

// NormalizeSchedule превращает строки в непрерывный датированный график.
// Первой строке нужна дата начала (своя или defaultStart), следующие
// начинаются на день позже окончания предыдущей, если начало не задано явно
func NormalizeSchedule(rows []ScheduleRow, defaultStart *time.Time) ([]ScheduledRow, error) {
	if len(rows) == 0 {
		return nil, validationError("график ротации пуст")
	}

	result := make([]ScheduledRow, 0, len(rows))
	var next *time.Time
	if defaultStart != nil {
		d := calendar.Day(*defaultStart)
		next = &d
	}

	for i, row := range rows {
		if row.DepartmentID == 0 {
			return nil, validationError(fmt.Sprintf("строка %d: не указано отделение", i+1))
		}

		var start time.Time
		switch {
		case row.StartDate != nil:
			start = calendar.Day(*row.StartDate)
		case next != nil:
			start = *next
		default:
			return nil, validationError(fmt.Sprintf("строка %d: не указана дата начала", i+1))
		}

		var end time.Time
		switch {
		case row.EndDate != nil:
			end = calendar.Day(*row.EndDate)
		case row.DurationType != "":
			durationType, err := calendar.ParseDurationType(row.DurationType)
			if err != nil {
				return nil, validationError(fmt.Sprintf("строка %d: %v", i+1, err))
			}
			end, err = calendar.EndDate(start, durationType, row.DurationValue)
			if err != nil {
				return nil, validationError(fmt.Sprintf("строка %d: %v", i+1, err))
			}
		default:
			return nil, validationError(fmt.Sprintf("строка %d: нужна дата окончания или длительность", i+1))
		}

		if end.Before(start) {
			return nil, validationError(fmt.Sprintf("строка %d: дата окончания раньше даты начала", i+1))
		}

		result = append(result, ScheduledRow{
			DepartmentID:  row.DepartmentID,
			StartDate:     start,
			EndDate:       end,
			DurationType:  row.DurationType,
			DurationValue: row.DurationValue,
			SupervisorID:  row.SupervisorID,
		})

		following := end.AddDate(0, 0, 1)
		next = &following
	}

	intervals := make([]Interval, len(result))
	for i, r := range result {
		intervals[i] = Interval{Label: fmt.Sprintf("row %d", i+1), Start: r.StartDate, End: r.EndDate}
	}
	if err := ValidateNoOverlap(intervals); err != nil {
		return nil, err
	}

	return result, nil
}

// Interval - закрытый интервал дат [Start, End]
type Interval struct {
	Label string
	Start time.Time
	End   time.Time
}

// ValidateNoOverlap сортирует интервалы по началу и отклоняет набор,
// если какой-то интервал начинается не позже окончания предыдущего
func ValidateNoOverlap(intervals []Interval) error {
	sorted := append([]Interval(nil), intervals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if !calendar.Day(cur.Start).After(calendar.Day(prev.End)) {
			return conflictError("периоды ротаций пересекаются", map[string]interface{}{
				"first":        prev.Label,
				"first_start":  calendar.FormatDate(prev.Start),
				"first_end":    calendar.FormatDate(prev.End),
				"second":       cur.Label,
				"second_start": calendar.FormatDate(cur.Start),
			})
		}
	}
	return nil
}
