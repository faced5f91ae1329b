package handler

import (
	"fmt"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/service"
	"rotation-workflow/pkg/calendar"
	"strings"
	"time"
)

// scheduleRowRequest - строка графика; даты в формате 2006-01-02
type scheduleRowRequest struct {
	DepartmentID  uint   `json:"department_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	DurationType  string `json:"duration_type"`
	DurationValue int    `json:"duration_value"`
	SupervisorID  *uint  `json:"supervisor_id"`
}

type planRequest struct {
	PersonID  uint                 `json:"person_id" binding:"required"`
	StartDate string               `json:"start_date"`
	Rows      []scheduleRowRequest `json:"rows" binding:"required"`
}

type evaluateRequest struct {
	Recommendation string `json:"recommendation" binding:"required"`
	Notes          string `json:"notes"`
}

type decisionRequest struct {
	Status     string `json:"status" binding:"required"`
	Notes      string `json:"notes"`
	Override   bool   `json:"override"`
	ReviewDate string `json:"review_date"`
	EndDate    string `json:"end_date"`
}

type adminDecisionRequest struct {
	Decision      string              `json:"decision" binding:"required"`
	Notes         string              `json:"notes"`
	Override      bool                `json:"override"`
	Next          *scheduleRowRequest `json:"next"`
	FinalRotation bool                `json:"final_rotation"`
}

// optionalDate разбирает необязательную дату; пустая строка - nil
func optionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := calendar.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("поле %s: ожидается дата в формате ГГГГ-ММ-ДД", field)
	}
	return &t, nil
}

func (r scheduleRowRequest) toRow() (service.ScheduleRow, error) {
	start, err := optionalDate("start_date", r.StartDate)
	if err != nil {
		return service.ScheduleRow{}, err
	}
	end, err := optionalDate("end_date", r.EndDate)
	if err != nil {
		return service.ScheduleRow{}, err
	}
	return service.ScheduleRow{
		DepartmentID:  r.DepartmentID,
		StartDate:     start,
		EndDate:       end,
		DurationType:  r.DurationType,
		DurationValue: r.DurationValue,
		SupervisorID:  r.SupervisorID,
	}, nil
}

func (r planRequest) toInput() (service.PlanInput, error) {
	start, err := optionalDate("start_date", r.StartDate)
	if err != nil {
		return service.PlanInput{}, err
	}
	input := service.PlanInput{PersonID: r.PersonID, StartDate: start, Rows: make([]service.ScheduleRow, 0, len(r.Rows))}
	for i, row := range r.Rows {
		converted, err := row.toRow()
		if err != nil {
			return service.PlanInput{}, fmt.Errorf("строка %d: %w", i+1, err)
		}
		input.Rows = append(input.Rows, converted)
	}
	return input, nil
}

func (r decisionRequest) toInput() (service.DecideInput, error) {
	review, err := optionalDate("review_date", r.ReviewDate)
	if err != nil {
		return service.DecideInput{}, err
	}
	end, err := optionalDate("end_date", r.EndDate)
	if err != nil {
		return service.DecideInput{}, err
	}
	return service.DecideInput{
		Status:     models.AssignmentStatus(strings.ToUpper(strings.TrimSpace(r.Status))),
		Notes:      r.Notes,
		Override:   r.Override,
		ReviewDate: review,
		EndDate:    end,
	}, nil
}

func (r adminDecisionRequest) toInput() (service.AdminDecisionInput, error) {
	input := service.AdminDecisionInput{
		Decision:      models.AdminDecision(strings.ToUpper(strings.TrimSpace(r.Decision))),
		Notes:         r.Notes,
		Override:      r.Override,
		FinalRotation: r.FinalRotation,
	}
	if r.Next != nil {
		row, err := r.Next.toRow()
		if err != nil {
			return service.AdminDecisionInput{}, fmt.Errorf("next: %w", err)
		}
		input.Next = &row
	}
	return input, nil
}
