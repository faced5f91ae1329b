package service

import (
	"context"
	"fmt"
	"rotation-workflow/internal/config"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"rotation-workflow/pkg/calendar"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Evidence - показатели посещаемости человека за диапазон дат
type Evidence struct {
	PersonID                   uint      `json:"person_id"`
	StartDate                  time.Time `json:"start_date"`
	EndDate                    time.Time `json:"end_date"`
	ActualHours                float64   `json:"actual_hours"`
	ExpectedHours              float64   `json:"expected_hours"`
	AttendanceRate             float64   `json:"attendance_rate"`
	LateCount                  int       `json:"late_count"`
	MissedClockOutCount        int       `json:"missed_clock_out_count"`
	UnresolvedCorrectionsCount int       `json:"unresolved_corrections_count"`

	// exactRate - посещаемость до округления, по ней сравнивается порог
	exactRate *decimal.Decimal
}

// MeetsThreshold сравнивает с порогом точную посещаемость, а не округленную для вывода
func (e *Evidence) MeetsThreshold(threshold float64) bool {
	rate := decimal.NewFromFloat(e.AttendanceRate)
	if e.exactRate != nil {
		rate = *e.exactRate
	}
	return rate.GreaterThanOrEqual(decimal.NewFromFloat(threshold))
}

// PassesGate - посещаемость не ниже порога и нет нерешенных исправлений
func (e *Evidence) PassesGate(threshold float64) bool {
	return e.MeetsThreshold(threshold) && e.UnresolvedCorrectionsCount == 0
}

// Summary - краткая сводка для архивной записи
func (e *Evidence) Summary() string {
	return fmt.Sprintf("attendance %.2f%% (%.2f/%.2f h), late %d, missed clock-out %d, unresolved corrections %d",
		e.AttendanceRate, e.ActualHours, e.ExpectedHours, e.LateCount, e.MissedClockOutCount, e.UnresolvedCorrectionsCount)
}

// EvidenceRequest - один запрос на расчет показателей
type EvidenceRequest struct {
	PersonID  uint
	StartDate time.Time
	EndDate   time.Time
}

type EvidenceService struct {
	repos  *repository.Repositories
	rules  config.RotationRules
	logger *logrus.Logger
}

func NewEvidenceService(repos *repository.Repositories, rules config.RotationRules) *EvidenceService {
	return &EvidenceService{
		repos:  repos,
		rules:  rules,
		logger: newLogger(),
	}
}

// ComputeEvidence считает показатели человека за [start, end] включительно
func (s *EvidenceService) ComputeEvidence(ctx context.Context, personID uint, start, end time.Time) (*Evidence, error) {
	start, end = calendar.Day(start), calendar.Day(end)
	if end.Before(start) {
		return nil, validationError("дата окончания раньше даты начала")
	}

	results, err := s.ComputeMany(ctx, []EvidenceRequest{{PersonID: personID, StartDate: start, EndDate: end}})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// ComputeMany считает показатели по нескольким запросам: люди, организации,
// праздники, отметки и исправления читаются одним запросом каждый
func (s *EvidenceService) ComputeMany(ctx context.Context, requests []EvidenceRequest) ([]Evidence, error) {
	if len(requests) == 0 {
		return nil, nil
	}

	personIDs := make([]uint, 0, len(requests))
	seen := make(map[uint]bool)
	minStart, maxEnd := calendar.Day(requests[0].StartDate), calendar.Day(requests[0].EndDate)
	for i := range requests {
		requests[i].StartDate = calendar.Day(requests[i].StartDate)
		requests[i].EndDate = calendar.Day(requests[i].EndDate)
		r := requests[i]
		if !seen[r.PersonID] {
			seen[r.PersonID] = true
			personIDs = append(personIDs, r.PersonID)
		}
		if r.StartDate.Before(minStart) {
			minStart = r.StartDate
		}
		if r.EndDate.After(maxEnd) {
			maxEnd = r.EndDate
		}
	}

	persons, err := s.repos.Persons.GetByIDs(ctx, personIDs)
	if err != nil {
		return nil, internalError("failed to load persons", err)
	}
	personByID := make(map[uint]*models.Person, len(persons))
	orgIDs := []uint{}
	for i := range persons {
		personByID[persons[i].ID] = &persons[i]
		orgIDs = append(orgIDs, persons[i].OrganizationID)
	}
	for _, id := range personIDs {
		if personByID[id] == nil {
			return nil, notFoundError(fmt.Sprintf("сотрудник %d не найден", id))
		}
	}

	orgs, err := s.repos.Organizations.GetByIDs(ctx, orgIDs)
	if err != nil {
		return nil, internalError("failed to load organizations", err)
	}
	orgByID := make(map[uint]*models.Organization, len(orgs))
	for i := range orgs {
		orgByID[orgs[i].ID] = &orgs[i]
	}

	// праздники нужны и для месяца начала, по нему считаются месячные нормы
	holidays, err := s.repos.NonWorkingDays.ListBetween(ctx,
		calendar.StartOfMonth(minStart.Year(), minStart.Month()),
		calendar.EndOfMonth(maxEnd.Year(), maxEnd.Month()))
	if err != nil {
		return nil, internalError("failed to load non-working days", err)
	}
	skip := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		skip[calendar.FormatDate(calendar.Day(h.Date))] = true
	}

	loc := s.location()
	events, err := s.repos.Attendance.ListEvents(ctx, personIDs,
		localMidnight(minStart, loc), localMidnight(maxEnd.AddDate(0, 0, 1), loc))
	if err != nil {
		return nil, internalError("failed to load attendance events", err)
	}
	eventsByPerson := make(map[uint][]models.AttendanceEvent)
	for _, e := range events {
		eventsByPerson[e.PersonID] = append(eventsByPerson[e.PersonID], e)
	}

	corrections, err := s.repos.Attendance.ListPendingCorrections(ctx, personIDs, minStart, maxEnd.AddDate(0, 0, 1))
	if err != nil {
		return nil, internalError("failed to load correction requests", err)
	}
	correctionsByPerson := make(map[uint][]models.CorrectionRequest)
	for _, c := range corrections {
		correctionsByPerson[c.PersonID] = append(correctionsByPerson[c.PersonID], c)
	}

	results := make([]Evidence, len(requests))
	for i, r := range requests {
		person := personByID[r.PersonID]
		results[i] = computeEvidence(evidenceInput{
			person:      person,
			org:         orgByID[person.OrganizationID],
			rules:       s.rules,
			start:       r.StartDate,
			end:         r.EndDate,
			events:      eventsByPerson[r.PersonID],
			corrections: correctionsByPerson[r.PersonID],
			skip:        skip,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"requests": len(requests),
		"persons":  len(personIDs),
		"events":   len(events),
	}).Debug("Evidence computed")

	return results, nil
}

func (s *EvidenceService) location() *time.Location {
	if s.rules.Location == nil {
		return time.UTC
	}
	return s.rules.Location
}

func localMidnight(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}

type evidenceInput struct {
	person      *models.Person
	org         *models.Organization
	rules       config.RotationRules
	start       time.Time
	end         time.Time
	events      []models.AttendanceEvent
	corrections []models.CorrectionRequest
	skip        map[string]bool
}

// hoursTargets - нормы часов человека после разрешения приоритетов
type hoursTargets struct {
	perDay  float64
	weekly  *float64
	monthly *float64
	clockIn int
}

// workSchedule выбирает пару прихода/ухода: человек, затем организация, затем система
func workSchedule(person *models.Person, org *models.Organization, rules config.RotationRules) (clockIn, clockOut, breakMinutes int, ok bool) {
	pairs := [][2]string{{person.ScheduledClockIn, person.ScheduledClockOut}}
	if org != nil {
		pairs = append(pairs, [2]string{org.DefaultClockIn, org.DefaultClockOut})
	}
	pairs = append(pairs, [2]string{rules.DefaultClockIn, rules.DefaultClockOut})

	for _, p := range pairs {
		in, errIn := calendar.ParseClock(p[0])
		out, errOut := calendar.ParseClock(p[1])
		if errIn == nil && errOut == nil {
			clockIn, clockOut, ok = in, out, true
			break
		}
	}

	switch {
	case person.BreakMinutes != nil:
		breakMinutes = *person.BreakMinutes
	case org != nil && org.DefaultBreakMinutes != nil:
		breakMinutes = *org.DefaultBreakMinutes
	default:
		breakMinutes = rules.DefaultBreakMinutes
	}
	return clockIn, clockOut, breakMinutes, ok
}

const fallbackClockIn = 9 * 60

func resolveTargets(in evidenceInput) hoursTargets {
	clockIn, clockOut, breakMinutes, ok := workSchedule(in.person, in.org, in.rules)

	t := hoursTargets{perDay: in.rules.DefaultHoursPerDay, clockIn: fallbackClockIn}
	if ok {
		t.clockIn = clockIn
		if worked := clockOut - clockIn - breakMinutes; worked > 0 {
			t.perDay = float64(worked) / 60
		}
	}

	if !in.person.HasTargets() {
		return t
	}

	ratio := in.org.WorkingDaysRatio()
	weekDays := 5 * ratio
	monthDays := float64(calendar.WeekdaysInMonth(in.start.Year(), in.start.Month(), in.skip)) * ratio

	switch {
	case in.person.TargetHoursPerDay != nil:
		t.perDay = *in.person.TargetHoursPerDay
	case in.person.TargetWeeklyHours != nil:
		t.perDay = *in.person.TargetWeeklyHours / weekDays
	case in.person.TargetMonthlyHours != nil && monthDays > 0:
		t.perDay = *in.person.TargetMonthlyHours / monthDays
	}

	weekly := t.perDay * weekDays
	if in.person.TargetWeeklyHours != nil {
		weekly = *in.person.TargetWeeklyHours
	}
	monthly := t.perDay * monthDays
	if in.person.TargetMonthlyHours != nil {
		monthly = *in.person.TargetMonthlyHours
	}
	t.weekly, t.monthly = &weekly, &monthly
	return t
}

func expectedHours(t hoursTargets, in evidenceInput) float64 {
	if t.monthly != nil && calendar.IsFullMonth(in.start, in.end) {
		return *t.monthly
	}
	if t.weekly != nil {
		return *t.weekly * float64(calendar.DaysInclusive(in.start, in.end)) / 7
	}
	return t.perDay * float64(calendar.CountWeekdays(in.start, in.end, in.skip)) * in.org.WorkingDaysRatio()
}

// dayBucket - последние отметки каждого типа за один календарный день
type dayBucket map[models.AttendanceEventType]time.Time

func (b dayBucket) span(from, to models.AttendanceEventType) time.Duration {
	start, okStart := b[from]
	end, okEnd := b[to]
	if !okStart || !okEnd || !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

func (b dayBucket) worked() time.Duration {
	d := b.span(models.EventClockIn, models.EventClockOut) -
		b.span(models.EventBreakStart, models.EventBreakEnd) -
		b.span(models.EventLunchStart, models.EventLunchEnd)
	if d < 0 {
		d = 0
	}
	return d + b.span(models.EventExtraShiftIn, models.EventExtraShiftOut)
}

func computeEvidence(in evidenceInput) Evidence {
	loc := in.rules.Location
	if loc == nil {
		loc = time.UTC
	}

	ev := Evidence{PersonID: in.person.ID, StartDate: in.start, EndDate: in.end}
	targets := resolveTargets(in)
	expected := expectedHours(targets, in)

	buckets := make(map[string]dayBucket)
	for _, e := range in.events {
		date := calendar.DayIn(e.Timestamp, loc)
		if date.Before(in.start) || date.After(in.end) {
			continue
		}
		key := calendar.FormatDate(date)
		b := buckets[key]
		if b == nil {
			b = dayBucket{}
			buckets[key] = b
		}
		if prev, ok := b[e.EventType]; !ok || e.Timestamp.After(prev) {
			b[e.EventType] = e.Timestamp
		}
	}

	var actual time.Duration
	for key, b := range buckets {
		actual += b.worked()

		clockIn, hasIn := b[models.EventClockIn]
		if _, hasOut := b[models.EventClockOut]; hasIn && !hasOut {
			ev.MissedClockOutCount++
		}

		date, _ := calendar.ParseDate(key)
		if hasIn && calendar.IsWeekday(date) {
			sinceMidnight := clockIn.Sub(localMidnight(date, loc))
			if sinceMidnight > time.Duration(targets.clockIn+in.rules.LateGraceMinutes)*time.Minute {
				ev.LateCount++
			}
		}
	}

	for _, c := range in.corrections {
		date := calendar.Day(c.Date)
		if c.IsUnresolved() && !date.Before(in.start) && !date.After(in.end) {
			ev.UnresolvedCorrectionsCount++
		}
	}

	actualHours := decimal.NewFromFloat(actual.Hours())
	expectedDec := decimal.NewFromFloat(expected)
	ev.ActualHours = actualHours.Round(2).InexactFloat64()
	ev.ExpectedHours = expectedDec.Round(2).InexactFloat64()

	if expectedDec.IsPositive() {
		rate := actualHours.Div(expectedDec).Mul(decimal.NewFromInt(100))
		if rate.GreaterThan(decimal.NewFromInt(100)) {
			rate = decimal.NewFromInt(100)
		}
		if rate.IsNegative() {
			rate = decimal.Zero
		}
		ev.exactRate = &rate
		ev.AttendanceRate = rate.Round(2).InexactFloat64()
	}

	return ev
}
