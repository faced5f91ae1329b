package service

import (
	"context"
	"rotation-workflow/internal/models"
	"rotation-workflow/pkg/calendar"

	"github.com/sirupsen/logrus"
)

type AssignmentEvidence struct {
	AssignmentID uint     `json:"assignment_id"`
	Evidence     Evidence `json:"evidence"`
}

// PathViolation - назначение в отделении, которого нет в маршруте плана
type PathViolation struct {
	AssignmentID   uint                    `json:"assignment_id"`
	DepartmentID   uint                    `json:"department_id"`
	DepartmentName string                  `json:"department_name"`
	Status         models.AssignmentStatus `json:"status"`
}

type Dossier struct {
	Timeline
	Approvals          []models.RotationApproval `json:"approvals"`
	Decisions          []models.RotationDecision `json:"decisions"`
	AuditEvents        []models.AuditEvent       `json:"audit_events"`
	AssignmentEvidence []AssignmentEvidence      `json:"assignment_evidence"`
	PathViolations     []PathViolation           `json:"path_violations"`
}

// DossierService - полное досье человека для проверок и выгрузок
type DossierService struct {
	timelines *TimelineService
	logger    *logrus.Logger
}

func NewDossierService(timelines *TimelineService) *DossierService {
	return &DossierService{timelines: timelines, logger: newLogger()}
}

// Dossier дополняет хронологию всеми согласованиями, решениями, событиями аудита,
// показателями по каждому начатому назначению и отклонениями от маршрута
func (s *DossierService) Dossier(ctx context.Context, actorID, personID uint) (*Dossier, error) {
	timeline, data, err := s.timelines.build(ctx, actorID, personID)
	if err != nil {
		return nil, err
	}
	repos := s.timelines.repos

	ids := make([]uint, len(data.assignments))
	for i, a := range data.assignments {
		ids[i] = a.ID
	}

	approvals, err := repos.Approvals.GetByAssignmentIDs(ctx, ids)
	if err != nil {
		return nil, internalError("failed to load approvals", err)
	}
	decisions, err := repos.Decisions.ListByAssignmentIDs(ctx, ids)
	if err != nil {
		return nil, internalError("failed to load decisions", err)
	}
	events, err := repos.Audit.ListByPerson(ctx, data.person.ID)
	if err != nil {
		return nil, internalError("failed to load audit events", err)
	}

	dossier := &Dossier{
		Timeline:           *timeline,
		Approvals:          approvals,
		Decisions:          decisions,
		AuditEvents:        events,
		AssignmentEvidence: []AssignmentEvidence{},
		PathViolations:     []PathViolation{},
	}

	var requests []EvidenceRequest
	var requestIDs []uint
	for i := range data.assignments {
		a := &data.assignments[i]
		start := calendar.Day(a.StartDate)
		if data.today.Before(start) {
			continue
		}
		end := calendar.Day(a.EndDate)
		if data.today.Before(end) {
			end = data.today
		}
		requests = append(requests, EvidenceRequest{PersonID: a.PersonID, StartDate: start, EndDate: end})
		requestIDs = append(requestIDs, a.ID)
	}
	evidence, err := s.timelines.evidence.ComputeMany(ctx, requests)
	if err != nil {
		return nil, passThrough("failed to compute evidence", err)
	}
	for i, ev := range evidence {
		dossier.AssignmentEvidence = append(dossier.AssignmentEvidence, AssignmentEvidence{AssignmentID: requestIDs[i], Evidence: ev})
	}

	if data.plan != nil {
		for _, a := range data.assignments {
			if data.plan.Contains(a.DepartmentID) {
				continue
			}
			dept := a.DepartmentID
			dossier.PathViolations = append(dossier.PathViolations, PathViolation{
				AssignmentID:   a.ID,
				DepartmentID:   a.DepartmentID,
				DepartmentName: data.names.department(&dept),
				Status:         a.Status,
			})
		}
	}

	if len(dossier.PathViolations) > 0 {
		s.logger.WithFields(logrus.Fields{
			"person_id":  data.person.ID,
			"violations": len(dossier.PathViolations),
		}).Warn("Assignments outside the rotation path")
	}

	return dossier, nil
}
