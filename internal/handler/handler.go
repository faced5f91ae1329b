package handler

import (
	"context"
	"net/http"
	"os"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PlanManager создает и заменяет планы ротаций
type PlanManager interface {
	CreateOrReplacePlan(ctx context.Context, actorID uint, input service.PlanInput) (*service.PlanResult, error)
}

// AssignmentWorkflow - оценка руководителя и прямые решения по назначению
type AssignmentWorkflow interface {
	Evaluate(ctx context.Context, actorID, assignmentID uint, input service.EvaluateInput) (*models.RotationAssignment, *models.RotationApproval, error)
	Decide(ctx context.Context, actorID, assignmentID uint, input service.DecideInput) (*service.DecisionResult, error)
}

// ApprovalChain - решение администратора
type ApprovalChain interface {
	AdminDecide(ctx context.Context, actorID, assignmentID uint, input service.AdminDecisionInput) (*service.AdminDecisionResult, error)
}

type RosterBuilder interface {
	Roster(ctx context.Context, actorID uint, query service.RosterQuery) ([]service.RosterEntry, error)
}

type TimelineBuilder interface {
	Timeline(ctx context.Context, actorID, personID uint) (*service.Timeline, error)
	Evidence(ctx context.Context, actorID, personID uint, start, end time.Time) (*service.Evidence, error)
}

type DossierBuilder interface {
	Dossier(ctx context.Context, actorID, personID uint) (*service.Dossier, error)
}

// Services - все, что нужно обработчикам
type Services struct {
	Plans       PlanManager
	Assignments AssignmentWorkflow
	Approvals   ApprovalChain
	Roster      RosterBuilder
	Timelines   TimelineBuilder
	Dossiers    DossierBuilder
}

type Handler struct {
	services Services
	logger   *logrus.Logger
}

func NewHandler(services Services) *Handler {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Handler{services: services, logger: logger}
}

// SetLogLevel выставляет уровень логов обработчиков
func (h *Handler) SetLogLevel(level logrus.Level) {
	h.logger.SetLevel(level)
}

// Router собирает gin-движок со всеми маршрутами
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(h.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(Actor())
	{
		api.POST("/plans", h.createPlan)

		assignments := api.Group("/assignments/:id")
		{
			assignments.POST("/evaluate", h.evaluate)
			assignments.POST("/decision", h.decide)
			assignments.POST("/admin-decision", h.adminDecide)
		}

		api.GET("/roster", h.roster)

		persons := api.Group("/persons/:id")
		{
			persons.GET("/timeline", h.timeline)
			persons.GET("/dossier", h.dossier)
			persons.GET("/evidence", h.evidence)
		}
	}

	return r
}
