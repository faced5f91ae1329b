package handler

import (
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/service"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "некорректный идентификатор в пути")
		return 0, false
	}
	return uint(id), true
}

// createPlan - POST /api/plans
func (h *Handler) createPlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "некорректное тело запроса: "+err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.services.Plans.CreateOrReplacePlan(c.Request.Context(), actorID(c), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"person_id": input.PersonID,
		"plan_id":   result.Plan.ID,
		"created":   result.Created,
	}).Info("Plan saved")

	if result.Created {
		created(c, result)
		return
	}
	ok(c, result)
}

// evaluate - POST /api/assignments/:id/evaluate
func (h *Handler) evaluate(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "некорректное тело запроса: "+err.Error())
		return
	}

	assignment, approval, err := h.services.Assignments.Evaluate(c.Request.Context(), actorID(c), id, service.EvaluateInput{
		Recommendation: models.Recommendation(strings.ToUpper(strings.TrimSpace(req.Recommendation))),
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	ok(c, gin.H{"assignment": assignment, "approval": approval})
}

// decide - POST /api/assignments/:id/decision
func (h *Handler) decide(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "некорректное тело запроса: "+err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.services.Assignments.Decide(c.Request.Context(), actorID(c), id, input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, result)
}

// adminDecide - POST /api/assignments/:id/admin-decision
func (h *Handler) adminDecide(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req adminDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "некорректное тело запроса: "+err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.services.Approvals.AdminDecide(c.Request.Context(), actorID(c), id, input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, result)
}
