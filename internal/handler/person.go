package handler

import (
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/service"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// roster - GET /api/roster?department_id=&roles=intern,supervisor&now=2024-01-05
func (h *Handler) roster(c *gin.Context) {
	var query service.RosterQuery

	if raw := c.Query("department_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "некорректный department_id")
			return
		}
		dept := uint(id)
		query.DepartmentID = &dept
	}

	if raw := c.Query("roles"); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			role := models.Role(strings.ToLower(strings.TrimSpace(r)))
			switch role {
			case models.RoleIntern, models.RoleSupervisor, models.RoleAdmin:
				query.Roles = append(query.Roles, role)
			default:
				badRequest(c, "неизвестная роль: "+r)
				return
			}
		}
	}

	now, err := optionalDate("now", c.Query("now"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	query.Now = now

	entries, err := h.services.Roster.Roster(c.Request.Context(), actorID(c), query)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, entries)
}

// timeline - GET /api/persons/:id/timeline
func (h *Handler) timeline(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	timeline, err := h.services.Timelines.Timeline(c.Request.Context(), actorID(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, timeline)
}

// dossier - GET /api/persons/:id/dossier
func (h *Handler) dossier(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	dossier, err := h.services.Dossiers.Dossier(c.Request.Context(), actorID(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, dossier)
}

// evidence - GET /api/persons/:id/evidence?start=2024-01-01&end=2024-01-31
func (h *Handler) evidence(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	start, err := optionalDate("start", c.Query("start"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	end, err := optionalDate("end", c.Query("end"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if start == nil || end == nil {
		badRequest(c, "параметры start и end обязательны")
		return
	}

	ev, err := h.services.Timelines.Evidence(c.Request.Context(), actorID(c), id, *start, *end)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ok(c, ev)
}
