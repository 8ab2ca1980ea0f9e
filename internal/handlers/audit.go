package handlers

import (
	"net/http"

	"client-reports/internal/database"
	"client-reports/internal/models"

	"github.com/gin-gonic/gin"
)

// audit пишет запись в журнал. Сбой журнала не ломает уже выполненное действие.
func (h *Handler) audit(c *gin.Context, entity string, id uint, action, details string) {
	ctx := c.Request.Context()
	if err := database.CreateAuditLog(ctx, h.db, entity, id, action, details); err != nil {
		h.log.Warn(ctx, "failed to write audit log", "entity", entity, "id", id, "action", action, "err", err)
	}
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	entity := c.Query("entity")
	switch entity {
	case "", models.EntityClient, models.EntityReport, models.EntityReportFile:
	default:
		entity = ""
	}

	logs, err := database.RecentAuditLogs(c.Request.Context(), h.db, entity)
	if err != nil {
		h.serverError(c, "load audit logs", err)
		return
	}

	render(c, http.StatusOK, "audit_list.html", gin.H{
		"Title":    "Activity",
		"Logs":     logs,
		"Entity":   entity,
		"Entities": []string{models.EntityClient, models.EntityReport, models.EntityReportFile},
	})
}
