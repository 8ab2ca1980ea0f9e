package handlers

import (
	"net/http"

	"client-reports/internal/database"

	"github.com/gin-gonic/gin"
)

// Dashboard - главная страница с метриками.
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := database.LoadDashboard(c.Request.Context(), h.db)
	if err != nil {
		h.serverError(c, "load dashboard", err)
		return
	}

	render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":     "Dashboard",
		"Dashboard": d,
	})
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
