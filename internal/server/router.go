package server

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"client-reports/internal/config"
	"client-reports/internal/handlers"
	"client-reports/internal/logging"
	"client-reports/internal/middleware"
	"client-reports/internal/storage"
	"client-reports/web"

	"github.com/Masterminds/sprig/v3"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "client_reports_session"

// pageURL - ссылка на страницу списка с сохранением поискового запроса.
func pageURL(q string, page int) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	if q != "" {
		v.Set("q", q)
	}
	return "?" + v.Encode()
}

func templateFuncs(files storage.Storage) template.FuncMap {
	funcs := sprig.HtmlFuncMap()
	funcs["eq"] = func(a, b interface{}) bool { return a == b }
	funcs["pageURL"] = pageURL
	funcs["fileURL"] = files.URL
	return funcs
}

func loadTemplates(files storage.Storage) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs(files)).ParseFS(web.Templates(), "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

func NewRouter(cfg *config.Config, h *handlers.Handler, files storage.Storage, log logging.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	tmpl, err := loadTemplates(files)
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.StaticFS("/static", http.FS(web.Static()))

	// HEALTHCHECK
	r.GET("/health", handlers.Health)

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	// ГЛАВНАЯ
	r.GET("/", h.Dashboard)

	// КЛИЕНТЫ
	r.GET("/clients/", h.ListClients)
	r.GET("/clients/add/", h.NewClient)
	r.POST("/clients/add/", h.CreateClient)
	r.GET("/clients/:id/", h.ShowClient)
	r.GET("/clients/:id/edit/", h.EditClient)
	r.POST("/clients/:id/edit/", h.UpdateClient)
	r.GET("/clients/:id/delete/", h.ConfirmDeleteClient)
	r.POST("/clients/:id/delete/", h.DeleteClient)

	// ОТЧЁТЫ
	r.GET("/reports/", h.ListReports)
	r.GET("/reports/add/", h.NewReport)
	r.POST("/reports/add/", h.CreateReport)
	r.GET("/reports/:id/", h.ShowReport)
	r.GET("/reports/:id/edit/", h.EditReport)
	r.POST("/reports/:id/edit/", h.UpdateReport)
	r.GET("/reports/:id/delete/", h.ConfirmDeleteReport)
	r.POST("/reports/:id/delete/", h.DeleteReport)

	// ФАЙЛЫ
	r.POST("/reports/:id/files/:file_id/delete/", h.DeleteReportFile)

	// АУДИТ
	r.GET("/audit/", h.ListAuditLogs)

	// абсолютный MEDIA_URL (CDN и т.п.) отдаётся не нами
	if media := cfg.Storage.MediaURL; strings.HasPrefix(media, "/") {
		r.GET(media+"/*path", h.ServeMedia)
	}

	return r, nil
}
