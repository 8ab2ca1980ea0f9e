package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"client-reports/internal/config"
	"client-reports/internal/forms"
	"client-reports/internal/logging"
	"client-reports/internal/pagination"
	"client-reports/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// perPage - размер страницы во всех списках
const perPage = 10

// Handler держит зависимости обработчиков: базу, файловое хранилище, логгер и лимиты загрузки.
type Handler struct {
	db     *gorm.DB
	files  storage.Storage
	log    logging.Logger
	upload config.UploadConfig
}

func New(db *gorm.DB, files storage.Storage, log logging.Logger, upload config.UploadConfig) *Handler {
	return &Handler{
		db:     db,
		files:  files,
		log:    log.With("component", "handlers"),
		upload: upload,
	}
}

func (h *Handler) uploadRules() forms.UploadRules {
	return forms.UploadRules{
		MaxFiles:    h.upload.MaxForms,
		MaxBytes:    h.upload.MaxBytes,
		StrictTypes: h.upload.StrictTypes,
	}
}

// parseID читает положительный id из параметра пути.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// find загружает запись по :id. false - ответ (404/500) уже отправлен.
func find[T any](h *Handler, c *gin.Context, dest *T, label string, scopes ...func(*gorm.DB) *gorm.DB) bool {
	id, ok := parseID(c, "id")
	if !ok {
		c.String(http.StatusNotFound, label+" not found")
		return false
	}

	err := h.db.WithContext(c.Request.Context()).Scopes(scopes...).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.String(http.StatusNotFound, label+" not found")
		return false
	}
	if err != nil {
		h.serverError(c, "load "+label, err)
		return false
	}
	return true
}

// paginate считает записи запроса и загружает в dest текущую страницу (?page=).
func paginate(c *gin.Context, q *gorm.DB, order string, dest any) (pagination.Page, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return pagination.Page{}, err
	}

	page, err := pagination.New(c.Query("page"), perPage, total)
	if err != nil {
		return pagination.Page{}, err
	}

	if err := q.Order(order).Scopes(page.Scope()).Find(dest).Error; err != nil {
		return pagination.Page{}, err
	}
	return page, nil
}

// listError отвечает на ошибку paginate: кривой номер страницы - 404.
func (h *Handler) listError(c *gin.Context, what string, err error) {
	if errors.Is(err, pagination.ErrInvalidPage) {
		c.String(http.StatusNotFound, "Invalid page")
		return
	}
	h.serverError(c, "list "+what, err)
}

func (h *Handler) serverError(c *gin.Context, op string, err error) {
	h.log.Error(c.Request.Context(), op+" failed", "err", err, "path", c.Request.URL.Path)
	c.String(http.StatusInternalServerError, "Internal server error")
}

// removeBlobs удаляет файлы из хранилища после коммита. Ошибки только логируются:
// запись в базе уже удалена, запрос из-за этого не падает.
func (h *Handler) removeBlobs(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := h.files.Delete(ctx, p); err != nil {
			h.log.Warn(ctx, "failed to remove stored file", "path", p, "err", err)
		}
	}
}
