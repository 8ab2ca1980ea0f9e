package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"client-reports/internal/database"
	"client-reports/internal/forms"
	"client-reports/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const invalidClientMsg = "Select a valid choice. That choice is not one of the available choices."

// reportWithClient - отчёт вместе с клиентом одним запросом.
func reportWithClient(db *gorm.DB) *gorm.DB {
	return db.Joins("Client")
}

func reportWithFiles(db *gorm.DB) *gorm.DB {
	return db.Joins("Client").Preload("Files", func(db *gorm.DB) *gorm.DB {
		return db.Order("report_files.id ASC")
	})
}

//
// СПИСОК / ПРОСМОТР
//

func (h *Handler) ListReports(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	var reports []models.Report
	query := h.db.WithContext(c.Request.Context()).
		Model(&models.Report{}).
		Scopes(reportWithClient, database.SearchReports(q))

	page, err := paginate(c, query, "reports.created_at DESC, reports.id DESC", &reports)
	if err != nil {
		h.listError(c, "reports", err)
		return
	}

	render(c, http.StatusOK, "report_list.html", gin.H{
		"Title":   "Reports",
		"Reports": reports,
		"Page":    page,
		"Q":       q,
	})
}

func (h *Handler) ShowReport(c *gin.Context) {
	var report models.Report
	if !find(h, c, &report, "Report", reportWithFiles) {
		return
	}

	render(c, http.StatusOK, "report_detail.html", gin.H{
		"Title":  report.Title,
		"Report": report,
		"Files":  report.Files,
	})
}

//
// СОЗДАНИЕ / РЕДАКТИРОВАНИЕ
//

func (h *Handler) NewReport(c *gin.Context) {
	var form forms.ReportForm
	// ?client=<id> со страницы клиента
	if id, err := strconv.ParseUint(c.Query("client"), 10, 64); err == nil && id > 0 {
		form.Client = strconv.FormatUint(id, 10)
	}
	h.renderReportForm(c, http.StatusOK, nil, form, nil)
}

func (h *Handler) CreateReport(c *gin.Context) {
	form, files, ok := h.bindReport(c)
	if !ok {
		return
	}

	errs, err := h.validateReport(c, &form, files)
	if err != nil {
		h.serverError(c, "validate report", err)
		return
	}
	if errs.Any() {
		h.renderReportForm(c, http.StatusBadRequest, nil, form, errs)
		return
	}

	ctx := c.Request.Context()
	stored, err := h.storeUploads(ctx, files)
	if err != nil {
		h.serverError(c, "store uploads", err)
		return
	}

	report := models.Report{
		Title:       form.Title,
		Description: form.Description,
		ClientID:    form.ClientID(),
	}
	if err := database.CreateReport(ctx, h.db, &report, stored); err != nil {
		h.removeBlobs(ctx, filePaths(stored))
		h.serverError(c, "create report", err)
		return
	}

	h.log.Info(ctx, "report created", "id", report.ID, "client_id", report.ClientID, "files", len(stored))
	h.audit(c, models.EntityReport, report.ID, models.ActionCreate, report.Title)
	redirectWithFlash(c, "/reports/", fmt.Sprintf("Report %q was created.", report.Title))
}

func (h *Handler) EditReport(c *gin.Context) {
	var report models.Report
	if !find(h, c, &report, "Report", reportWithFiles) {
		return
	}
	h.renderReportForm(c, http.StatusOK, &report, forms.ReportFormFrom(report), nil)
}

func (h *Handler) UpdateReport(c *gin.Context) {
	var report models.Report
	if !find(h, c, &report, "Report", reportWithFiles) {
		return
	}

	form, files, ok := h.bindReport(c)
	if !ok {
		return
	}

	errs, err := h.validateReport(c, &form, files)
	if err != nil {
		h.serverError(c, "validate report", err)
		return
	}
	if errs.Any() {
		h.renderReportForm(c, http.StatusBadRequest, &report, form, errs)
		return
	}

	ctx := c.Request.Context()
	stored, err := h.storeUploads(ctx, files)
	if err != nil {
		h.serverError(c, "store uploads", err)
		return
	}

	changes := database.ReportChanges{
		Title:       form.Title,
		Description: form.Description,
		ClientID:    form.ClientID(),
	}
	removed, err := database.UpdateReport(ctx, h.db, report.ID, changes, stored, checkedIDs(c.PostFormArray("delete_files")))
	if err != nil {
		h.removeBlobs(ctx, filePaths(stored))
		if errors.Is(err, database.ErrNotFound) {
			c.String(http.StatusNotFound, "Report not found")
			return
		}
		h.serverError(c, "update report", err)
		return
	}
	h.removeBlobs(ctx, removed)

	h.log.Info(ctx, "report updated", "id", report.ID, "added_files", len(stored), "removed_files", len(removed))
	h.audit(c, models.EntityReport, report.ID, models.ActionUpdate,
		fmt.Sprintf("%s (+%d/-%d files)", form.Title, len(stored), len(removed)))
	redirectWithFlash(c, "/reports/", fmt.Sprintf("Report %q was updated.", form.Title))
}

// bindReport разбирает поля отчёта и новые файлы. false - ответ уже отправлен.
func (h *Handler) bindReport(c *gin.Context) (forms.ReportForm, []*multipart.FileHeader, bool) {
	var form forms.ReportForm

	files, err := h.uploadedFiles(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "Request is too large")
			return form, nil, false
		}
		c.String(http.StatusBadRequest, "Malformed form data")
		return form, nil, false
	}

	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Malformed form data")
		return form, nil, false
	}
	return form, files, true
}

// validateReport - поля формы, существование клиента и ограничения на файлы.
func (h *Handler) validateReport(c *gin.Context, form *forms.ReportForm, files []*multipart.FileHeader) (forms.Errors, error) {
	errs := form.Validate()

	if !errs.Has("client") {
		var count int64
		if err := h.db.WithContext(c.Request.Context()).
			Model(&models.Client{}).
			Where("id = ?", form.ClientID()).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			errs.Add("client", invalidClientMsg)
		}
	}

	errs.Merge(forms.ValidateUploads(files, h.uploadRules()))
	return errs, nil
}

func (h *Handler) renderReportForm(c *gin.Context, status int, report *models.Report, form forms.ReportForm, errs forms.Errors) {
	var clients []models.Client
	if err := h.db.WithContext(c.Request.Context()).Order("name ASC, id ASC").Find(&clients).Error; err != nil {
		h.serverError(c, "load clients", err)
		return
	}

	title, action := "New report", "/reports/add/"
	var files []models.ReportFile
	if report != nil {
		title = "Edit report"
		action = fmt.Sprintf("/reports/%d/edit/", report.ID)
		files = report.Files
	}

	slots := h.extraSlots(c)
	render(c, status, "report_form.html", gin.H{
		"Title":          title,
		"Action":         action,
		"Report":         report,
		"Form":           form.Values(),
		"Errors":         errs,
		"Widgets":        forms.ReportWidgets,
		"Clients":        clients,
		"SelectedClient": form.ClientID(),
		"Files":          files,
		"Slots":          slots,
		"MoreFieldsURL":  moreFieldsURL(c.Query("client"), slots),
		"Accept":         forms.Accept(),
		"MaxBytes":       h.upload.MaxBytes,
	})
}

// extraSlots - сколько пустых полей для файлов показать: ?extra=N, не больше MaxForms.
func (h *Handler) extraSlots(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("extra"))
	if err != nil || n < 0 {
		return h.upload.ExtraForms
	}
	if n > h.upload.MaxForms {
		return h.upload.MaxForms
	}
	return n
}

// moreFieldsURL - ссылка на ту же форму с ещё одним полем для файла. Предвыбранный
// клиент (?client=) не теряется.
func moreFieldsURL(client string, slots int) string {
	v := url.Values{}
	if client = strings.TrimSpace(client); client != "" {
		v.Set("client", client)
	}
	v.Set("extra", strconv.Itoa(slots+1))
	return "?" + v.Encode()
}

// checkedIDs разбирает значения чекбоксов delete_files, мусор пропускается.
func checkedIDs(values []string) []uint {
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

//
// УДАЛЕНИЕ
//

func (h *Handler) ConfirmDeleteReport(c *gin.Context) {
	var report models.Report
	if !find(h, c, &report, "Report", reportWithFiles) {
		return
	}

	render(c, http.StatusOK, "report_confirm_delete.html", gin.H{
		"Title":  "Delete report",
		"Report": report,
		"Files":  report.Files,
	})
}

func (h *Handler) DeleteReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.String(http.StatusNotFound, "Report not found")
		return
	}

	ctx := c.Request.Context()
	paths, err := database.DeleteReport(ctx, h.db, id)
	if errors.Is(err, database.ErrNotFound) {
		c.String(http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		h.serverError(c, "delete report", err)
		return
	}
	h.removeBlobs(ctx, paths)

	h.log.Info(ctx, "report deleted", "id", id, "files", len(paths))
	h.audit(c, models.EntityReport, id, models.ActionDelete, fmt.Sprintf("with %d file(s)", len(paths)))
	redirectWithFlash(c, "/reports/", "Report was deleted.")
}
