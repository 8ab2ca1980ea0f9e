package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"client-reports/internal/config"
	"client-reports/internal/models"
	"client-reports/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func reportValues(title string, clientID uint) url.Values {
	return url.Values{
		"title":       {title},
		"description": {"Quarterly review"},
		"client":      {fmt.Sprint(clientID)},
	}
}

// Acme: клиент → отчёт → файл → удаление клиента убирает всё, включая сам файл.
func TestAcmeScenario(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	w := app.postForm("/clients/add/", url.Values{"name": {"Acme"}, "email": {"a@acme.com"}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	var acme models.Client
	require.NoError(t, app.db.Where("email = ?", "a@acme.com").First(&acme).Error)

	w = app.postMultipart("/reports/add/", reportValues("Q1 Audit", acme.ID), pdf("q1.pdf"))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/reports/", w.Header().Get("Location"))

	var report models.Report
	require.NoError(t, app.db.Preload("Files").Where("title = ?", "Q1 Audit").First(&report).Error)
	assert.Equal(t, acme.ID, report.ClientID)
	require.Len(t, report.Files, 1)

	file := report.Files[0]
	assert.Equal(t, "report_files/q1.pdf", file.Path)
	assert.Equal(t, "q1.pdf", file.OriginalName)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Len(t, file.Checksum, 64)

	exists, err := app.files.Exists(ctx, file.Path)
	require.NoError(t, err)
	assert.True(t, exists)

	w = app.get("/media/report_files/q1.pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-1.4"))

	w = app.postForm(fmt.Sprintf("/clients/%d/delete/", acme.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)

	var count int64
	app.db.Model(&models.Report{}).Count(&count)
	assert.Zero(t, count)
	app.db.Model(&models.ReportFile{}).Count(&count)
	assert.Zero(t, count)

	exists, err = app.files.Exists(ctx, file.Path)
	require.NoError(t, err)
	assert.False(t, exists)

	w = app.get("/media/report_files/q1.pdf")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateReport_NameCollision(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")

	w := app.postMultipart("/reports/add/", reportValues("Q1", acme.ID), pdf("q1.pdf"), pdf("q1.pdf"))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var files []models.ReportFile
	require.NoError(t, app.db.Order("id").Find(&files).Error)
	require.Len(t, files, 2)
	assert.Equal(t, "report_files/q1.pdf", files[0].Path)
	assert.NotEqual(t, files[0].Path, files[1].Path)
	assert.True(t, strings.HasPrefix(files[1].Path, "report_files/q1_"))
}

// имена на кириллице и с диакритикой сохраняются, меняются только пробелы
func TestCreateReport_UnicodeFileName(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")

	w := app.postMultipart("/reports/add/", reportValues("Q1", acme.ID), pdf("отчёт за май.pdf"), pdf("informe_año.pdf"))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var files []models.ReportFile
	require.NoError(t, app.db.Order("id").Find(&files).Error)
	require.Len(t, files, 2)
	assert.Equal(t, "report_files/отчёт_за_май.pdf", files[0].Path)
	assert.Equal(t, "отчёт за май.pdf", files[0].OriginalName)
	assert.Equal(t, "report_files/informe_año.pdf", files[1].Path)

	w = app.get("/media/report_files/" + url.PathEscape("отчёт_за_май.pdf"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestCreateReport_ValidationErrors(t *testing.T) {
	app := newTestApp(t)

	w := app.postMultipart("/reports/add/", url.Values{"title": {""}, "client": {"999"}}, pdf("q1.pdf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "Select a valid choice.")

	var count int64
	app.db.Model(&models.Report{}).Count(&count)
	assert.Zero(t, count)

	// невалидная форма не оставляет файлов в хранилище
	exists, err := app.files.Exists(context.Background(), "report_files/q1.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateReport_UrlencodedWithoutFiles(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")

	w := app.postForm("/reports/add/", reportValues("No files", acme.ID))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var report models.Report
	require.NoError(t, app.db.Where("title = ?", "No files").First(&report).Error)
	assert.Equal(t, "Quarterly review", report.Description)
}

func TestCreateReport_UploadLimits(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Upload.MaxForms = 2
		cfg.Upload.ExtraForms = 2
		cfg.Upload.StrictTypes = true
	})
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")

	w := app.postMultipart("/reports/add/", reportValues("Too many", acme.ID), pdf("a.pdf"), pdf("b.pdf"), pdf("c.pdf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please submit at most 2 files.")

	w = app.postMultipart("/reports/add/", reportValues("Bad type", acme.ID), upload{name: "tool.exe", content: []byte("MZ")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file type is not allowed")

	w = app.postMultipart("/reports/add/", reportValues("Empty", acme.ID), upload{name: "empty.txt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "the submitted file is empty")

	var count int64
	app.db.Model(&models.Report{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateReport_AdvisoryTypes(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")

	w := app.postMultipart("/reports/add/", reportValues("Notes", acme.ID), upload{name: "notes.md", content: []byte("# notes")})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var file models.ReportFile
	require.NoError(t, app.db.First(&file).Error)
	assert.Equal(t, "report_files/notes.md", file.Path)
	assert.True(t, strings.HasPrefix(file.ContentType, "text/plain"))
}

func TestNewReport_Form(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")
	testutil.CreateClient(t, app.db, "Globex", "g@globex.com")

	w := app.get(fmt.Sprintf("/reports/add/?client=%d", acme.ID))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, fmt.Sprintf(`value="%d" selected`, acme.ID))
	assert.Equal(t, 3, strings.Count(body, `type="file"`))
	assert.Contains(t, body, `accept=".pdf,.doc,.docx,.jpg,.jpeg,.png,.txt"`)
	assert.Contains(t, body, fmt.Sprintf(`href="?client=%d&amp;extra=4"`, acme.ID))

	// переход по ссылке сохраняет выбранного клиента
	w = app.get(fmt.Sprintf("/reports/add/?client=%d&extra=4", acme.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`value="%d" selected`, acme.ID))
	assert.Equal(t, 4, strings.Count(w.Body.String(), `type="file"`))
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`href="?client=%d&amp;extra=5"`, acme.ID))

	w = app.get("/reports/add/?extra=5")
	assert.Equal(t, 5, strings.Count(w.Body.String(), `type="file"`))
	assert.Contains(t, w.Body.String(), `href="?extra=6"`)
	assert.NotContains(t, w.Body.String(), " selected")

	w = app.get("/reports/add/?extra=50")
	assert.Equal(t, 10, strings.Count(w.Body.String(), `type="file"`))
}

func TestUpdateReport(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")
	globex := testutil.CreateClient(t, app.db, "Globex", "g@globex.com")

	w := app.postMultipart("/reports/add/", reportValues("Q1", acme.ID), pdf("keep.pdf"), pdf("drop.pdf"))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var report models.Report
	require.NoError(t, app.db.Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).First(&report).Error)
	require.Len(t, report.Files, 2)
	drop := report.Files[1]

	w = app.get(fmt.Sprintf("/reports/%d/edit/", report.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`name="delete_files" value="%d"`, drop.ID))

	values := reportValues("Q1 revised", globex.ID)
	values.Set("delete_files", fmt.Sprint(drop.ID))
	values.Set("created_at", "1999-01-01T00:00:00Z")
	w = app.postMultipart(fmt.Sprintf("/reports/%d/edit/", report.ID), values, pdf("new.pdf"))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var got models.Report
	require.NoError(t, app.db.Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).First(&got, report.ID).Error)
	assert.Equal(t, "Q1 revised", got.Title)
	assert.Equal(t, globex.ID, got.ClientID)
	assert.WithinDuration(t, report.CreatedAt, got.CreatedAt, time.Second, "created_at is not editable")

	names := []string{}
	for _, f := range got.Files {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"keep.pdf", "new.pdf"}, names)

	exists, err := app.files.Exists(ctx, drop.Path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateReport_InvalidKeepsFiles(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")
	report := testutil.CreateReport(t, app.db, acme.ID, "Q1", 0)

	w := app.postMultipart(fmt.Sprintf("/reports/%d/edit/", report.ID), url.Values{"title": {""}, "client": {fmt.Sprint(acme.ID)}}, pdf("new.pdf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	app.db.Model(&models.ReportFile{}).Count(&count)
	assert.Zero(t, count)

	w = app.postForm("/reports/999/edit/", reportValues("x", acme.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListReports_SearchAndOrder(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme Corp", "a@acme.com")
	globex := testutil.CreateClient(t, app.db, "Globex", "g@globex.com")
	testutil.CreateReport(t, app.db, acme.ID, "Q1 Audit", 0)
	testutil.CreateReport(t, app.db, acme.ID, "Q2 Audit", time.Hour)
	testutil.CreateReport(t, app.db, globex.ID, "Acme competitor analysis", 2*time.Hour)
	testutil.CreateReport(t, app.db, globex.ID, "Budget", 3*time.Hour)

	w := app.get("/reports/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 4, strings.Count(body, `class="report-row"`))
	assert.Less(t, strings.Index(body, "Budget"), strings.Index(body, "Q1 Audit"), "newest first")

	w = app.get("/reports/?q=acme")
	body = w.Body.String()
	assert.Equal(t, 3, strings.Count(body, `class="report-row"`))
	assert.NotContains(t, body, "Budget")

	w = app.get("/reports/?q=budget")
	assert.Equal(t, 1, strings.Count(w.Body.String(), `class="report-row"`))
}

func TestListReports_Pagination(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")
	for i := 0; i < 25; i++ {
		testutil.CreateReport(t, app.db, acme.ID, fmt.Sprintf("Report %02d", i), time.Duration(i)*time.Minute)
	}

	w := app.get("/reports/?page=1")
	assert.Equal(t, 10, strings.Count(w.Body.String(), `class="report-row"`))
	assert.Contains(t, w.Body.String(), "Report 24")

	w = app.get("/reports/?page=3")
	assert.Equal(t, 5, strings.Count(w.Body.String(), `class="report-row"`))
	assert.Contains(t, w.Body.String(), "Report 00")

	w = app.get("/reports/?page=9")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportDetailAndDelete(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")

	w := app.postMultipart("/reports/add/", reportValues("Q1 Audit", acme.ID), pdf("q1.pdf"))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	var report models.Report
	require.NoError(t, app.db.First(&report).Error)

	w = app.get(fmt.Sprintf("/reports/%d/", report.ID))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Q1 Audit")
	assert.Contains(t, body, "Acme")
	assert.Contains(t, body, `href="/media/report_files/q1.pdf"`)

	w = app.get(fmt.Sprintf("/reports/%d/delete/", report.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Q1 Audit - Acme")
	assert.Contains(t, w.Body.String(), "1 attached file(s)")

	w = app.postForm(fmt.Sprintf("/reports/%d/delete/", report.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/reports/", w.Header().Get("Location"))

	var count int64
	app.db.Model(&models.ReportFile{}).Count(&count)
	assert.Zero(t, count)
	app.db.Model(&models.Client{}).Count(&count)
	assert.Equal(t, int64(1), count, "client survives")

	for _, path := range []string{fmt.Sprintf("/reports/%d/", report.ID), "/reports/x/", fmt.Sprintf("/reports/%d/delete/", report.ID)} {
		assert.Equal(t, http.StatusNotFound, app.get(path).Code, path)
	}
}

func TestDeleteReportFile(t *testing.T) {
	app := newTestApp(t)
	acme := testutil.CreateClient(t, app.db, "Acme", "a@acme.com")
	other := testutil.CreateReport(t, app.db, acme.ID, "Other", 0)

	w := app.postMultipart("/reports/add/", reportValues("Q1", acme.ID), pdf("q1.pdf"))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	var file models.ReportFile
	require.NoError(t, app.db.First(&file).Error)

	// файл чужого отчёта не удаляется
	w = app.postForm(fmt.Sprintf("/reports/%d/files/%d/delete/", other.ID, file.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.postForm(fmt.Sprintf("/reports/%d/files/%d/delete/", file.ReportID, file.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/reports/%d/", file.ReportID), w.Header().Get("Location"))

	var count int64
	app.db.Model(&models.ReportFile{}).Count(&count)
	assert.Zero(t, count)

	exists, err := app.files.Exists(context.Background(), file.Path)
	require.NoError(t, err)
	assert.False(t, exists)

	w = app.get(fmt.Sprintf("/reports/%d/", file.ReportID))
	assert.Contains(t, w.Body.String(), "was deleted.")
}

func TestServeMedia_UnknownPath(t *testing.T) {
	app := newTestApp(t)

	// файл есть в хранилище, но не в базе
	require.NoError(t, app.files.Save(context.Background(), "report_files/orphan.txt", strings.NewReader("x"), "text/plain"))

	assert.Equal(t, http.StatusNotFound, app.get("/media/report_files/orphan.txt").Code)
	assert.Equal(t, http.StatusNotFound, app.get("/media/../go.mod").Code)
}
