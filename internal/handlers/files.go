package handlers

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"client-reports/internal/database"
	"client-reports/internal/models"
	"client-reports/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/blake2b"
)

// поле формы, в котором приходят новые файлы отчёта
const filesField = "files"

// uploadedFiles возвращает новые файлы из multipart-формы. Тело запроса ограничено
// лимитом на файл, умноженным на число слотов, плюс запас на обычные поля.
func (h *Handler) uploadedFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	limit := h.upload.MaxBytes*int64(h.upload.MaxForms) + 1<<20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return form.File[filesField], nil
}

// storeUploads кладёт файлы в хранилище до транзакции. Если какой-то файл не сохранился,
// уже записанные удаляются.
func (h *Handler) storeUploads(ctx context.Context, files []*multipart.FileHeader) ([]models.ReportFile, error) {
	stored := make([]models.ReportFile, 0, len(files))
	for _, fh := range files {
		rf, err := h.storeUpload(ctx, fh)
		if err != nil {
			h.removeBlobs(ctx, filePaths(stored))
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		stored = append(stored, rf)
	}
	return stored, nil
}

func (h *Handler) storeUpload(ctx context.Context, fh *multipart.FileHeader) (models.ReportFile, error) {
	f, err := fh.Open()
	if err != nil {
		return models.ReportFile{}, err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return models.ReportFile{}, fmt.Errorf("detect type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return models.ReportFile{}, err
	}

	name, err := storage.AvailableName(ctx, h.files, path.Join(models.ReportFileDir, storage.ValidName(fh.Filename)))
	if err != nil {
		return models.ReportFile{}, err
	}

	sum, err := blake2b.New256(nil)
	if err != nil {
		return models.ReportFile{}, err
	}
	if err := h.files.Save(ctx, name, io.TeeReader(f, sum), mt.String()); err != nil {
		return models.ReportFile{}, err
	}

	return models.ReportFile{
		Path:         name,
		OriginalName: originalName(fh.Filename),
		ContentType:  mt.String(),
		Size:         fh.Size,
		Checksum:     hex.EncodeToString(sum.Sum(nil)),
	}, nil
}

func originalName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

func filePaths(files []models.ReportFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// DeleteReportFile удаляет одно вложение сразу, без страницы подтверждения.
func (h *Handler) DeleteReportFile(c *gin.Context) {
	reportID, ok := parseID(c, "id")
	if !ok {
		c.String(http.StatusNotFound, "Report not found")
		return
	}
	fileID, ok := parseID(c, "file_id")
	if !ok {
		c.String(http.StatusNotFound, "File not found")
		return
	}

	ctx := c.Request.Context()
	p, err := database.DeleteReportFile(ctx, h.db, reportID, fileID)
	if errors.Is(err, database.ErrNotFound) {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		h.serverError(c, "delete report file", err)
		return
	}
	h.removeBlobs(ctx, []string{p})

	h.log.Info(ctx, "report file deleted", "report_id", reportID, "file_id", fileID)
	h.audit(c, models.EntityReportFile, fileID, models.ActionDelete, p)
	redirectWithFlash(c, fmt.Sprintf("/reports/%d/", reportID), fmt.Sprintf("File %q was deleted.", path.Base(p)))
}

// ServeMedia отдаёт сохранённый файл. Отдаются только файлы, у которых есть запись в базе.
func (h *Handler) ServeMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	ctx := c.Request.Context()

	var file models.ReportFile
	err := h.db.WithContext(ctx).Where("path = ?", key).Take(&file).Error
	if err != nil {
		if database.IsNotFound(err) {
			c.String(http.StatusNotFound, "File not found")
			return
		}
		h.serverError(c, "load report file", err)
		return
	}

	rc, err := h.files.Open(ctx, file.Path)
	if errors.Is(err, storage.ErrNotExist) {
		h.log.Warn(ctx, "stored file is missing", "path", file.Path)
		c.String(http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		h.serverError(c, "open stored file", err)
		return
	}
	defer rc.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("inline", map[string]string{"filename": file.OriginalName})

	c.DataFromReader(http.StatusOK, file.Size, contentType, rc, map[string]string{
		"Content-Disposition":    disposition,
		"X-Content-Type-Options": "nosniff",
	})
}
