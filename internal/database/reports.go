package database

import (
	"context"
	"fmt"

	"client-reports/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateReport сохраняет отчёт и его файлы одной транзакцией.
func CreateReport(ctx context.Context, db *gorm.DB, report *models.Report, files []models.ReportFile) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(report).Error; err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		return attachFiles(tx, report.ID, files)
	})
}

type ReportChanges struct {
	Title       string
	Description string
	ClientID    uint
}

// UpdateReport меняет редактируемые поля (created_at не трогаем), добавляет новые файлы
// и удаляет отмеченные. Возвращает пути удалённых файлов.
func UpdateReport(ctx context.Context, db *gorm.DB, reportID uint, ch ReportChanges, newFiles []models.ReportFile, deleteFileIDs []uint) ([]string, error) {
	var removed []string

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.Report
		if err := tx.Select("id").First(&report, reportID).Error; err != nil {
			return notFound(err)
		}

		if err := tx.Model(&report).Updates(map[string]interface{}{
			"title":       ch.Title,
			"description": ch.Description,
			"client_id":   ch.ClientID,
		}).Error; err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		if len(deleteFileIDs) > 0 {
			// только файлы этого отчёта, чужие id молча игнорируются
			q := tx.Model(&models.ReportFile{}).Where("report_id = ? AND id IN ?", reportID, deleteFileIDs)
			if err := q.Pluck("path", &removed).Error; err != nil {
				return fmt.Errorf("collect files: %w", err)
			}
			if err := tx.Where("report_id = ? AND id IN ?", reportID, deleteFileIDs).
				Delete(&models.ReportFile{}).Error; err != nil {
				return fmt.Errorf("delete files: %w", err)
			}
		}

		return attachFiles(tx, reportID, newFiles)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteReport удаляет отчёт вместе с файлами. Возвращает пути файлов.
func DeleteReport(ctx context.Context, db *gorm.DB, reportID uint) ([]string, error) {
	var paths []string

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.Report
		if err := tx.Select("id").First(&report, reportID).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.ReportFile{}).Where("report_id = ?", reportID).Pluck("path", &paths).Error; err != nil {
			return fmt.Errorf("collect files: %w", err)
		}
		if err := tx.Where("report_id = ?", reportID).Delete(&models.ReportFile{}).Error; err != nil {
			return fmt.Errorf("delete files: %w", err)
		}
		if err := tx.Delete(&models.Report{}, reportID).Error; err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// DeleteReportFile удаляет один файл отчёта и возвращает его путь в хранилище.
func DeleteReportFile(ctx context.Context, db *gorm.DB, reportID, fileID uint) (string, error) {
	var file models.ReportFile

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", reportID).First(&file, fileID).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&models.ReportFile{}, file.ID).Error; err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return file.Path, nil
}

func attachFiles(tx *gorm.DB, reportID uint, files []models.ReportFile) error {
	if len(files) == 0 {
		return nil
	}
	for i := range files {
		files[i].ReportID = reportID
	}
	if err := tx.Omit(clause.Associations).Create(&files).Error; err != nil {
		return fmt.Errorf("attach files: %w", err)
	}
	return nil
}
