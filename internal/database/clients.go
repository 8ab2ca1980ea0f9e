package database

import (
	"context"
	"fmt"
	"strings"

	"client-reports/internal/models"

	"gorm.io/gorm"
)

// EmailTaken проверяет уникальность email без учёта регистра. exceptID - id клиента,
// которого редактируют (0 при создании).
func EmailTaken(ctx context.Context, db *gorm.DB, email string, exceptID uint) (bool, error) {
	q := db.WithContext(ctx).Model(&models.Client{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

type ClientUsage struct {
	Reports int64
	Files   int64
}

// CountClientChildren - сколько записей удалится вместе с клиентом (для страницы подтверждения).
func CountClientChildren(ctx context.Context, db *gorm.DB, clientID uint) (ClientUsage, error) {
	var u ClientUsage
	db = db.WithContext(ctx)

	if err := db.Model(&models.Report{}).Where("client_id = ?", clientID).Count(&u.Reports).Error; err != nil {
		return u, fmt.Errorf("count reports: %w", err)
	}
	if err := db.Model(&models.ReportFile{}).
		Where("report_id IN (?)", clientReportIDs(db, clientID)).
		Count(&u.Files).Error; err != nil {
		return u, fmt.Errorf("count files: %w", err)
	}
	return u, nil
}

// DeleteClient удаляет клиента вместе с отчётами и их файлами в одной транзакции.
// Возвращает пути файлов, которые нужно убрать из хранилища после коммита.
func DeleteClient(ctx context.Context, db *gorm.DB, clientID uint) ([]string, error) {
	var paths []string

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Select("id").First(&client, clientID).Error; err != nil {
			return notFound(err)
		}

		if err := tx.Model(&models.ReportFile{}).
			Where("report_id IN (?)", clientReportIDs(tx, clientID)).
			Pluck("path", &paths).Error; err != nil {
			return fmt.Errorf("collect files: %w", err)
		}

		if err := tx.Where("report_id IN (?)", clientReportIDs(tx, clientID)).
			Delete(&models.ReportFile{}).Error; err != nil {
			return fmt.Errorf("delete files: %w", err)
		}
		if err := tx.Where("client_id = ?", clientID).Delete(&models.Report{}).Error; err != nil {
			return fmt.Errorf("delete reports: %w", err)
		}
		if err := tx.Delete(&models.Client{}, clientID).Error; err != nil {
			return fmt.Errorf("delete client: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func clientReportIDs(db *gorm.DB, clientID uint) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Report{}).
		Select("id").
		Where("client_id = ?", clientID)
}
