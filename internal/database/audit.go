package database

import (
	"context"
	"fmt"

	"client-reports/internal/models"

	"gorm.io/gorm"
)

const auditPageLimit = 200

// CreateAuditLog пишет запись в журнал изменений.
func CreateAuditLog(ctx context.Context, db *gorm.DB, entity string, entityID uint, action, details string) error {
	record := models.AuditLog{
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// RecentAuditLogs - последние записи журнала, новые сверху. entity="" - все сущности.
func RecentAuditLogs(ctx context.Context, db *gorm.DB, entity string) ([]models.AuditLog, error) {
	q := db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(auditPageLimit)
	if entity != "" {
		q = q.Where("entity = ?", entity)
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load audit logs: %w", err)
	}
	return logs, nil
}
