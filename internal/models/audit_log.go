package models

import "time"

// сущности и действия журнала
const (
	EntityClient     = "client"
	EntityReport     = "report"
	EntityReportFile = "report_file"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// AuditLog - запись журнала изменений. Ссылок на сущности нет: журнал переживает удаление.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	Entity   string `gorm:"size:50;not null"` // "client", "report", "report_file"
	EntityID uint
	Action   string `gorm:"size:50;not null"` // "create", "update", "delete"
	Details  string `gorm:"type:text"`
}
