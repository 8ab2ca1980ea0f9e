package models

import (
	"fmt"
	"time"
)

type Report struct {
	ID       uint `gorm:"primaryKey"`
	ClientID uint `gorm:"not null;index"`
	Client   Client

	Title       string    `gorm:"size:150;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null;index"` // проставляется системой, из формы не редактируется
	UpdatedAt   time.Time

	Files []ReportFile `gorm:"constraint:OnDelete:CASCADE"`
}

func (r Report) String() string {
	return fmt.Sprintf("%s - %s", r.Title, r.Client.Name)
}
