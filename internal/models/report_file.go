package models

import (
	"fmt"
	"path"
	"time"
)

// ReportFileDir - подпапка внутри media root / бакета для вложений отчётов
const ReportFileDir = "report_files"

type ReportFile struct {
	ID       uint `gorm:"primaryKey"`
	ReportID uint `gorm:"not null;index"`
	Report   Report

	Path         string `gorm:"size:255;not null"` // ключ в хранилище: report_files/<имя>
	OriginalName string `gorm:"size:255"`
	ContentType  string `gorm:"size:127"`
	Size         int64
	Checksum     string `gorm:"size:64"` // blake2b-256, hex

	UploadedAt time.Time `gorm:"not null;autoCreateTime"`
}

// Name - имя файла без подпапки, для ссылок в шаблонах
func (f ReportFile) Name() string {
	return path.Base(f.Path)
}

func (f ReportFile) String() string {
	return fmt.Sprintf("%s (%s)", f.Path, f.Report.Title)
}
