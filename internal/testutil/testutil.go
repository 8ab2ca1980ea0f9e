// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"client-reports/internal/config"
	"client-reports/internal/database"
	"client-reports/internal/logging"
	"client-reports/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB открывает чистую sqlite-базу во временной папке теста.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(context.Background(), database.Options{
		Driver:      config.DriverSQLite,
		DSN:         dsn,
		Logger:      logging.Discard(),
		MaxAttempts: 1,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func CreateClient(t *testing.T, db *gorm.DB, name, email string) models.Client {
	t.Helper()
	c := models.Client{Name: name, Email: email}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// CreateReport создаёт отчёт; offset сдвигает created_at, чтобы порядок был детерминированным.
func CreateReport(t *testing.T, db *gorm.DB, clientID uint, title string, offset time.Duration) models.Report {
	t.Helper()
	r := models.Report{
		ClientID:  clientID,
		Title:     title,
		CreatedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).Add(offset),
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func CreateReportFile(t *testing.T, db *gorm.DB, reportID uint, name string) models.ReportFile {
	t.Helper()
	f := models.ReportFile{
		ReportID:     reportID,
		Path:         models.ReportFileDir + "/" + name,
		OriginalName: name,
	}
	require.NoError(t, db.Create(&f).Error)
	return f
}

// Email генерирует уникальный адрес для массового создания клиентов.
func Email(i int) string {
	return fmt.Sprintf("client%02d@example.com", i)
}
