package database

import (
	"context"
	"fmt"

	"client-reports/internal/models"

	"gorm.io/gorm"
)

const dashboardTopN = 5

type TopClient struct {
	ID          uint
	Name        string
	Email       string
	ReportCount int64
}

type Dashboard struct {
	TotalClients  int64
	TotalReports  int64
	TopClients    []TopClient
	RecentReports []models.Report
}

// LoadDashboard собирает метрики для главной страницы.
// Топ клиентов: по убыванию числа отчётов, при равенстве - в порядке создания.
func LoadDashboard(ctx context.Context, db *gorm.DB) (*Dashboard, error) {
	db = db.WithContext(ctx)
	d := &Dashboard{}

	if err := db.Model(&models.Client{}).Count(&d.TotalClients).Error; err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	if err := db.Model(&models.Report{}).Count(&d.TotalReports).Error; err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	if err := db.Model(&models.Client{}).
		Select("clients.id, clients.name, clients.email, COUNT(reports.id) AS report_count").
		Joins("LEFT JOIN reports ON reports.client_id = clients.id").
		Group("clients.id, clients.name, clients.email").
		Order("report_count DESC, clients.id ASC").
		Limit(dashboardTopN).
		Scan(&d.TopClients).Error; err != nil {
		return nil, fmt.Errorf("top clients: %w", err)
	}

	if err := db.Joins("Client").
		Order("reports.created_at DESC, reports.id DESC").
		Limit(dashboardTopN).
		Find(&d.RecentReports).Error; err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}

	return d, nil
}
