package models

import "time"

// Client - клиент консалтинговой компании
type Client struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:254;not null;uniqueIndex"`
	Phone     string    `gorm:"size:20"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time

	// при удалении клиента удаляются и его отчёты
	Reports []Report `gorm:"constraint:OnDelete:CASCADE"`
}

func (c Client) String() string {
	return c.Name
}
