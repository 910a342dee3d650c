package model

import "time"

// Alert marks a reported down episode. At most one row exists per server.
type Alert struct {
	ID          string `gorm:"primaryKey"`
	ServerID    string `gorm:"uniqueIndex"`
	OwnerID     string
	LastAlertAt time.Time
	NextAlertAt time.Time
	CreatedAt   time.Time
}

func (Alert) TableName() string {
	return "alerts"
}
