package model

import "time"

// PingHistory is append-only; rows are never updated.
type PingHistory struct {
	ID           string `gorm:"primaryKey"`
	ServerID     string
	Status       bool
	ResponseTime int64 // milliseconds
	StatusCode   *int
	HeapUsage    *float64
	TotalHeap    *float64
	RssMemory    *float64
	TotalRss     *float64
	Timestamp    time.Time
}

func (PingHistory) TableName() string {
	return "ping_histories"
}
