package model

import "time"

type Server struct {
	ID                  string `gorm:"primaryKey"`
	OwnerID             string
	URL                 string
	PingInterval        int //seconds
	FailureThreshold    int
	ConsecutiveFailures int
	IsActive            bool
	LastPingedAt        *time.Time
	NextPingAt          time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Server) TableName() string {
	return "servers"
}

func (s *Server) PingIntervalDuration() time.Duration {
	return time.Duration(s.PingInterval) * time.Second
}

// ApplySuccess moves the server to the up state after a successful probe at t.
func (s *Server) ApplySuccess(t time.Time) {
	s.IsActive = true
	s.ConsecutiveFailures = 0
	s.LastPingedAt = &t
	s.NextPingAt = t.Add(s.PingIntervalDuration())
}

// ApplyFailure records a failed probe at t. crossedThreshold is true only for the failure that
// moves the count from FailureThreshold to FailureThreshold+1, which is the one allowed to raise
// an alert for the current down episode.
func (s *Server) ApplyFailure(t time.Time) (crossedThreshold bool) {
	previous := s.ConsecutiveFailures
	s.IsActive = false
	s.ConsecutiveFailures = previous + 1
	s.LastPingedAt = &t
	s.NextPingAt = t.Add(s.PingIntervalDuration())
	return previous == s.FailureThreshold
}
