package model

// PingJob is the queue payload. The job id is always the server id.
type PingJob struct {
	ServerID string `json:"server_id"`
	URL      string `json:"url"`
	OwnerID  string `json:"owner_id"`
}
