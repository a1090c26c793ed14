package domain

import "time"

// TaskInfo is an observable snapshot of one in-flight rasterization.
type TaskInfo struct {
	Page      int       `json:"page"`
	Scale     float64   `json:"scale"`
	StartedAt time.Time `json:"started_at"`
}
