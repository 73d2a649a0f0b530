package schema

import "time"

// StoreStatus represents the status of the persistence store.
type StoreStatus struct {
	Backend         string           `json:"backend"`
	Connected       bool             `json:"connected"`
	TotalHypotheses int              `json:"total_hypotheses"`
	ActiveCount     int              `json:"active_count"`
	LastCreatedTime time.Time        `json:"last_created_time"`
	TableSizes      map[string]int64 `json:"table_sizes"`
}
