package protocol

import (
	"time"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// RegistrationRequest is sent by a partition before its first round
type RegistrationRequest struct {
	NodeID    string `json:"node_id"`
	Version   string `json:"version"`
	Partition int    `json:"partition"`
	Size      int    `json:"size"` // partition count the node was started with
	Cells     int    `json:"cells"`
}

// RegistrationResponse is returned to partitions upon registration
type RegistrationResponse struct {
	RunID   string `json:"run_id"`
	Error   string `json:"error,omitempty"`
	Size    int    `json:"size"`
	Success bool   `json:"success"`
}

// ContributionRequest carries one partition's candidate for a round
type ContributionRequest struct {
	Key       string           `json:"key"`
	Candidate minmax.Candidate `json:"candidate"`
	Partition int              `json:"partition"`
}

// RoundResponse is returned once every partition has contributed
type RoundResponse struct {
	Error      string             `json:"error,omitempty"`
	Candidates []minmax.Candidate `json:"candidates,omitempty"`
	Mismatch   bool               `json:"mismatch,omitempty"`
}

// PartitionInfo describes a registered partition
type PartitionInfo struct {
	RegisteredAt time.Time `json:"registered_at"`
	NodeID       string    `json:"node_id"`
	Version      string    `json:"version"`
	Partition    int       `json:"partition"`
	Cells        int       `json:"cells"`
}

// StatusResponse provides the coordinator's view of the run
type StatusResponse struct {
	StartedAt       time.Time       `json:"started_at"`
	RunID           string          `json:"run_id"`
	Version         string          `json:"version"`
	Partitions      []PartitionInfo `json:"partitions"`
	Size            int             `json:"size"`
	Registered      int             `json:"registered"`
	RoundsCompleted uint64          `json:"rounds_completed"`
	RoundsFailed    uint64          `json:"rounds_failed"`
	RoundsPending   int             `json:"rounds_pending"`
}

// HealthResponse indicates node health
type HealthResponse struct {
	Status string `json:"status"`
}
