package domain

import "time"

// RunStatus tracks how far a sync run progressed.
type RunStatus string

const (
	RunStatusSubmitted RunStatus = "submitted"
	RunStatusReady     RunStatus = "ready"
	RunStatusPublished RunStatus = "published"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the persisted record of a single report sync: the job it submitted,
// the request it carried and where the result ended up.
type Run struct {
	ID           string
	JobID        string
	AdvertiserID string
	SheetName    string
	Status       RunStatus
	ArtifactURL  string
	RowCount     int
	Request      ReportRequest
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
