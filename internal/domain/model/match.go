package model

// MatchResult is a ranked, scored candidate suggestion for a job. Results are
// produced on demand by the matching orchestrator and never persisted.
type MatchResult struct {
	WorkerID          string  `json:"worker_id"`
	WorkerName        string  `json:"worker_name"`
	ProfilePictureURL string  `json:"profile_picture_url,omitempty"`
	Score             float64 `json:"score"`
	Justification     string  `json:"justification"`
}
