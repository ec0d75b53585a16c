package domain

import (
	"encoding/json"
	"time"
)

// JobPosting is the canonical, normalized form of a job posting
type JobPosting struct {
	JobID         string          `json:"jobId"`
	Title         string          `json:"title"`
	Company       string          `json:"company"`
	Location      string          `json:"location"`
	Description   string          `json:"description"`
	URL           string          `json:"url"`
	PublishedDate time.Time       `json:"publishedDate"`
	JobType       string          `json:"jobType"`
	Category      string          `json:"category"`
	Region        string          `json:"region"`
	Salary        string          `json:"salary"`
	Source        string          `json:"source"`
	RawPayload    json.RawMessage `json:"rawPayload,omitempty"`
	Active        bool            `json:"active"`
}

// UpsertResult is the outcome of one bulk upsert round trip
type UpsertResult struct {
	Inserted  int // rows created
	Modified  int // existing rows changed
	Unchanged int // existing rows left as is because nothing significant changed
}
