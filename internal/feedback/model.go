package feedback

import "time"

// Record is one completed analysis. It is written once and never updated.
type Record struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"ownerId"`
	DocumentName string         `json:"documentName"`
	DocumentKey  string         `json:"documentKey,omitempty"`
	Feedback     map[string]any `json:"feedback"`
	CreatedAt    time.Time      `json:"createdAt"`
}
