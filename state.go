package docview

import "context"

// StateStore persists small pieces of presentation state, such as
// navigation collapse flags, keyed by viewer instance.
type StateStore interface {
	// Get returns the value for key. The boolean is false when no value is
	// stored.
	Get(ctx context.Context, instance, key string) (string, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, instance, key, value string) error
}

// Result is a ranked search hit.
type Result struct {
	DocumentID string  `json:"documentId"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}
