package queue

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeReputation asks a worker to recompute one user's reputation.
	RequestTypeReputation RequestType = "reputation"
)

// Request is one unit of background work.
type Request struct {
	RequestID string      `json:"request_id"`
	Type      RequestType `json:"type"`
	UserID    string      `json:"user_id"`

	// Reason names what triggered the request, for logs only.
	Reason string `json:"reason,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewReputationRequest builds a reputation request for a user.
func NewReputationRequest(userID, reason string) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Type:       RequestTypeReputation,
		UserID:     userID,
		Reason:     reason,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Validate checks the fields every request type needs.
func (r *Request) Validate() error {
	if r.Type == "" {
		return errors.New("request type is required")
	}
	if r.UserID == "" {
		return errors.New("request user_id is required")
	}
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
