package assign

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/workforce-engine/planner"
)

// Status message kinds.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultMessageTTL is how long a status message stays live when no TTL is
// configured.
const DefaultMessageTTL = 5 * time.Second

// StatusMessage is the transient outcome of one assignment attempt. Views
// show it until it expires; nothing stores it.
type StatusMessage struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Text       string             `json:"text"`
	TaskID     planner.TaskID     `json:"taskId"`
	EmployeeID planner.EmployeeID `json:"employeeId"`
	CreatedAt  time.Time          `json:"createdAt"`
	ExpiresAt  time.Time          `json:"expiresAt"`
}

// Expired reports whether the message should no longer be shown.
func (m StatusMessage) Expired(now time.Time) bool {
	return !now.Before(m.ExpiresAt)
}

func newStatusMessage(kind, text string, taskID planner.TaskID, employeeID planner.EmployeeID, now time.Time, ttl time.Duration) StatusMessage {
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	return StatusMessage{
		ID:         uuid.NewString(),
		Kind:       kind,
		Text:       text,
		TaskID:     taskID,
		EmployeeID: employeeID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}
