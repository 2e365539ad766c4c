package assign

import (
	"context"

	"github.com/warp/workforce-engine/logger"
	"github.com/warp/workforce-engine/planner"
)

// Notification is the payload handed to the notification service when an
// assignment commits.
type Notification struct {
	EmployeeID       planner.EmployeeID `json:"employeeId"`
	Role             string             `json:"role"`
	Type             string             `json:"type"`
	Title            string             `json:"title"`
	Message          string             `json:"message"`
	RelatedTaskID    planner.TaskID     `json:"relatedTaskId"`
	RelatedProjectID planner.ProjectID  `json:"relatedProjectId"`
}

// Notifier delivers notifications. Delivery is an external concern; the
// facade only requires that failures surface as errors.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log instead of delivering them.
// Used in development and as the fallback when no service is configured.
type LogNotifier struct {
	Log logger.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	log := l.Log
	if log == nil {
		log = logger.Nop{}
	}
	log.Infof("notification to %s [%s]: %s (task %s)", n.EmployeeID, n.Type, n.Title, n.RelatedTaskID)
	return nil
}
