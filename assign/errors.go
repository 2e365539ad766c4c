/*
errors.go - Error types for the assignment facade

PURPOSE:
  The facade talks to exactly two external systems: the task store and the
  notification service. These are the only calls in the engine that can
  fail transiently, so their failures get first-class types the API layer
  can map to status codes and the operator can grep for.

USAGE:
    if assign.IsTaskMissing(err) { ... 404 ... }
    if assign.IsExternalCall(err) { ... 502 + transient message ... }

SEE ALSO:
  - facade.go: where these are raised
  - api/handlers.go: where they become HTTP responses
*/
package assign

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTaskNotFound is returned by task stores when the assignment target
	// does not exist in the persisted snapshot.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmployeeNotFound is returned when the assignee is not on the
	// roster the facade was handed.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ExternalCallError wraps a failure from one of the facade's two external
// dependencies. Op is "assign" or "notify".
type ExternalCallError struct {
	Op  string
	Err error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("external %s call: %v", e.Op, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsExternalCall reports whether err originated in an external dependency
// of the facade.
func IsExternalCall(err error) bool {
	var ece *ExternalCallError
	return errors.As(err, &ece)
}

// IsTaskMissing reports whether err means the assignment target task does
// not exist.
func IsTaskMissing(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}
