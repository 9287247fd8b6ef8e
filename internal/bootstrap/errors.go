package bootstrap

import (
	"errors"
	"fmt"
)

// ErrStageTimeout is returned when a polled stage does not complete within
// its configured deadline. Check with errors.Is().
var ErrStageTimeout = errors.New("bootstrap: stage timed out")

// StageError reports a bootstrap stage failure with severity information.
// Fatal errors mean continuing cannot make progress (radio init, profile
// clearing, association); the top-level control flow turns them into a
// deliberate halt. Non-fatal errors (poll timeouts, cancellation) are the
// caller's to retry.
type StageError struct {
	// Stage is the name of the failed stage.
	Stage string

	// Fatal indicates no recovery path exists within the component.
	Fatal bool

	// Err is the underlying error.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("bootstrap: stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// newStageError wraps a driver failure with stage context.
func newStageError(stage string, fatal bool, err error) *StageError {
	return &StageError{Stage: stage, Fatal: fatal, Err: err}
}

// IsFatal reports whether err carries a fatal bootstrap stage failure.
func IsFatal(err error) bool {
	var se *StageError
	return errors.As(err, &se) && se.Fatal
}
