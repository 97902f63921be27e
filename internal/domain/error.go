package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrConflict        = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateSubmission is terminal for the current attempt: the slot
	// (job, candidate, question) already holds a submission and overwrite
	// was not requested.
	ErrDuplicateSubmission = errors.New("submission already exists for this slot")

	// ErrUpload means the object-store write failed; nothing was persisted.
	ErrUpload = errors.New("answer upload failed")

	// ErrPersist means the object write succeeded but the metadata write did
	// not. The uploaded object is orphaned; the core does not clean it up.
	ErrPersist = errors.New("submission metadata write failed")
)

// DeviceError reports that a capture device could not be acquired: the
// platform denied permission or no device is present. Not retried
// automatically; the user must re-invoke acquisition.
type DeviceError struct {
	Cause error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("capture device unavailable: %v", e.Cause)
}

func (e *DeviceError) Unwrap() error { return e.Cause }

// InvalidStateError reports an operation invoked in a capture-session state
// that forbids it. This is a programming-contract violation, not a
// user-recoverable condition.
type InvalidStateError struct {
	Op    string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not valid in state %s", e.Op, e.State)
}

// IncompleteAnswerError blocks a batch submission and names exactly the
// question indices that still lack a finalized answer.
type IncompleteAnswerError struct {
	Missing []int
}

func (e *IncompleteAnswerError) Error() string {
	return fmt.Sprintf("missing answers for question indices %v", e.Missing)
}
