package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrNotRegistered      = fmt.Errorf("participant not registered")
	ErrConnection         = fmt.Errorf("bus unavailable")
	ErrValidation         = fmt.Errorf("invalid snapshot fields")
	ErrMissingFields      = fmt.Errorf("snapshot misses required fields")
	ErrInvalidSnapshot    = fmt.Errorf("snapshot cannot be parsed")
	ErrRestoreTimeout     = fmt.Errorf("no snapshot file appeared in time")
	ErrServiceUnavailable = fmt.Errorf("workshop service not ready")
	ErrExternalCallFailed = fmt.Errorf("workshop call exhausted retries")
)
