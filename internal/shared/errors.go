package shared

import "fmt"

var (
	ErrUnsupported = fmt.Errorf("unsupported")

	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Handshake errors
	ErrCannotStart         = fmt.Errorf("cannot start scanner server")
	ErrMalformedSubmission = fmt.Errorf("malformed submission")
	ErrBrowserLaunch       = fmt.Errorf("failed to open browser")
	ErrCancelled           = fmt.Errorf("scan cancelled")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
