package jobs

// invalidRequestError signals a malformed generation request for 400 mapping.
type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string { return "invalid request: " + e.msg }

// ErrInvalidRequest constructs an invalidRequestError.
func ErrInvalidRequest(msg string) error { return invalidRequestError{msg: msg} }

// IsInvalidRequest reports whether err indicates a malformed request.
func IsInvalidRequest(err error) bool {
	_, ok := err.(invalidRequestError)
	return ok
}

// unknownTaskError signals a task kind with no configured checkpoint, for 404
// mapping.
type unknownTaskError struct{ task string }

func (e unknownTaskError) Error() string { return "unknown task: " + e.task }

// ErrUnknownTask constructs an unknownTaskError.
func ErrUnknownTask(task string) error { return unknownTaskError{task: task} }

// IsUnknownTask reports whether err indicates an unrecognized task kind.
func IsUnknownTask(err error) bool {
	_, ok := err.(unknownTaskError)
	return ok
}
