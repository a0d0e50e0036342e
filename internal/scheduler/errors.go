package scheduler

// invalidJobError signals a malformed submission (empty id, bad GPU count).
// Ordinary control flow (failed acquisition, no-op release) never errors.
type invalidJobError struct{ msg string }

func (e invalidJobError) Error() string { return "invalid job: " + e.msg }

// IsInvalidJob reports whether err indicates a malformed job submission.
func IsInvalidJob(err error) bool {
	_, ok := err.(invalidJobError)
	return ok
}
