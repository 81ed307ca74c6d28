package manager

const (
	// CodeMissingOriginQueue is returned when an item does not name the queue it was pushed to.
	CodeMissingOriginQueue = "MISSING_ORIGIN_QUEUE"
)
