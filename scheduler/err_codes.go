package scheduler

const (
	// CodeNotDeferrable is returned by Defer for items without origin_queue or run_at.
	CodeNotDeferrable = "NOT_DEFERRABLE"

	// CodeInvalidScheduler is returned when a scheduler is constructed without its dependencies.
	CodeInvalidScheduler = "INVALID_SCHEDULER"
)
