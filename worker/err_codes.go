package worker

const (
	// CodeProcessPanic is returned when a processor panics.
	CodeProcessPanic = "PROCESS_PANIC"

	// CodeInvalidWorker is returned when a worker is constructed without a queue or processor.
	CodeInvalidWorker = "INVALID_WORKER"
)
