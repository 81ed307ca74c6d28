package queue

const (
	// CodeInvalidQueueName is returned when a queue is constructed without a name.
	CodeInvalidQueueName = "INVALID_QUEUE_NAME"

	// CodeInvalidQueueConfig is returned when the queue policy values are out of range.
	CodeInvalidQueueConfig = "INVALID_QUEUE_CONFIG"

	// CodeMalformedItem is returned by Pop when the popped message is not a valid envelope.
	// The raw message is moved to the error queue before the error is returned.
	CodeMalformedItem = "MALFORMED_ITEM"
)
