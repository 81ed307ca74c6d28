package admin

const (
	// CodeQueueNotFound is returned for queue names absent from the registry.
	CodeQueueNotFound = "QUEUE_NOT_FOUND"

	// CodeInvalidLimit is returned for limit query parameters out of range.
	CodeInvalidLimit = "INVALID_LIMIT"

	// CodeUnauthorized is returned when the bearer token is missing or wrong.
	CodeUnauthorized = "UNAUTHORIZED"

	// CodeInvalidQuery is returned when query parameters cannot be decoded.
	CodeInvalidQuery = "INVALID_QUERY"

	// CodeInvalidBody is returned when a request body cannot be decoded.
	CodeInvalidBody = "INVALID_BODY"
)
