package envelope

const (
	// CodeMissingContent is returned when serializing an envelope without contents.
	CodeMissingContent = "MISSING_CONTENT"

	// CodeMalformedEnvelope is returned when a wire message cannot be parsed.
	CodeMalformedEnvelope = "MALFORMED_ENVELOPE"
)
