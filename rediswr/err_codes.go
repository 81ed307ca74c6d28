package rediswr

const (
	// CodeInvalidStoreHandle is returned by FromHandle for unsupported connection objects.
	CodeInvalidStoreHandle = "INVALID_STORE_HANDLE"
)
