package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidRange         ErrorCode = 102
	ErrCodeInvalidGranularity   ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104

	// Session and lookup errors (200-299)
	ErrCodeLoginFailed  ErrorCode = 200
	ErrCodeLookupFailed ErrorCode = 201
	ErrCodeCacheFailed  ErrorCode = 202

	// Market data errors (700-799)
	ErrCodeHistoricalDataFailed ErrorCode = 700
	ErrCodeTimeout              ErrorCode = 701
	ErrCodeRemoteData           ErrorCode = 702
	ErrCodeMalformedRow         ErrorCode = 703
	ErrCodeSinkWrite            ErrorCode = 704
	ErrCodeAcquisitionAborted   ErrorCode = 705
)
