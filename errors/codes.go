package errors

// ErrorCode identifies an application error category
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 200

	ErrorCode_INTERNAL ErrorCode = iota + 1000
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ALREADY_EXISTS

	ErrorCode_INVALID_PAYLOAD
	ErrorCode_WEBHOOK_UNAUTHORIZED

	ErrorCode_STORAGE_FAILED
	ErrorCode_DUPLICATE_RECORD
	ErrorCode_DB_CONNECTION_FAILED

	ErrorCode_UPSTREAM_UNAVAILABLE
	ErrorCode_RECORDING_FETCH_FAILED
	ErrorCode_ENRICHMENT_FAILED
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                "OK",
	ErrorCode_INTERNAL:               "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:       "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:              "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:         "ALREADY_EXISTS",
	ErrorCode_INVALID_PAYLOAD:        "INVALID_PAYLOAD",
	ErrorCode_WEBHOOK_UNAUTHORIZED:   "WEBHOOK_UNAUTHORIZED",
	ErrorCode_STORAGE_FAILED:         "STORAGE_FAILED",
	ErrorCode_DUPLICATE_RECORD:       "DUPLICATE_RECORD",
	ErrorCode_DB_CONNECTION_FAILED:   "DB_CONNECTION_FAILED",
	ErrorCode_UPSTREAM_UNAVAILABLE:   "UPSTREAM_UNAVAILABLE",
	ErrorCode_RECORDING_FETCH_FAILED: "RECORDING_FETCH_FAILED",
	ErrorCode_ENRICHMENT_FAILED:      "ENRICHMENT_FAILED",
}

// String returns a stable name for the error code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
