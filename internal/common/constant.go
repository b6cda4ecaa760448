package common

const (
	// APIKeyHeaderName is the HTTP header carrying the backend API key on
	// every outbound request.
	APIKeyHeaderName = "apikey"

	// OfflineDBDirName is the subdirectory under the data dir that holds the
	// per-user JSON table files.
	OfflineDBDirName = "offline_db"
)
