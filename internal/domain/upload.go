package domain

// UploadMeta carries CI metadata attached to an upload.
type UploadMeta struct {
	ServiceName string `json:"service_name,omitempty"`
	Branch      string `json:"branch,omitempty"`
	JobID       string `json:"job_id,omitempty"`
	Commit      string `json:"commit,omitempty"`
}

// UploadSubmission is what gets posted to the coverage-report service.
// The token travels in the payload and must never reach logs or artifacts.
type UploadSubmission struct {
	Token  string     `json:"repo_token"`
	Meta   UploadMeta `json:"meta"`
	Report RunReport  `json:"report"`
}

// UploadResult is the service's acknowledgement.
type UploadResult struct {
	StatusCode int    `json:"status_code"`
	URL        string `json:"url,omitempty"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Attempts   int    `json:"attempts"`
}
