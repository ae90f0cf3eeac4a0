package store

// Status is the outcome of an execution.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Execution is one journal row.
type Execution struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Entity      string `json:"entity"`
	Action      string `json:"action"`
	Term        string `json:"term"`
	Fingerprint string `json:"fingerprint"`
	Status      Status `json:"status"`
	Result      string `json:"result,omitempty"` // canonical JSON, empty on error
	ResultHash  string `json:"result_hash,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	Error       string `json:"error,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}
