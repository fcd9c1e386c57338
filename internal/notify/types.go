package notify

// Record is the completion payload reported for a finished generation job.
// Once stored for a job id it is immutable; a job completes at most once.
type Record struct {
	JobID    string `json:"jobId"`
	Title    string `json:"title"`
	AudioURL string `json:"audioUrl"`
}

// Listener is the server-held end of one live attach request. Deliver is
// called at most once per job id the listener was registered under.
//
// Listener values are compared by identity inside the Registry, so
// implementations must be pointer-backed.
type Listener interface {
	Deliver(rec Record) error
}
