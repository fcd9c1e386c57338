package history

import "time"

// Track is one generation job as recorded in the history ledger. The prompt
// is written when the job starts; title, audio URL and resolved_at arrive
// with the completion. The ledger is write-only for the notification core:
// it is never consulted to resolve a job.
type Track struct {
	JobID      string     `json:"job_id"`
	Prompt     string     `json:"prompt,omitempty"`
	Title      string     `json:"title,omitempty"`
	AudioURL   string     `json:"audio_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
