package processsubmission

import "time"

// Config holds the per-task settings from workers.<task type>.
type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errTimeout
	}
	if c.MaxJobsActive <= 0 {
		return errMaxJobs
	}
	return nil
}

// AttachmentVariable is a file carried inline in the job variables.
type AttachmentVariable struct {
	FieldName   string `json:"fieldName"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"` // base64
}
