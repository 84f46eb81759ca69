package tagline

// GenerateRequest is the optional body of POST /api/generate.
type GenerateRequest struct {
	APIKey string `json:"api_key"`
}

// GenerateResponse mirrors a pipeline result for the page.
type GenerateResponse struct {
	RunID          string `json:"run_id"`
	ImageURL       string `json:"image_url,omitempty"`
	Description    string `json:"description,omitempty"`
	Tagline        string `json:"tagline,omitempty"`
	DisplayTagline string `json:"display_tagline,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ProcessStats is read from gopsutil on every status call.
type ProcessStats struct {
	PID           int32   `json:"pid"`
	RSSBytes      uint64  `json:"rss_bytes"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// StatusResponse drives the banners on the page.
type StatusResponse struct {
	Mode                 string       `json:"mode"`
	CredentialConfigured bool         `json:"credential_configured"`
	CredentialSource     string       `json:"credential_source,omitempty"`
	NeedsAPIKey          bool         `json:"needs_api_key"`
	Banner               string       `json:"banner"`
	Hint                 string       `json:"hint,omitempty"`
	ImageAvailable       bool         `json:"image_available"`
	ProgressClients      int          `json:"progress_clients"`
	Process              ProcessStats `json:"process"`
}
