package tagline

import "cat-tagline-go/internal/utils"

// ImagePayload is the raw body returned by the image source.
type ImagePayload struct {
	Data   []byte
	Format string
}

// Len returns the payload size in bytes.
func (p *ImagePayload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}

// Result is the outcome of one Run. Either every content field is set and
// Success is true, or only Error is set.
type Result struct {
	RunID       string `json:"run_id"`
	ImagePath   string `json:"image_path,omitempty"`
	Description string `json:"description,omitempty"`
	Tagline     string `json:"tagline,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`

	err error
}

func succeeded(runID, imagePath, description, tagline string) *Result {
	return &Result{
		RunID:       runID,
		ImagePath:   imagePath,
		Description: description,
		Tagline:     tagline,
		Success:     true,
	}
}

func failed(runID, message string, cause error) *Result {
	return &Result{
		RunID: runID,
		Error: message,
		err:   cause,
	}
}

// Err returns the underlying cause of a failed run, nil on success.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	return r.err
}

// DisplayTagline strips any quotes the model added and wraps the text in one pair.
func (r *Result) DisplayTagline() string {
	if r == nil {
		return ""
	}
	return utils.DisplayQuote(utils.StripQuotes(r.Tagline))
}
