package image

// ValidationResult captures the outcome of image validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	Error        error
	SecurityRisk string
}

// Output is the encoded payload handed to the vision model.
type Output struct {
	Base64  string
	Bytes   []byte
	Format  string
	DataURL string
}
