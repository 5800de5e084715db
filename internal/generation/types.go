package generation

// SceneScript is one storyboard entry produced by script breakdown.
type SceneScript struct {
	Number       int     `json:"scene_number"`
	Description  string  `json:"scene_description"`
	Dialogue     string  `json:"dialogue"`
	SceneType    string  `json:"scene_type,omitempty"`
	DurationSecs float64 `json:"duration,omitempty"`
}

// Storyboard is the structured breakdown of an input document.
type Storyboard struct {
	Title   string        `json:"title"`
	Summary string        `json:"summary,omitempty"`
	Scenes  []SceneScript `json:"scenes"`
}

// Artifact is the product of a media generation operation: either a remote
// URL, raw bytes, or a path once downloaded locally.
type Artifact struct {
	URL          string
	Data         []byte
	LocalPath    string
	MIMEType     string
	DurationSecs float64
}

// Usage captures provider-reported token or unit consumption for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// OpState is the lifecycle state of an asynchronous provider operation.
type OpState string

const (
	OpStateQueued    OpState = "queued"
	OpStateRunning   OpState = "running"
	OpStateSucceeded OpState = "succeeded"
	OpStateFailed    OpState = "failed"
	OpStateCancelled OpState = "cancelled"
)
