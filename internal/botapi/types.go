package botapi

// CommandRequest is a chat message forwarded by the transport.
type CommandRequest struct {
	UserID   string `json:"user_id"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// QualityChoice is one button of the quality follow-up.
type QualityChoice struct {
	Quality string `json:"quality"`
	Label   string `json:"label"`
}

// DownloadTarget echoes the request the choices apply to.
type DownloadTarget struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// CommandResponse is the reply to a chat message.
type CommandResponse struct {
	Reply   string          `json:"reply"`
	Choices []QualityChoice `json:"choices,omitempty"`
	Target  *DownloadTarget `json:"target,omitempty"`
}

// DownloadRequest asks for one video at one quality.
type DownloadRequest struct {
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Quality  string `json:"quality"`
	Language string `json:"language,omitempty"`
}

// ErrorResponse carries the fixed user-facing message for a rejection.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// StatsResponse is the usage summary.
type StatsResponse struct {
	Downloads     int            `json:"downloads"`
	Users         map[string]int `json:"users"`
	Platforms     map[string]int `json:"platforms"`
	QueueDepth    int            `json:"queue_depth"`
	QueueCapacity int            `json:"queue_capacity"`
}
