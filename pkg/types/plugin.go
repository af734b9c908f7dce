package types

// Stage represents when a detector should be executed
type Stage string

const (
	PreRequest   Stage = "pre_request"
	PostResponse Stage = "post_response"
)

// PluginConfig represents the configuration for a single detector in the chain
type PluginConfig struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Enabled  bool                   `json:"enabled"`
	Stage    Stage                  `json:"stage"`
	Priority int                    `json:"priority"`
	Settings map[string]interface{} `json:"settings"`
}

// PluginError is a blocking verdict. The status code, body and headers are
// part of the observable contract: several detectors deliberately answer
// with misleading codes (200 honeypot, 404 masking, 429, 503, 418).
type PluginError struct {
	StatusCode int
	Message    string
	Body       []byte
	Headers    map[string][]string
	// Detector is stamped by the chain runner with the name of the plugin
	// that produced the verdict.
	Detector string
	// Details carries evidence for the audit trail, such as the matched
	// signature. Never sent to the client.
	Details string
	Err     error
}

func (e *PluginError) Error() string {
	return e.Message
}

type PluginResponse struct {
	StatusCode int
	Message    string
	Headers    map[string][]string
	Metadata   map[string]interface{}
}
