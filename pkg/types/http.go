package types

import (
	"context"
	"net/url"
)

// RequestContext carries everything the detectors are allowed to see about
// an inbound request. It is built once per request by the request-context
// middleware and never mutated by detectors.
type RequestContext struct {
	Context   context.Context
	TraceID   string
	Method    string
	Path      string
	RawQuery  string
	Query     url.Values
	Headers   map[string][]string
	Body      []byte
	IP        string
	UserAgent string
	ActorID   string
	Stage     Stage
}

// Header returns the first value of the named header, or "".
func (r *RequestContext) Header(name string) string {
	if values, ok := r.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// ResponseContext collects headers and metadata detectors want applied to a
// passing response.
type ResponseContext struct {
	Headers    map[string][]string
	StatusCode int
	Metadata   map[string]interface{}
}
