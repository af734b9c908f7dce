// Package attack_signature screens the request line and JSON body for the
// classic injection signatures: SQL metacharacters, markup fragments and
// directory climbing. A hit is refused outright; the signatures are too
// noisy to justify a ban on their own.
package attack_signature

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"

	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

const PluginName = "attack_signature"

var (
	sqlInjectionPattern = regexp.MustCompile(`(?i)(%27)|(')|(--)|(%23)|(#)`)
	xssPattern          = regexp.MustCompile(`(?i)((%3C)|<)((%2F)|/)*[a-z0-9%]+((%3E)|>)`)
	traversalPattern    = regexp.MustCompile(`\.\./`)
)

type signature struct {
	name    string
	pattern *regexp.Regexp
}

var signatures = []signature{
	{"sql injection", sqlInjectionPattern},
	{"cross-site scripting", xssPattern},
	{"directory traversal", traversalPattern},
}

type AttackSignature struct {
	logger *logrus.Logger
}

func NewAttackSignature(logger *logrus.Logger) pluginiface.Plugin {
	return &AttackSignature{logger: logger}
}

func (p *AttackSignature) Name() string {
	return PluginName
}

func (p *AttackSignature) Stages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *AttackSignature) AllowedStages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *AttackSignature) ValidateConfig(config types.PluginConfig) error {
	return nil
}

func (p *AttackSignature) Execute(ctx context.Context, pluginConfig types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	if name := p.match(req.Path); name != "" {
		return nil, p.blocked(req, name, "path")
	}
	if name := p.match(req.RawQuery); name != "" {
		return nil, p.blocked(req, name, "query")
	}
	if len(req.Body) > 0 {
		if name := p.matchBody(req.Body); name != "" {
			return nil, p.blocked(req, name, "body")
		}
	}
	return &types.PluginResponse{StatusCode: http.StatusOK, Message: "request allowed"}, nil
}

func (p *AttackSignature) match(input string) string {
	if input == "" {
		return ""
	}
	for _, sig := range signatures {
		if sig.pattern.MatchString(input) {
			return sig.name
		}
	}
	return ""
}

// matchBody walks the parsed JSON and screens every key and string value.
// A body that does not parse as JSON is scanned as raw text instead.
func (p *AttackSignature) matchBody(body []byte) string {
	value, err := fastjson.ParseBytes(body)
	if err != nil {
		return p.match(string(body))
	}
	return p.walk(value)
}

func (p *AttackSignature) walk(value *fastjson.Value) string {
	switch value.Type() {
	case fastjson.TypeString:
		if b, err := value.StringBytes(); err == nil {
			return p.match(string(b))
		}
	case fastjson.TypeObject:
		obj, err := value.Object()
		if err != nil {
			return ""
		}
		var found string
		obj.Visit(func(key []byte, v *fastjson.Value) {
			if found != "" {
				return
			}
			if name := p.match(string(key)); name != "" {
				found = name
				return
			}
			found = p.walk(v)
		})
		return found
	case fastjson.TypeArray:
		items, err := value.Array()
		if err != nil {
			return ""
		}
		for _, item := range items {
			if name := p.walk(item); name != "" {
				return name
			}
		}
	}
	return ""
}

func (p *AttackSignature) blocked(req *types.RequestContext, signatureName, location string) *types.PluginError {
	p.logger.WithFields(logrus.Fields{
		"signature": signatureName,
		"location":  location,
		"path":      req.Path,
		"trace_id":  req.TraceID,
	}).Warn("attack signature detected")
	return &types.PluginError{
		StatusCode: http.StatusForbidden,
		Message:    "forbidden",
		Details:    fmt.Sprintf("%s signature in %s", signatureName, location),
	}
}
