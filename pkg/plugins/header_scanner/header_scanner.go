// Package header_scanner rejects requests that smuggle attack payloads in
// header values. Headers reach log pipelines and admin dashboards verbatim,
// so a hit is treated as hostile and bans the sender.
package header_scanner

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/infra/prometheus"
	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

const PluginName = "header_scanner"

// dangerousFragments are matched case-insensitively against every header
// value. "<script" rather than "script" keeps Accept headers like
// application/javascript out of the blast radius.
var dangerousFragments = []string{
	// script injection
	"<script",
	"javascript:",
	"vbscript:",
	"onerror=",
	"onload=",
	// command execution
	"etc/passwd",
	"etc/shadow",
	"bin/sh",
	"bin/bash",
	"whoami",
	"wget ",
	"curl ",
	"nslookup",
	"rm -rf",
	"$(",
	"`",
	// sql injection
	"union select",
	"select from",
	"select * from",
	"insert into",
	"drop table",
	"delete from",
	"update set",
	"or 1=1",
	"' or '",
	// traversal and smuggling
	"../",
	"..\\",
	"%2e%2e",
	"\x00",
	"%00",
}

type Config struct {
	BanTTLSeconds int `mapstructure:"ban_ttl_seconds"`
}

type HeaderScanner struct {
	registry *banlist.Registry
	logger   *logrus.Logger
}

func NewHeaderScanner(registry *banlist.Registry, logger *logrus.Logger) pluginiface.Plugin {
	return &HeaderScanner{registry: registry, logger: logger}
}

func (p *HeaderScanner) Name() string {
	return PluginName
}

func (p *HeaderScanner) Stages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *HeaderScanner) AllowedStages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *HeaderScanner) ValidateConfig(config types.PluginConfig) error {
	var cfg Config
	if err := mapstructure.Decode(config.Settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.BanTTLSeconds < 0 {
		return fmt.Errorf("ban_ttl_seconds must not be negative")
	}
	return nil
}

func (p *HeaderScanner) Execute(ctx context.Context, pluginConfig types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	var cfg Config
	if err := mapstructure.Decode(pluginConfig.Settings, &cfg); err != nil {
		return nil, &types.PluginError{
			StatusCode: http.StatusInternalServerError,
			Message:    "failed to decode config",
			Err:        err,
		}
	}

	for name, values := range req.Headers {
		for _, value := range values {
			lowered := strings.ToLower(value)
			for _, fragment := range dangerousFragments {
				if strings.Contains(lowered, fragment) {
					p.logger.WithFields(logrus.Fields{
						"header":   name,
						"trace_id": req.TraceID,
					}).Warn("attack payload in header")

					ttl := time.Duration(cfg.BanTTLSeconds) * time.Second
					if err := p.registry.Ban(ctx, req.IP, ttl, fmt.Sprintf("attack payload in header %s", name)); err != nil {
						p.logger.WithError(err).WithField("trace_id", req.TraceID).Error("failed to ban client")
					} else {
						prometheus.BansIssued.WithLabelValues(PluginName).Inc()
					}

					return nil, &types.PluginError{
						StatusCode: http.StatusBadRequest,
						Message:    "bad request",
					}
				}
			}
		}
	}

	return &types.PluginResponse{StatusCode: http.StatusOK, Message: "request allowed"}, nil
}
