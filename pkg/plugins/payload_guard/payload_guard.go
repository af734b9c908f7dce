// Package payload_guard caps the request body size before anything
// downstream buffers it.
package payload_guard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

const PluginName = "payload_guard"

const defaultMaxPayloadBytes = 10 * 1024 * 1024

type Config struct {
	MaxPayloadBytes int `mapstructure:"max_payload_bytes"`
}

type PayloadGuard struct {
	logger *logrus.Logger
}

func NewPayloadGuard(logger *logrus.Logger) pluginiface.Plugin {
	return &PayloadGuard{logger: logger}
}

func (p *PayloadGuard) Name() string {
	return PluginName
}

func (p *PayloadGuard) Stages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *PayloadGuard) AllowedStages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *PayloadGuard) ValidateConfig(config types.PluginConfig) error {
	var cfg Config
	if err := mapstructure.Decode(config.Settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.MaxPayloadBytes < 0 {
		return fmt.Errorf("max_payload_bytes must not be negative")
	}
	return nil
}

func (p *PayloadGuard) Execute(ctx context.Context, pluginConfig types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	var cfg Config
	if err := mapstructure.Decode(pluginConfig.Settings, &cfg); err != nil {
		return nil, &types.PluginError{
			StatusCode: http.StatusInternalServerError,
			Message:    "failed to decode config",
			Err:        err,
		}
	}
	if cfg.MaxPayloadBytes == 0 {
		cfg.MaxPayloadBytes = defaultMaxPayloadBytes
	}

	declared := 0
	if raw := req.Header("Content-Length"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return nil, &types.PluginError{
				StatusCode: http.StatusBadRequest,
				Message:    "bad request",
			}
		}
		declared = parsed
	}

	if declared > cfg.MaxPayloadBytes || len(req.Body) > cfg.MaxPayloadBytes {
		p.logger.WithFields(logrus.Fields{
			"declared": declared,
			"actual":   len(req.Body),
			"limit":    cfg.MaxPayloadBytes,
			"trace_id": req.TraceID,
		}).Info("oversized payload refused")
		return nil, &types.PluginError{
			StatusCode: http.StatusRequestEntityTooLarge,
			Message:    "payload too large",
		}
	}

	return &types.PluginResponse{StatusCode: http.StatusOK, Message: "request allowed"}, nil
}
