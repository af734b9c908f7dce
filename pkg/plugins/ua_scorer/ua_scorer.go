// Package ua_scorer grades the User-Agent header. Points accumulate per
// signal; at 50 the request is refused and at 80 the sender is banned as
// well. The weights keep a single weak signal (odd length, random token)
// below the refusal line while any scanner signature clears both.
package ua_scorer

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/infra/prometheus"
	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

const PluginName = "ua_scorer"

const (
	scoreScannerSignature   = 100
	scoreMissingUserAgent   = 50
	scoreDeviceOSMismatch   = 30
	scoreImplausibleLength  = 20
	scoreLongRandomToken    = 15
	blockThreshold          = 50
	banThreshold            = 80
)

var scannerSignatures = []string{
	"sqlmap",
	"nikto",
	"nmap",
	"masscan",
	"dirbuster",
	"gobuster",
	"wfuzz",
	"hydra",
	"nessus",
	"acunetix",
	"netsparker",
	"havij",
}

var longTokenPattern = regexp.MustCompile(`[a-zA-Z0-9]{8,}`)

type Config struct {
	BanTTLSeconds int `mapstructure:"ban_ttl_seconds"`
}

type UAScorer struct {
	registry *banlist.Registry
	logger   *logrus.Logger
}

func NewUAScorer(registry *banlist.Registry, logger *logrus.Logger) pluginiface.Plugin {
	return &UAScorer{registry: registry, logger: logger}
}

func (p *UAScorer) Name() string {
	return PluginName
}

func (p *UAScorer) Stages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *UAScorer) AllowedStages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *UAScorer) ValidateConfig(config types.PluginConfig) error {
	var cfg Config
	if err := mapstructure.Decode(config.Settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.BanTTLSeconds < 0 {
		return fmt.Errorf("ban_ttl_seconds must not be negative")
	}
	return nil
}

func (p *UAScorer) Execute(ctx context.Context, pluginConfig types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	var cfg Config
	if err := mapstructure.Decode(pluginConfig.Settings, &cfg); err != nil {
		return nil, &types.PluginError{
			StatusCode: http.StatusInternalServerError,
			Message:    "failed to decode config",
			Err:        err,
		}
	}

	score, signals := scoreUserAgent(req.UserAgent)
	if score < blockThreshold {
		return &types.PluginResponse{StatusCode: http.StatusOK, Message: "request allowed"}, nil
	}

	p.logger.WithFields(logrus.Fields{
		"user_agent": req.UserAgent,
		"score":      score,
		"signals":    signals,
		"trace_id":   req.TraceID,
	}).Warn("user agent refused")

	if score >= banThreshold {
		ttl := time.Duration(cfg.BanTTLSeconds) * time.Second
		if err := p.registry.Ban(ctx, req.IP, ttl, fmt.Sprintf("user agent score %d", score)); err != nil {
			p.logger.WithError(err).WithField("trace_id", req.TraceID).Error("failed to ban client")
		} else {
			prometheus.BansIssued.WithLabelValues(PluginName).Inc()
		}
	}

	return nil, &types.PluginError{
		StatusCode: http.StatusForbidden,
		Message:    "forbidden",
	}
}

func scoreUserAgent(userAgent string) (int, []string) {
	trimmed := strings.TrimSpace(userAgent)
	if trimmed == "" {
		return scoreMissingUserAgent, []string{"missing user agent"}
	}

	score := 0
	var signals []string
	lowered := strings.ToLower(trimmed)

	for _, sig := range scannerSignatures {
		if strings.Contains(lowered, sig) {
			score += scoreScannerSignature
			signals = append(signals, "scanner signature "+sig)
			break
		}
	}

	if len(trimmed) < 10 || len(trimmed) > 500 {
		score += scoreImplausibleLength
		signals = append(signals, "implausible length")
	}

	parsed := uasurfer.Parse(trimmed)
	if deviceOSMismatch(parsed) {
		score += scoreDeviceOSMismatch
		signals = append(signals, "device and os disagree")
	}

	if longTokenPattern.MatchString(trimmed) {
		score += scoreLongRandomToken
		signals = append(signals, "long alphanumeric token")
	}

	return score, signals
}

// deviceOSMismatch flags user agents whose claimed device class cannot run
// the claimed operating system, a common artifact of spoofing templates.
func deviceOSMismatch(ua *uasurfer.UserAgent) bool {
	switch ua.DeviceType {
	case uasurfer.DevicePhone, uasurfer.DeviceTablet:
		return ua.OS.Name == uasurfer.OSMacOSX || ua.OS.Name == uasurfer.OSWindows
	case uasurfer.DeviceComputer:
		return ua.OS.Name == uasurfer.OSAndroid || ua.OS.Name == uasurfer.OSiOS
	default:
		return false
	}
}
