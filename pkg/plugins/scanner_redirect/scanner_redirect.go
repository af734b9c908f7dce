// Package scanner_redirect catches the lighter CMS-scan path shapes that
// survive the earlier detectors and bounces them to a decoy site with a
// 302. No ban: the point is to feed the scanner a target that can absorb
// it.
package scanner_redirect

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

const PluginName = "scanner_redirect"

const defaultDecoyURL = "https://wordpress.org/"

// scannerPathPatterns cover the directories CMS scanners sweep: admin and
// login panels, CMS content dirs, PHP entry points, environment files,
// backup and database dumps, and database admin tools.
var scannerPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^/(admin|administrator|manager|panel)(/|$)`),
	regexp.MustCompile(`(?i)^/(login|signin|user/login)\.?\w*$`),
	regexp.MustCompile(`(?i)^/wp-`),
	regexp.MustCompile(`(?i)^/(wordpress|joomla|drupal|typo3|magento)(/|$)`),
	regexp.MustCompile(`(?i)\.php([/?]|$)`),
	regexp.MustCompile(`(?i)/\.env(\.|$)`),
	regexp.MustCompile(`(?i)^/(backup|backups|bak|old|dump|dumps|database|db|sql)(/|$)`),
	regexp.MustCompile(`(?i)^/(phpmyadmin|pma|adminer|mysqladmin|dbadmin)(/|$)`),
}

type Config struct {
	DecoyURL string `mapstructure:"decoy_url"`
}

type ScannerRedirect struct {
	logger *logrus.Logger
}

func NewScannerRedirect(logger *logrus.Logger) pluginiface.Plugin {
	return &ScannerRedirect{logger: logger}
}

func (p *ScannerRedirect) Name() string {
	return PluginName
}

func (p *ScannerRedirect) Stages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *ScannerRedirect) AllowedStages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *ScannerRedirect) ValidateConfig(config types.PluginConfig) error {
	var cfg Config
	if err := mapstructure.Decode(config.Settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DecoyURL != "" && !strings.HasPrefix(cfg.DecoyURL, "http") {
		return fmt.Errorf("decoy_url must be absolute")
	}
	return nil
}

func (p *ScannerRedirect) Execute(ctx context.Context, pluginConfig types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	var cfg Config
	if err := mapstructure.Decode(pluginConfig.Settings, &cfg); err != nil {
		return nil, &types.PluginError{
			StatusCode: http.StatusInternalServerError,
			Message:    "failed to decode config",
			Err:        err,
		}
	}
	if cfg.DecoyURL == "" {
		cfg.DecoyURL = defaultDecoyURL
	}

	for _, pattern := range scannerPathPatterns {
		if pattern.MatchString(req.Path) {
			p.logger.WithFields(logrus.Fields{
				"path":     req.Path,
				"trace_id": req.TraceID,
			}).Info("scan path redirected to decoy")
			// The decoy URL is fixed; nothing from the request rides along.
			return nil, &types.PluginError{
				StatusCode: http.StatusFound,
				Message:    "found",
				Headers:    map[string][]string{"Location": {cfg.DecoyURL}},
			}
		}
	}

	return &types.PluginResponse{StatusCode: http.StatusOK, Message: "request allowed"}, nil
}
