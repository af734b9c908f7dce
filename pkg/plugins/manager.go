// Package plugins runs the detector chain. Detectors register once at
// startup; the chain for each stage is fixed configuration, ordered by
// priority, and executed sequentially so the first blocking verdict wins
// and later detectors never see the request.
package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

type Manager struct {
	mu       sync.RWMutex
	registry map[string]pluginiface.Plugin
	chains   map[types.Stage][]types.PluginConfig
	logger   *logrus.Logger
}

func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		registry: make(map[string]pluginiface.Plugin),
		chains:   make(map[types.Stage][]types.PluginConfig),
		logger:   logger,
	}
}

func (m *Manager) RegisterPlugin(plugin pluginiface.Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := plugin.Name()
	if _, exists := m.registry[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	m.registry[name] = plugin
	return nil
}

func (m *Manager) GetPlugin(name string) pluginiface.Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry[name]
}

// SetChain installs the configured detector list for a stage. Every entry
// must name a registered plugin, declare an allowed stage and pass the
// plugin's own config validation.
func (m *Manager) SetChain(stage types.Stage, configs []types.PluginConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cfg := range configs {
		plugin, exists := m.registry[cfg.Name]
		if !exists {
			return fmt.Errorf("unknown plugin %s in chain", cfg.Name)
		}
		if !stageAllowed(plugin, stage) {
			return fmt.Errorf("plugin %s does not support stage %s", cfg.Name, stage)
		}
		if err := plugin.ValidateConfig(cfg); err != nil {
			return fmt.Errorf("invalid config for plugin %s: %w", cfg.Name, err)
		}
	}

	chain := make([]types.PluginConfig, len(configs))
	copy(chain, configs)
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Priority < chain[j].Priority
	})
	m.chains[stage] = chain
	return nil
}

// ExecuteStage runs the stage's chain in priority order and stops at the
// first blocking verdict. A nil error means every detector passed the
// request through.
func (m *Manager) ExecuteStage(ctx context.Context, stage types.Stage, req *types.RequestContext, resp *types.ResponseContext) *types.PluginError {
	m.mu.RLock()
	chain := m.chains[stage]
	m.mu.RUnlock()

	for _, cfg := range chain {
		if !cfg.Enabled {
			continue
		}
		plugin := m.GetPlugin(cfg.Name)
		if plugin == nil {
			continue
		}

		pluginResp, pluginErr := plugin.Execute(ctx, cfg, req, resp)
		if pluginErr != nil {
			pluginErr.Detector = cfg.Name
			m.logger.WithFields(logrus.Fields{
				"plugin":      cfg.Name,
				"status_code": pluginErr.StatusCode,
				"trace_id":    req.TraceID,
				"path":        req.Path,
			}).Info("request blocked by detector")
			return pluginErr
		}
		if pluginResp != nil {
			applyPluginResponse(resp, pluginResp)
		}
	}
	return nil
}

func applyPluginResponse(resp *types.ResponseContext, pluginResp *types.PluginResponse) {
	if resp == nil || pluginResp == nil {
		return
	}
	if resp.Headers == nil {
		resp.Headers = make(map[string][]string)
	}
	for name, values := range pluginResp.Headers {
		resp.Headers[name] = append(resp.Headers[name], values...)
	}
	if resp.Metadata == nil {
		resp.Metadata = make(map[string]interface{})
	}
	for key, value := range pluginResp.Metadata {
		resp.Metadata[key] = value
	}
}

func stageAllowed(plugin pluginiface.Plugin, stage types.Stage) bool {
	for _, allowed := range plugin.AllowedStages() {
		if allowed == stage {
			return true
		}
	}
	return false
}
