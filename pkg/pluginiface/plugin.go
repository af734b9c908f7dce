package pluginiface

import (
	"context"

	"github.com/campusgate/campusgate/pkg/types"
)

// Plugin is one detector in the defense chain. Execute returns a non-nil
// *types.PluginError to block the request; the chain stops at the first
// blocking detector.
type Plugin interface {
	Name() string
	Stages() []types.Stage
	AllowedStages() []types.Stage
	Execute(ctx context.Context, cfg types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError)
	ValidateConfig(config types.PluginConfig) error
}
