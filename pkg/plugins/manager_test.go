package plugins_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/pkg/plugins"
	"github.com/campusgate/campusgate/pkg/types"
)

type fakeDetector struct {
	name      string
	verdict   *types.PluginError
	execOrder *[]string
	cfgErr    error
}

func (f *fakeDetector) Name() string                 { return f.name }
func (f *fakeDetector) Stages() []types.Stage        { return []types.Stage{types.PreRequest} }
func (f *fakeDetector) AllowedStages() []types.Stage { return []types.Stage{types.PreRequest} }

func (f *fakeDetector) ValidateConfig(config types.PluginConfig) error {
	return f.cfgErr
}

func (f *fakeDetector) Execute(ctx context.Context, cfg types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	if f.execOrder != nil {
		*f.execOrder = append(*f.execOrder, f.name)
	}
	if f.verdict != nil {
		return nil, f.verdict
	}
	return &types.PluginResponse{StatusCode: http.StatusOK}, nil
}

func newManager() *plugins.Manager {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return plugins.NewManager(logger)
}

func TestChainRunsInPriorityOrder(t *testing.T) {
	manager := newManager()
	var order []string
	require.NoError(t, manager.RegisterPlugin(&fakeDetector{name: "second", execOrder: &order}))
	require.NoError(t, manager.RegisterPlugin(&fakeDetector{name: "first", execOrder: &order}))

	require.NoError(t, manager.SetChain(types.PreRequest, []types.PluginConfig{
		{Name: "second", Enabled: true, Priority: 2},
		{Name: "first", Enabled: true, Priority: 1},
	}))

	pluginErr := manager.ExecuteStage(context.Background(), types.PreRequest, &types.RequestContext{}, &types.ResponseContext{})
	require.Nil(t, pluginErr)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestFirstVerdictWins(t *testing.T) {
	manager := newManager()
	var order []string
	require.NoError(t, manager.RegisterPlugin(&fakeDetector{
		name:      "blocker",
		execOrder: &order,
		verdict:   &types.PluginError{StatusCode: http.StatusNotFound, Message: "not found"},
	}))
	require.NoError(t, manager.RegisterPlugin(&fakeDetector{name: "never", execOrder: &order}))

	require.NoError(t, manager.SetChain(types.PreRequest, []types.PluginConfig{
		{Name: "blocker", Enabled: true, Priority: 1},
		{Name: "never", Enabled: true, Priority: 2},
	}))

	pluginErr := manager.ExecuteStage(context.Background(), types.PreRequest, &types.RequestContext{}, &types.ResponseContext{})
	require.NotNil(t, pluginErr)
	assert.Equal(t, http.StatusNotFound, pluginErr.StatusCode)
	assert.Equal(t, []string{"blocker"}, order)
}

func TestDisabledDetectorSkipped(t *testing.T) {
	manager := newManager()
	var order []string
	require.NoError(t, manager.RegisterPlugin(&fakeDetector{
		name:      "off",
		execOrder: &order,
		verdict:   &types.PluginError{StatusCode: http.StatusForbidden},
	}))

	require.NoError(t, manager.SetChain(types.PreRequest, []types.PluginConfig{
		{Name: "off", Enabled: false, Priority: 1},
	}))

	pluginErr := manager.ExecuteStage(context.Background(), types.PreRequest, &types.RequestContext{}, &types.ResponseContext{})
	assert.Nil(t, pluginErr)
	assert.Empty(t, order)
}

func TestSetChainRejectsUnknownPlugin(t *testing.T) {
	manager := newManager()

	err := manager.SetChain(types.PreRequest, []types.PluginConfig{
		{Name: "ghost", Enabled: true},
	})
	assert.Error(t, err)
}

func TestSetChainRejectsInvalidConfig(t *testing.T) {
	manager := newManager()
	require.NoError(t, manager.RegisterPlugin(&fakeDetector{name: "picky", cfgErr: assert.AnError}))

	err := manager.SetChain(types.PreRequest, []types.PluginConfig{
		{Name: "picky", Enabled: true},
	})
	assert.Error(t, err)
}

func TestRegisterPluginRejectsDuplicates(t *testing.T) {
	manager := newManager()
	require.NoError(t, manager.RegisterPlugin(&fakeDetector{name: "dup"}))
	assert.Error(t, manager.RegisterPlugin(&fakeDetector{name: "dup"}))
}
