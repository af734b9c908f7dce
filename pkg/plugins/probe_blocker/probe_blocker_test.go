package probe_blocker_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/plugins/probe_blocker"
	"github.com/campusgate/campusgate/pkg/types"
)

func newPlugin() (pluginiface.Plugin, types.PluginConfig) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return probe_blocker.NewProbeBlocker(logger), types.PluginConfig{
		Name:    probe_blocker.PluginName,
		Enabled: true,
		Settings: map[string]interface{}{
			"allowed_paths":     []string{"/api/"},
			"approved_referers": []string{"https://portal.university.edu"},
		},
	}
}

func request(path, referer string) *types.RequestContext {
	headers := map[string][]string{}
	if referer != "" {
		headers["Referer"] = []string{referer}
	}
	return &types.RequestContext{
		Context: context.Background(),
		Method:  http.MethodGet,
		Path:    path,
		Headers: headers,
	}
}

func TestHoneypotPathServesFakeLogin(t *testing.T) {
	plugin, cfg := newPlugin()

	paths := []string{
		"/wp-login.php",
		"/WP-LOGIN.PHP",
		"/shell.php",
		"/c99.php",
		"/wp-config.php",
		"/phpmyadmin/index.php",
		"/wp-admin/",
		"/Administrator/",
	}
	for _, path := range paths {
		_, pluginErr := plugin.Execute(context.Background(), cfg, request(path, ""), &types.ResponseContext{})
		require.NotNil(t, pluginErr, "path %s", path)
		assert.Equal(t, http.StatusOK, pluginErr.StatusCode, "path %s", path)
		assert.Contains(t, string(pluginErr.Body), "loginform", "path %s", path)
		assert.Equal(t, []string{"text/html; charset=UTF-8"}, pluginErr.Headers["Content-Type"], "path %s", path)
	}
}

func TestProbePatternGets404(t *testing.T) {
	plugin, cfg := newPlugin()

	for _, path := range []string{"/wp-content/uploads/backdoor.php", "/index.php", "/cgi-bin/test", "/page.aspx"} {
		_, pluginErr := plugin.Execute(context.Background(), cfg, request(path, ""), &types.ResponseContext{})
		require.NotNil(t, pluginErr, "path %s", path)
		assert.Equal(t, http.StatusNotFound, pluginErr.StatusCode, "path %s", path)
	}
}

func TestGuardedPathNeedsApprovedReferer(t *testing.T) {
	plugin, cfg := newPlugin()

	// On the guarded list without an approved referer.
	_, pluginErr := plugin.Execute(context.Background(), cfg, request("/api/exams", ""), &types.ResponseContext{})
	require.NotNil(t, pluginErr)
	assert.Equal(t, http.StatusForbidden, pluginErr.StatusCode)

	// Wrong origin is refused too.
	_, pluginErr = plugin.Execute(context.Background(), cfg, request("/api/exams", "https://evil.example/"), &types.ResponseContext{})
	require.NotNil(t, pluginErr)
	assert.Equal(t, http.StatusForbidden, pluginErr.StatusCode)

	// Approved origin passes.
	resp, pluginErr := plugin.Execute(context.Background(), cfg, request("/api/exams", "https://portal.university.edu/dashboard"), &types.ResponseContext{})
	require.Nil(t, pluginErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnguardedPathFallsThrough(t *testing.T) {
	plugin, cfg := newPlugin()

	resp, pluginErr := plugin.Execute(context.Background(), cfg, request("/checkup", ""), &types.ResponseContext{})
	require.Nil(t, pluginErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidateConfig(t *testing.T) {
	plugin, _ := newPlugin()

	err := plugin.ValidateConfig(types.PluginConfig{Settings: map[string]interface{}{
		"allowed_paths": []string{"/api/"},
	}})
	assert.Error(t, err)

	err = plugin.ValidateConfig(types.PluginConfig{Settings: map[string]interface{}{
		"allowed_paths":     []string{"/api/"},
		"approved_referers": []string{"https://portal.university.edu"},
	}})
	assert.NoError(t, err)
}
