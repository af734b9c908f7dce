package ua_scorer_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/campusgate/pkg/cache"
	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/plugins/ua_scorer"
	"github.com/campusgate/campusgate/pkg/types"
)

const clientIP = "203.0.113.7"

func banKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return "ban:" + hex.EncodeToString(sum[:])
}

func newPlugin(t *testing.T) (pluginiface.Plugin, redismock.ClientMock, types.PluginConfig) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	registry := banlist.NewRegistry(cache.NewCacheWithClient(client), "ban:", logger)
	cfg := types.PluginConfig{
		Name:     ua_scorer.PluginName,
		Enabled:  true,
		Settings: map[string]interface{}{},
	}
	return ua_scorer.NewUAScorer(registry, logger), mock, cfg
}

func request(userAgent string) *types.RequestContext {
	return &types.RequestContext{
		Context:   context.Background(),
		Method:    http.MethodGet,
		Path:      "/api/exams",
		IP:        clientIP,
		UserAgent: userAgent,
	}
}

func TestScannerUserAgentRefusedAndBanned(t *testing.T) {
	plugin, mock, cfg := newPlugin(t)
	mock.ExpectSet(banKey(clientIP), "1", 0).SetVal("OK")

	_, pluginErr := plugin.Execute(context.Background(), cfg, request("sqlmap/1.5-dev"), &types.ResponseContext{})
	require.NotNil(t, pluginErr)
	assert.Equal(t, http.StatusForbidden, pluginErr.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingUserAgentRefusedWithoutBan(t *testing.T) {
	plugin, mock, cfg := newPlugin(t)

	// Exactly the refusal threshold, below the ban line: no store write.
	_, pluginErr := plugin.Execute(context.Background(), cfg, request(""), &types.ResponseContext{})
	require.NotNil(t, pluginErr)
	assert.Equal(t, http.StatusForbidden, pluginErr.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDesktopBrowserPasses(t *testing.T) {
	plugin, _, cfg := newPlugin(t)

	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0 Safari/537.36"
	resp, pluginErr := plugin.Execute(context.Background(), cfg, request(ua), &types.ResponseContext{})
	require.Nil(t, pluginErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMobileBrowserPasses(t *testing.T) {
	plugin, _, cfg := newPlugin(t)

	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	_, pluginErr := plugin.Execute(context.Background(), cfg, request(ua), &types.ResponseContext{})
	assert.Nil(t, pluginErr)
}

func TestShortOddUserAgentStillPasses(t *testing.T) {
	plugin, _, cfg := newPlugin(t)

	// Length penalty alone stays under the refusal threshold.
	_, pluginErr := plugin.Execute(context.Background(), cfg, request("curl/8.4"), &types.ResponseContext{})
	assert.Nil(t, pluginErr)
}
