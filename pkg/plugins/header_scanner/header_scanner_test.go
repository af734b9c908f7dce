package header_scanner_test

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
	"github.com/campusgate/campusgate/pkg/plugins/header_scanner"
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
		Name:     header_scanner.PluginName,
		Enabled:  true,
		Settings: map[string]interface{}{},
	}
	return header_scanner.NewHeaderScanner(registry, logger), mock, cfg
}

func request(headers map[string][]string) *types.RequestContext {
	return &types.RequestContext{
		Context: context.Background(),
		Method:  http.MethodGet,
		Path:    "/api/exams",
		Headers: headers,
		IP:      clientIP,
	}
}

func TestScriptFragmentBansWith400(t *testing.T) {
	plugin, mock, cfg := newPlugin(t)
	mock.ExpectSet(banKey(clientIP), "1", 0).SetVal("OK")

	req := request(map[string][]string{"X-Custom": {"<script>alert(1)</script>"}})
	_, pluginErr := plugin.Execute(context.Background(), cfg, req, &types.ResponseContext{})
	require.NotNil(t, pluginErr)
	assert.Equal(t, http.StatusBadRequest, pluginErr.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommandAndSQLFragmentsBan(t *testing.T) {
	headers := []map[string][]string{
		{"X-Forwarded-Host": {"cat /etc/passwd"}},
		{"X-Custom": {"$(whoami)"}},
		{"Referer": {"https://evil.example/?q=union select password"}},
		{"X-Query": {"1; DROP TABLE students"}},
		{"Cookie": {"session=' OR '1'='1"}},
	}
	for _, h := range headers {
		plugin, mock, cfg := newPlugin(t)
		mock.ExpectSet(banKey(clientIP), "1", 0).SetVal("OK")

		_, pluginErr := plugin.Execute(context.Background(), cfg, request(h), &types.ResponseContext{})
		require.NotNil(t, pluginErr, "headers %v", h)
		assert.Equal(t, http.StatusBadRequest, pluginErr.StatusCode, "headers %v", h)
		assert.NoError(t, mock.ExpectationsWereMet(), "headers %v", h)
	}
}

func TestTraversalInRefererBans(t *testing.T) {
	plugin, mock, cfg := newPlugin(t)
	mock.ExpectSet(banKey(clientIP), "1", 0).SetVal("OK")

	req := request(map[string][]string{"Referer": {"https://evil.example/../../admin"}})
	_, pluginErr := plugin.Execute(context.Background(), cfg, req, &types.ResponseContext{})
	require.NotNil(t, pluginErr)
	assert.Equal(t, http.StatusBadRequest, pluginErr.StatusCode)
}

func TestJavascriptContentTypePasses(t *testing.T) {
	plugin, mock, cfg := newPlugin(t)

	req := request(map[string][]string{
		"Accept":     {"application/javascript, text/plain"},
		"User-Agent": {"Mozilla/5.0"},
	})
	resp, pluginErr := plugin.Execute(context.Background(), cfg, req, &types.ResponseContext{})
	require.Nil(t, pluginErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdinaryHeadersPass(t *testing.T) {
	plugin, _, cfg := newPlugin(t)

	req := request(map[string][]string{
		"Authorization": {"Bearer abc.def.ghi"},
		"Content-Type":  {"application/json"},
	})
	_, pluginErr := plugin.Execute(context.Background(), cfg, req, &types.ResponseContext{})
	assert.Nil(t, pluginErr)
}
