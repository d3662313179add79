package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torneiomaker/messenger-bot/internal/bot"
	"github.com/torneiomaker/messenger-bot/internal/buildinfo"
	"github.com/torneiomaker/messenger-bot/internal/config"
	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
	"github.com/torneiomaker/messenger-bot/internal/messenger"
)

func TestVersionCmd(t *testing.T) {
	orig := buildinfo.Version
	buildinfo.Version = "v9.9.9"
	t.Cleanup(func() { buildinfo.Version = orig })

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "torneio-maker v9.9.9")
}

func TestRootCmdHelp(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	for _, sub := range []string{"setup", "version", "--config"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_ConfigFlagDefault(t *testing.T) {
	cmd := newRootCmd()
	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, config.DefaultConfigPath, flag.DefValue)
}

func TestSetupCmd_MissingToken(t *testing.T) {
	t.Setenv(config.EnvPageAccessToken, "")
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"setup", "--config", filepath.Join(t.TempDir(), "missing.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrConfigMissing)
	assert.Contains(t, buf.String(), "Configuration is incomplete")
}

func TestRootCmd_MissingConfig(t *testing.T) {
	for _, key := range []string{
		config.EnvPageAccessToken, config.EnvAppSecret, config.EnvValidationToken,
		config.EnvServerURL, config.EnvServerLOL, config.EnvAPIKey,
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	path := filepath.Join(t.TempDir(), "missing.json")
	cmd.SetArgs([]string{"--config", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrConfigMissing)
	assert.Contains(t, err.Error(), config.EnvAPIKey)
	assert.Contains(t, stderr.String(), "Configuration is incomplete")
	assert.Contains(t, stderr.String(), path)
}

func TestPrintConfigHint_OtherErrors(t *testing.T) {
	t.Parallel()
	buf := new(bytes.Buffer)
	printConfigHint(buf, "config/default.json", errors.New("PORT is required"))
	assert.Empty(t, buf.String())
}

type fakeSettingsClient struct {
	got  []messenger.ThreadSetting
	fail int // index that fails, -1 for none
}

func (f *fakeSettingsClient) SetThreadSettings(_ context.Context, s messenger.ThreadSetting) error {
	if len(f.got) == f.fail {
		return errors.New("rejected")
	}
	f.got = append(f.got, s)
	return nil
}

func TestApplyThreadSettings(t *testing.T) {
	t.Parallel()
	settings := bot.NewCatalog("https://bot.example.com").ThreadSettings()

	t.Run("all registered", func(t *testing.T) {
		t.Parallel()
		client := &fakeSettingsClient{fail: -1}
		out := new(bytes.Buffer)

		require.NoError(t, applyThreadSettings(context.Background(), client, settings, out))
		assert.Equal(t, settings, client.got)
		assert.Equal(t, len(settings), strings.Count(out.String(), "registered "))
		assert.Contains(t, out.String(), "registered greeting")
	})

	t.Run("stops at first failure", func(t *testing.T) {
		t.Parallel()
		client := &fakeSettingsClient{fail: 1}
		out := new(bytes.Buffer)

		err := applyThreadSettings(context.Background(), client, settings, out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "set greeting")
		assert.Len(t, client.got, 1)
	})
}

func TestApplyThreadSettings_GraphAPI(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/thread_settings", r.URL.Path)
		assert.Equal(t, "page-token", r.URL.Query().Get("access_token"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"result":"success"}`))
	}))
	t.Cleanup(srv.Close)

	client := messenger.NewClient(messenger.ClientConfig{BaseURL: srv.URL, AccessToken: "page-token"})
	settings := bot.NewCatalog("https://bot.example.com").ThreadSettings()

	require.NoError(t, applyThreadSettings(context.Background(), client, settings, new(bytes.Buffer)))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, len(settings))
	assert.Equal(t, "call_to_actions", bodies[0]["setting_type"])
	assert.Equal(t, "new_thread", bodies[0]["thread_state"])
	assert.Equal(t, "greeting", bodies[1]["setting_type"])
}
