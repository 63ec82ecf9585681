package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/adam.stanek/livearchiver/pkg/config"
)

var allVars = []string{
	"CONFIG", "TWITCH_CLIENT_ID", "TWITCH_CLIENT_SECRET", "DOWNLOADER", "TRANSCODER",
	"DOWNLOADER_ARGS", "EXTENSION", "OUTPUT_DIR", "CHANNELS", "DRAIN_TIMEOUT", "LOG_LEVEL",
	"HTTP_ENABLED", "HTTP_LISTEN", "MQTT_ENABLED", "MQTT_BROKER_URL", "MQTT_CLIENT_ID",
	"MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_PREFIX",
}

func setEnv(t *testing.T, values map[string]string) {
	for _, name := range allVars {
		t.Setenv(config.EnvPrefix+name, values[name])
	}
}

func validEnv() map[string]string {
	return map[string]string{
		"TWITCH_CLIENT_ID":     "client",
		"TWITCH_CLIENT_SECRET": "secret",
		"DOWNLOADER":           "/opt/yt-dlp/yt-dlp",
		"CHANNELS":             "Alpha, beta,alpha,,gamma_2",
	}
}

func TestLoadFromEnv(t *testing.T) {
	setEnv(t, validEnv())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "client", cfg.Twitch.ClientID)
	assert.Equal(t, "secret", cfg.Twitch.ClientSecret)
	assert.Equal(t, "/opt/yt-dlp/yt-dlp", cfg.Downloader.Path)
	assert.Equal(t, "/opt/yt-dlp/ffmpeg", cfg.Downloader.Transcoder)
	assert.Equal(t, "mp4", cfg.Downloader.Extension)
	assert.Equal(t, "recordings", cfg.OutputDir)
	assert.Equal(t, []string{"alpha", "beta", "gamma_2"}, cfg.Channels)
	assert.Equal(t, 30*time.Second, cfg.DrainTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.HTTP.Enabled)
	assert.Equal(t, ":8080", cfg.HTTP.Listen)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadExplicitTranscoderAndArgs(t *testing.T) {
	env := validEnv()
	env["TRANSCODER"] = "/usr/bin/ffmpeg"
	env["DOWNLOADER_ARGS"] = "--live-from-start  --no-part"
	env["EXTENSION"] = ".mkv"
	env["DRAIN_TIMEOUT"] = "0s"
	setEnv(t, env)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/ffmpeg", cfg.Downloader.Transcoder)
	assert.Equal(t, []string{"--live-from-start", "--no-part"}, cfg.Downloader.ExtraArgs)
	assert.Equal(t, "mkv", cfg.Downloader.Extension)
	assert.Equal(t, time.Duration(0), cfg.DrainTimeout)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livearchiver.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
output_dir = "/srv/recordings"
channels = ["Alpha", "beta"]
drain_timeout = "1m"
log_level = "debug"

[twitch]
client_id = "file-client"
client_secret = "file-secret"

[downloader]
path = "/usr/local/bin/yt-dlp"
extra_args = ["--no-part"]

[http]
enabled = true
listen = "127.0.0.1:9000"
`), 0644))

	setEnv(t, map[string]string{
		"CONFIG":           path,
		"TWITCH_CLIENT_ID": "env-client",
	})

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.Twitch.ClientID)
	assert.Equal(t, "file-secret", cfg.Twitch.ClientSecret)
	assert.Equal(t, "/usr/local/bin/ffmpeg", cfg.Downloader.Transcoder)
	assert.Equal(t, []string{"--no-part"}, cfg.Downloader.ExtraArgs)
	assert.Equal(t, "/srv/recordings", cfg.OutputDir)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Channels)
	assert.Equal(t, time.Minute, cfg.DrainTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Listen)
}

func TestLoadDrainTimeoutEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livearchiver.toml")
	require.NoError(t, os.WriteFile(path, []byte(`drain_timeout = "1m"`), 0644))

	env := validEnv()
	env["CONFIG"] = path
	env["DRAIN_TIMEOUT"] = "45s"
	setEnv(t, env)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.DrainTimeout)
}

func TestLoadInvalidDrainTimeoutInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livearchiver.toml")
	require.NoError(t, os.WriteFile(path, []byte(`drain_timeout = "later"`), 0644))

	env := validEnv()
	env["CONFIG"] = path
	setEnv(t, env)

	_, err := config.Load()

	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "drain_timeout", cfgErr.Setting)
}

func TestLoadMissingFile(t *testing.T) {
	setEnv(t, map[string]string{"CONFIG": filepath.Join(t.TempDir(), "missing.toml")})

	_, err := config.Load()

	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, config.EnvPrefix+"CONFIG", cfgErr.Setting)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		modify  func(env map[string]string)
		setting string
	}{
		{"missing client id", func(env map[string]string) { delete(env, "TWITCH_CLIENT_ID") }, "twitch.client_id"},
		{"missing client secret", func(env map[string]string) { delete(env, "TWITCH_CLIENT_SECRET") }, "twitch.client_secret"},
		{"missing downloader", func(env map[string]string) { delete(env, "DOWNLOADER") }, "downloader.path"},
		{"no channels", func(env map[string]string) { env["CHANNELS"] = " , " }, "channels"},
		{"invalid channel", func(env map[string]string) { env["CHANNELS"] = "alpha,../etc" }, "channels"},
		{"too long channel", func(env map[string]string) { env["CHANNELS"] = "abcdefghijklmnopqrstuvwxyz" }, "channels"},
		{"invalid drain timeout", func(env map[string]string) { env["DRAIN_TIMEOUT"] = "soon" }, "drain_timeout"},
		{"negative drain timeout", func(env map[string]string) { env["DRAIN_TIMEOUT"] = "-1s" }, "drain_timeout"},
		{"unknown log level", func(env map[string]string) { env["LOG_LEVEL"] = "loud" }, "log_level"},
		{"invalid bool", func(env map[string]string) { env["HTTP_ENABLED"] = "yes" }, config.EnvPrefix + "HTTP_ENABLED"},
		{"mqtt without broker", func(env map[string]string) { env["MQTT_ENABLED"] = "true" }, "mqtt.broker_url"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := validEnv()
			tc.modify(env)
			setEnv(t, env)

			cfg, err := config.Load()
			assert.Nil(t, cfg)

			var cfgErr *config.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.setting, cfgErr.Setting)
			assert.NotEmpty(t, cfgErr.Error())
		})
	}
}
