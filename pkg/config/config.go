package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

// EnvPrefix - prefix of all environment variables
const EnvPrefix = "LIVEARCHIVER_"

var channelNameRegexp = regexp.MustCompile(`^[a-z0-9_]{1,25}$`)

// Twitch - API credentials
type Twitch struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Downloader - external downloader invocation
type Downloader struct {
	Path       string   `toml:"path"`
	Transcoder string   `toml:"transcoder"`
	ExtraArgs  []string `toml:"extra_args"`
	Extension  string   `toml:"extension"`
}

// HTTP - status server
type HTTP struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// MQTT - channel state publishing
type MQTT struct {
	Enabled     bool   `toml:"enabled"`
	BrokerURL   string `toml:"broker_url"`
	ClientID    string `toml:"client_id"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	TopicPrefix string `toml:"topic_prefix"`
}

// Config - application configuration
type Config struct {
	Twitch     Twitch     `toml:"twitch"`
	Downloader Downloader `toml:"downloader"`
	OutputDir  string     `toml:"output_dir"`
	Channels   []string   `toml:"channels"`
	LogLevel   string     `toml:"log_level"`
	HTTP       HTTP       `toml:"http"`
	MQTT       MQTT       `toml:"mqtt"`

	// DrainTimeoutStr - duration string as found in the file (eg. 30s)
	DrainTimeoutStr string `toml:"drain_timeout"`
	// DrainTimeout - parsed DrainTimeoutStr, LIVEARCHIVER_DRAIN_TIMEOUT overrides it
	DrainTimeout time.Duration `toml:"-"`
}

// ConfigurationError - invalid or missing setting, fatal on startup
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration of %v: %v", e.Setting, e.Reason)
}

// Default - configuration with default values
func Default() Config {
	return Config{
		Downloader: Downloader{
			Extension: "mp4",
		},
		OutputDir:       "recordings",
		LogLevel:        "info",
		DrainTimeoutStr: "30s",
		HTTP: HTTP{
			Listen: ":8080",
		},
		MQTT: MQTT{
			ClientID:    "livearchiver",
			TopicPrefix: "livearchiver",
		},
	}
}

// Load - reads optional config file (LIVEARCHIVER_CONFIG), applies environment overrides and validates the result
func Load() (*Config, error) {
	cfg := Default()

	if path := utils.EnvVarStr(EnvPrefix+"CONFIG", ""); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	drainTimeout, err := time.ParseDuration(cfg.DrainTimeoutStr)
	if err != nil {
		return nil, &ConfigurationError{Setting: "drain_timeout", Reason: err.Error()}
	}
	cfg.DrainTimeout = drainTimeout

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ConfigurationError{Setting: EnvPrefix + "CONFIG", Reason: fmt.Sprintf("file %v does not exist", path)}
		}

		return fmt.Errorf("open config: %w", err)
	}

	defer file.Close()

	if err := toml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("parse config %v: %w", path, err)
	}

	return nil
}

func (cfg *Config) applyEnv() error {
	cfg.Twitch.ClientID = utils.EnvVarStr(EnvPrefix+"TWITCH_CLIENT_ID", cfg.Twitch.ClientID)
	cfg.Twitch.ClientSecret = utils.EnvVarStr(EnvPrefix+"TWITCH_CLIENT_SECRET", cfg.Twitch.ClientSecret)

	cfg.Downloader.Path = utils.EnvVarStr(EnvPrefix+"DOWNLOADER", cfg.Downloader.Path)
	cfg.Downloader.Transcoder = utils.EnvVarStr(EnvPrefix+"TRANSCODER", cfg.Downloader.Transcoder)
	cfg.Downloader.Extension = utils.EnvVarStr(EnvPrefix+"EXTENSION", cfg.Downloader.Extension)
	if args := utils.EnvVarStr(EnvPrefix+"DOWNLOADER_ARGS", ""); args != "" {
		cfg.Downloader.ExtraArgs = strings.Fields(args)
	}

	cfg.OutputDir = utils.EnvVarStr(EnvPrefix+"OUTPUT_DIR", cfg.OutputDir)
	cfg.Channels = utils.EnvVarList(EnvPrefix+"CHANNELS", cfg.Channels)
	cfg.LogLevel = utils.EnvVarStr(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.DrainTimeout, err = utils.EnvVarDuration(EnvPrefix+"DRAIN_TIMEOUT", cfg.DrainTimeout); err != nil {
		return &ConfigurationError{Setting: "drain_timeout", Reason: err.Error()}
	}

	if cfg.HTTP.Enabled, err = utils.EnvVarBool(EnvPrefix+"HTTP_ENABLED", cfg.HTTP.Enabled); err != nil {
		return &ConfigurationError{Setting: EnvPrefix + "HTTP_ENABLED", Reason: err.Error()}
	}
	cfg.HTTP.Listen = utils.EnvVarStr(EnvPrefix+"HTTP_LISTEN", cfg.HTTP.Listen)

	if cfg.MQTT.Enabled, err = utils.EnvVarBool(EnvPrefix+"MQTT_ENABLED", cfg.MQTT.Enabled); err != nil {
		return &ConfigurationError{Setting: EnvPrefix + "MQTT_ENABLED", Reason: err.Error()}
	}
	cfg.MQTT.BrokerURL = utils.EnvVarStr(EnvPrefix+"MQTT_BROKER_URL", cfg.MQTT.BrokerURL)
	cfg.MQTT.ClientID = utils.EnvVarStr(EnvPrefix+"MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = utils.EnvVarStr(EnvPrefix+"MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = utils.EnvVarStr(EnvPrefix+"MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.TopicPrefix = utils.EnvVarStr(EnvPrefix+"MQTT_PREFIX", cfg.MQTT.TopicPrefix)

	return nil
}

// normalize - fills derived defaults, lower-cases and deduplicates channels
func (cfg *Config) normalize() {
	if cfg.Downloader.Transcoder == "" && cfg.Downloader.Path != "" {
		cfg.Downloader.Transcoder = filepath.Join(filepath.Dir(cfg.Downloader.Path), "ffmpeg")
	}

	cfg.Downloader.Extension = strings.TrimPrefix(cfg.Downloader.Extension, ".")

	seen := make(map[string]bool, len(cfg.Channels))
	channels := make([]string, 0, len(cfg.Channels))
	for _, channel := range cfg.Channels {
		channel = strings.ToLower(strings.TrimSpace(channel))
		if channel == "" || seen[channel] {
			continue
		}

		seen[channel] = true
		channels = append(channels, channel)
	}
	cfg.Channels = channels
}

// Validate - checks that all the required settings are present and sane
func (cfg *Config) Validate() error {
	if cfg.Twitch.ClientID == "" {
		return &ConfigurationError{Setting: "twitch.client_id", Reason: "missing client id"}
	}

	if cfg.Twitch.ClientSecret == "" {
		return &ConfigurationError{Setting: "twitch.client_secret", Reason: "missing client secret"}
	}

	if cfg.Downloader.Path == "" {
		return &ConfigurationError{Setting: "downloader.path", Reason: "missing downloader path"}
	}

	if cfg.Downloader.Extension == "" {
		return &ConfigurationError{Setting: "downloader.extension", Reason: "empty extension"}
	}

	if cfg.OutputDir == "" {
		return &ConfigurationError{Setting: "output_dir", Reason: "empty output directory"}
	}

	if len(cfg.Channels) == 0 {
		return &ConfigurationError{Setting: "channels", Reason: "no channels to monitor"}
	}

	for _, channel := range cfg.Channels {
		if !channelNameRegexp.MatchString(channel) {
			return &ConfigurationError{Setting: "channels", Reason: fmt.Sprintf("invalid channel name %q", channel)}
		}
	}

	if cfg.DrainTimeout < 0 {
		return &ConfigurationError{Setting: "drain_timeout", Reason: "must not be negative"}
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || level == zerolog.NoLevel {
		return &ConfigurationError{Setting: "log_level", Reason: fmt.Sprintf("unknown log level %q", cfg.LogLevel)}
	}

	if cfg.HTTP.Enabled && cfg.HTTP.Listen == "" {
		return &ConfigurationError{Setting: "http.listen", Reason: "missing listen address"}
	}

	if cfg.MQTT.Enabled && cfg.MQTT.BrokerURL == "" {
		return &ConfigurationError{Setting: "mqtt.broker_url", Reason: "missing broker url"}
	}

	return nil
}
