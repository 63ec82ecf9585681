package app

import (
	"time"

	"gitlab.com/adam.stanek/livearchiver/pkg/client"
	"gitlab.com/adam.stanek/livearchiver/pkg/config"
	"gitlab.com/adam.stanek/livearchiver/pkg/mqtt"
)

// Opts - application run options
type Opts struct {
	TwitchCredentials client.Credentials
	Channels          []string
	OutputDir         string
	Downloader        DownloaderOpts
	DrainTimeout      time.Duration
	HTTP              *HTTPOpts
	MQTT              *mqtt.Opts
}

// DownloaderOpts - external downloader invocation
type DownloaderOpts struct {
	Path       string
	Transcoder string
	ExtraArgs  []string
	Extension  string
}

// HTTPOpts - options of the status server
type HTTPOpts struct {
	Listen string
}

// OptsFromConfig - maps loaded configuration to the run options
func OptsFromConfig(cfg *config.Config) Opts {
	opts := Opts{
		TwitchCredentials: client.Credentials{
			ClientID:     cfg.Twitch.ClientID,
			ClientSecret: cfg.Twitch.ClientSecret,
		},
		Channels:  cfg.Channels,
		OutputDir: cfg.OutputDir,
		Downloader: DownloaderOpts{
			Path:       cfg.Downloader.Path,
			Transcoder: cfg.Downloader.Transcoder,
			ExtraArgs:  cfg.Downloader.ExtraArgs,
			Extension:  cfg.Downloader.Extension,
		},
		DrainTimeout: cfg.DrainTimeout,
	}

	if cfg.HTTP.Enabled {
		opts.HTTP = &HTTPOpts{Listen: cfg.HTTP.Listen}
	}

	if cfg.MQTT.Enabled {
		opts.MQTT = &mqtt.Opts{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}
	}

	return opts
}
