package app

import (
	"github.com/rs/zerolog/log"
	"gitlab.com/adam.stanek/livearchiver/pkg/channel"
	"gitlab.com/adam.stanek/livearchiver/pkg/client"
	"gitlab.com/adam.stanek/livearchiver/pkg/monitor"
	"gitlab.com/adam.stanek/livearchiver/pkg/mqtt"
	"gitlab.com/adam.stanek/livearchiver/pkg/recorder"
	"gitlab.com/adam.stanek/livearchiver/pkg/supervisor"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

// App - application container
type App struct {
	Opts                Opts
	ChannelStateManager *channel.StateManager
	TwitchClient        *client.TwitchClient
	Monitor             *monitor.Monitor
	Launcher            *recorder.Launcher
	Registry            *recorder.Registry
	Supervisor          *supervisor.Supervisor
	MQTTConnection      *mqtt.Connection
}

// NewApp - constructor
func NewApp(opts Opts) *App {
	twitchClient := client.NewTwitchClient(client.Opts{
		Credentials: opts.TwitchCredentials,
	})

	return newApp(opts, twitchClient, recorder.RealExecutor)
}

func newApp(opts Opts, fetcher monitor.StreamFetcher, executor recorder.Executor) *App {
	instance := &App{
		Opts:                opts,
		ChannelStateManager: channel.NewStateManager(),
		Registry:            recorder.NewRegistry(),
	}

	if twitchClient, ok := fetcher.(*client.TwitchClient); ok {
		instance.TwitchClient = twitchClient
	}

	instance.Monitor = monitor.New(monitor.Opts{
		Channels: opts.Channels,
		Fetcher:  fetcher,
	})

	instance.Launcher = recorder.NewLauncher(recorder.LauncherOpts{
		OutputDir:  opts.OutputDir,
		Downloader: opts.Downloader.Path,
		Transcoder: opts.Downloader.Transcoder,
		ExtraArgs:  opts.Downloader.ExtraArgs,
		Extension:  opts.Downloader.Extension,
		Executor:   executor,
	})

	instance.Supervisor = supervisor.New(supervisor.Opts{
		Source:       instance.Monitor,
		Launcher:     instance.Launcher,
		Registry:     instance.Registry,
		StateManager: instance.ChannelStateManager,
		DrainTimeout: opts.DrainTimeout,
	})

	if opts.MQTT != nil {
		instance.MQTTConnection = mqtt.NewConnection(*opts.MQTT)
	}

	return instance
}

// Run - application main loop, returns after all the recordings were stopped
func (app *App) Run(ctx utils.GracefulContext) {
	log.Info().
		Str("client_id", utils.AnonymizeToken(app.Opts.TwitchCredentials.ClientID, 4)).
		Strs("channels", app.Opts.Channels).
		Str("output_dir", app.Opts.OutputDir).
		Msg("Monitoring channels")

	// MQTT
	if app.MQTTConnection != nil {
		ctx.RunAsChild(func(childCtx utils.GracefulContext) {
			app.MQTTConnection.Run(app.ChannelStateManager, childCtx)
		})
	}

	// Start serving content over HTTP
	var httpRunner utils.GracefulRunner
	if app.Opts.HTTP != nil {
		httpRunner = ctx.RunAsChild(func(childCtx utils.GracefulContext) {
			app.serve(childCtx)
		})
	}

	// Stream state polling
	ctx.RunAsChild(func(childCtx utils.GracefulContext) {
		app.Monitor.Run(childCtx)
	})

	app.Supervisor.Run(ctx)

	if httpRunner != nil {
		if err := httpRunner.Wait(); err != nil {
			ctx.Fail(err)
		}
	}
}
