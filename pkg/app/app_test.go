package app

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/adam.stanek/livearchiver/pkg/client"
	"gitlab.com/adam.stanek/livearchiver/pkg/config"
	"gitlab.com/adam.stanek/livearchiver/pkg/recorder/recordertest"
	"gitlab.com/adam.stanek/livearchiver/pkg/supervisor"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

type fetcherMock struct {
	streams []client.Stream
	mutex   sync.Mutex
}

func (f *fetcherMock) FetchStreams(ctx context.Context, logins []string) ([]client.Stream, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return append([]client.Stream(nil), f.streams...), nil
}

func TestAppRecordsLiveChannelAndDrainsOnCancel(t *testing.T) {
	fetcher := &fetcherMock{streams: []client.Stream{
		{UserLogin: "Alpha", Type: client.StreamTypeLive, ViewerCount: 10, StartedAt: time.Now()},
	}}
	executor := recordertest.NewExecutor()

	instance := newApp(Opts{
		Channels:   []string{"alpha", "beta"},
		OutputDir:  filepath.Join(t.TempDir(), "recordings"),
		Downloader: DownloaderOpts{Path: "/opt/yt-dlp/yt-dlp", Transcoder: "/opt/yt-dlp/ffmpeg"},
	}, fetcher, executor.Exec)

	runner := utils.RunWithGracefulCancel(instance.Run)

	assert.Eventually(t, func() bool {
		return instance.Registry.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	job := instance.Registry.Jobs()[0]
	assert.Equal(t, "alpha", job.Channel)
	assert.True(t, job.IsRecording())
	assert.Empty(t, instance.Registry.JobsOf("beta"))

	require.NoError(t, runner.Cancel())

	assert.Equal(t, supervisor.StateStopped, instance.Supervisor.State())
	assert.Equal(t, 0, instance.Registry.Len())
	assert.False(t, job.IsRecording())
	assert.True(t, executor.Last().Interrupted())
}

func TestAppReportsHTTPServerFailure(t *testing.T) {
	// Occupied address makes the status server fail to listen
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	instance := newApp(Opts{
		Channels:   []string{"alpha"},
		OutputDir:  filepath.Join(t.TempDir(), "recordings"),
		Downloader: DownloaderOpts{Path: "/opt/yt-dlp/yt-dlp"},
		HTTP:       &HTTPOpts{Listen: listener.Addr().String()},
	}, &fetcherMock{}, recordertest.NewExecutor().Exec)

	runner := utils.RunWithGracefulCancel(instance.Run)

	err = runner.Cancel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server")
	assert.Equal(t, supervisor.StateStopped, instance.Supervisor.State())
}

func TestOptsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Twitch = config.Twitch{ClientID: "client", ClientSecret: "secret"}
	cfg.Channels = []string{"alpha"}
	cfg.Downloader.Path = "/opt/yt-dlp/yt-dlp"
	cfg.DrainTimeout = time.Minute
	cfg.MQTT.Enabled = true
	cfg.MQTT.BrokerURL = "tcp://localhost:1883"

	opts := OptsFromConfig(&cfg)

	assert.Equal(t, client.Credentials{ClientID: "client", ClientSecret: "secret"}, opts.TwitchCredentials)
	assert.Equal(t, []string{"alpha"}, opts.Channels)
	assert.Equal(t, "recordings", opts.OutputDir)
	assert.Equal(t, "mp4", opts.Downloader.Extension)
	assert.Equal(t, time.Minute, opts.DrainTimeout)
	assert.Nil(t, opts.HTTP)
	require.NotNil(t, opts.MQTT)
	assert.Equal(t, "tcp://localhost:1883", opts.MQTT.BrokerURL)
	assert.Equal(t, "livearchiver", opts.MQTT.TopicPrefix)
}
