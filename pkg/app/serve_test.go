package app_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/adam.stanek/livearchiver/pkg/app"
	"gitlab.com/adam.stanek/livearchiver/pkg/channel"
	"gitlab.com/adam.stanek/livearchiver/pkg/recorder"
	"gitlab.com/adam.stanek/livearchiver/pkg/recorder/recordertest"
)

func newTestServer(t *testing.T) (*httptest.Server, *recorder.Registry, *channel.StateManager, *recordertest.Executor, string) {
	outputDir := t.TempDir()
	registry := recorder.NewRegistry()
	stateManager := channel.NewStateManager()
	executor := recordertest.NewExecutor()

	launcher := recorder.NewLauncher(recorder.LauncherOpts{
		OutputDir:  outputDir,
		Downloader: "yt-dlp",
		Executor:   executor.Exec,
	})

	job, err := launcher.Launch("alpha")
	require.NoError(t, err)
	registry.Add(job)

	stateManager.Update("alpha", *channel.NewState().SetIsLive(true).SetIsRecording(true).SetViewers(7))

	server := httptest.NewServer(app.NewRouter(registry, stateManager, outputDir))
	t.Cleanup(func() {
		server.Close()
		for _, cmd := range executor.Commands() {
			cmd.Finish(0)
		}
	})

	return server, registry, stateManager, executor, outputDir
}

func getJSON(t *testing.T, url string, target interface{}) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestServeRecordings(t *testing.T) {
	server, registry, _, _, _ := newTestServer(t)

	var recordings []map[string]interface{}
	getJSON(t, server.URL+"/api/recordings", &recordings)

	require.Len(t, recordings, 1)
	job := registry.Jobs()[0]
	assert.Equal(t, job.ID, recordings[0]["id"])
	assert.Equal(t, "alpha", recordings[0]["channel"])
	assert.Equal(t, job.OutputPath, recordings[0]["output_path"])
	assert.Equal(t, true, recordings[0]["recording"])
	assert.NotContains(t, recordings[0], "exit_code")
}

func TestServeChannels(t *testing.T) {
	server, _, _, _, _ := newTestServer(t)

	var channels map[string]map[string]interface{}
	getJSON(t, server.URL+"/api/channels", &channels)

	require.Contains(t, channels, "alpha")
	assert.Equal(t, true, channels["alpha"]["is_live"])
	assert.Equal(t, true, channels["alpha"]["is_recording"])
	assert.Equal(t, float64(7), channels["alpha"]["viewers"])
}

func TestServeRecordingFiles(t *testing.T) {
	server, _, _, _, outputDir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "alpha.mp4"), []byte("media"), 0644))

	resp, err := http.Get(server.URL + "/recordings/alpha.mp4")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "media", string(body))
}

func TestServeMetrics(t *testing.T) {
	server, _, _, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "livearchiver_supervisor_state")
}
