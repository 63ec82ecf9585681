package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gitlab.com/adam.stanek/livearchiver/pkg/channel"
	"gitlab.com/adam.stanek/livearchiver/pkg/recorder"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

const shutdownTimeout = 5 * time.Second

type recordingView struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	OutputPath string    `json:"output_path"`
	StartedAt  time.Time `json:"started_at"`
	Recording  bool      `json:"recording"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	Size       string    `json:"size,omitempty"`
}

func newRecordingView(job *recorder.Job) recordingView {
	view := recordingView{
		ID:         job.ID,
		Channel:    job.Channel,
		OutputPath: job.OutputPath,
		StartedAt:  job.StartedAt,
		Recording:  job.IsRecording(),
	}

	if !view.Recording {
		exitCode := job.ExitCode()
		view.ExitCode = &exitCode
	}

	if info, err := os.Stat(job.OutputPath); err == nil {
		view.Size = humanize.Bytes(uint64(info.Size()))
	}

	return view
}

// NewRouter - status API of the running recordings
func NewRouter(registry *recorder.Registry, stateManager *channel.StateManager, outputDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/recordings", func(w http.ResponseWriter, req *http.Request) {
		jobs := registry.Jobs()
		views := make([]recordingView, 0, len(jobs))
		for _, job := range jobs {
			views = append(views, newRecordingView(job))
		}

		writeJSON(w, views)
	})

	r.Get("/api/channels", func(w http.ResponseWriter, req *http.Request) {
		snapshot := stateManager.Snapshot()
		result := make(map[string]map[string]interface{}, len(snapshot))
		for name, state := range snapshot {
			result[name] = state.AsMap()
		}

		writeJSON(w, result)
	})

	r.Handle("/recordings/*", http.StripPrefix("/recordings/", http.FileServer(http.Dir(outputDir))))

	return r
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Unable to encode response")
	}
}

// serve - runs the status server until canceled, a failure ends it early with an error
func (app *App) serve(ctx utils.GracefulContext) {
	server := &http.Server{
		Addr:              app.Opts.HTTP.Listen,
		Handler:           NewRouter(app.Registry, app.ChannelStateManager, app.Opts.OutputDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Error().Err(err).Str("addr", server.Addr).Msg("Unable to start HTTP server")
		ctx.Fail(fmt.Errorf("http server: %w", err))
		return
	}

	errC := make(chan error, 1)
	go func() {
		log.Info().Str("addr", listener.Addr().String()).Msg("Starting HTTP server")
		errC <- server.Serve(listener)
	}()

	select {
	case err := <-errC:
		log.Error().Err(err).Str("addr", server.Addr).Msg("HTTP server failed")
		ctx.Fail(fmt.Errorf("http server: %w", err))
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Unable to shut down HTTP server")
	}
}
