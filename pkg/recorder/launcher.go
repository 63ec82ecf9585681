package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tevino/abool"
	"gitlab.com/adam.stanek/livearchiver/pkg/client"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

// TimestampLayout - layout of the timestamp in output file names
const TimestampLayout = "2006-01-02 150405"

// LauncherOpts - launcher options
type LauncherOpts struct {
	OutputDir  string
	Downloader string
	Transcoder string
	ExtraArgs  []string
	Extension  string

	// Executor - defaults to RealExecutor
	Executor Executor
	// Now - clock used for file names, defaults to time.Now
	Now func() time.Time
	// StderrTailSize - number of stderr lines kept for the exit diagnostics
	StderrTailSize int
}

func (opts LauncherOpts) applyDefaults() LauncherOpts {
	result := opts

	if result.Executor == nil {
		result.Executor = RealExecutor
	}

	if result.Now == nil {
		result.Now = time.Now
	}

	if result.Extension == "" {
		result.Extension = "mp4"
	}

	if result.StderrTailSize == 0 {
		result.StderrTailSize = 5
	}

	return result
}

// Launcher - starts downloader processes
type Launcher struct {
	opts LauncherOpts
}

// NewLauncher - constructor
func NewLauncher(opts LauncherOpts) *Launcher {
	return &Launcher{opts: opts.applyDefaults()}
}

// OutputPath - builds path of the recording started at given time
func (l *Launcher) OutputPath(channel string, t time.Time) string {
	name := fmt.Sprintf("%v - %v.%v", channel, t.Format(TimestampLayout), l.opts.Extension)
	return filepath.Join(l.opts.OutputDir, name)
}

// Launch - spawns downloader for the channel and returns the running job.
// It does not wait for the download, the process is supervised in the background.
func (l *Launcher) Launch(channel string) (*Job, error) {
	if err := os.MkdirAll(l.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: unable to create output directory %v: %v", ErrFilesystem, l.opts.OutputDir, err)
	}

	startedAt := l.opts.Now()
	outputPath := l.OutputPath(channel, startedAt)
	url := client.ChannelURL(channel)

	args := append([]string{}, l.opts.ExtraArgs...)
	args = append(args, "--newline")
	if l.opts.Transcoder != "" {
		args = append(args, "--ffmpeg-location", l.opts.Transcoder)
	}
	args = append(args, "-o", outputPath, url)

	cmd := l.opts.Executor(l.opts.Downloader, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to prepare stdout pipe: %v", ErrSpawn, err)
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to prepare stderr pipe: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: unable to start %v: %v", ErrSpawn, l.opts.Downloader, err)
	}

	id := uuid.NewString()
	job := &Job{
		ID:         id,
		Channel:    channel,
		OutputPath: outputPath,
		StartedAt:  startedAt,
		cmd:        cmd,
		recording:  abool.NewBool(true),
		doneC:      make(chan struct{}),
		stderrTail: utils.NewLogTailer(l.opts.StderrTailSize),
		log:        log.With().Str("channel", channel).Str("job", id).Logger(),
	}

	go job.supervise(stdoutPipe, stderrPipe)

	job.log.Debug().Str("url", url).Str("output", outputPath).Msg("Download started")
	return job, nil
}
