package recorder

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/tevino/abool"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

// Job - single in-flight capture of a channel
type Job struct {
	ID         string
	Channel    string
	OutputPath string
	StartedAt  time.Time

	cmd        Command
	recording  *abool.AtomicBool
	doneC      chan struct{}
	exitCode   int
	stderrTail *utils.LogTailer
	log        zerolog.Logger
}

// IsRecording - true until the process exits (on its own or after Stop/Kill)
func (job *Job) IsRecording() bool {
	return job.recording.IsSet()
}

// Done - closed once the process exited
func (job *Job) Done() <-chan struct{} {
	return job.doneC
}

// ExitCode - exit code of the finished process, -1 while recording or if killed by a signal
func (job *Job) ExitCode() int {
	select {
	case <-job.doneC:
		return job.exitCode
	default:
		return -1
	}
}

// LogTail - last lines the process wrote to its standard error
func (job *Job) LogTail() string {
	return job.stderrTail.String()
}

// Stop - sends graceful stop request, the downloader finalizes the file and exits
func (job *Job) Stop() error {
	if !job.IsRecording() {
		return nil
	}

	job.log.Debug().Msg("Requesting downloader to stop")
	return job.cmd.Interrupt()
}

// Kill - forcibly terminates the process
func (job *Job) Kill() error {
	if !job.IsRecording() {
		return nil
	}

	job.log.Warn().Msg("Killing downloader")
	return job.cmd.Kill()
}

// supervise - relays process output into the log and waits for its exit
func (job *Job) supervise(stdout io.Reader, stderr io.Reader) {
	var readers sync.WaitGroup
	readers.Add(2)

	go func() {
		defer readers.Done()
		utils.NewLogTailer(0).Tail(stdout, func(line string) {
			job.log.Info().Msg(line)
		})
	}()

	go func() {
		defer readers.Done()
		job.stderrTail.Tail(stderr, func(line string) {
			job.log.Debug().Msg(line)
		})
	}()

	// Pipes have to be drained before Wait closes them
	readers.Wait()
	waitErr := job.cmd.Wait()

	job.exitCode = job.cmd.ExitCode()
	job.recording.UnSet()
	close(job.doneC)

	event := job.log.Info()
	if waitErr != nil {
		event = job.log.Warn().Err(waitErr).Str("logtail", job.LogTail())
	}

	event = event.Int("code", job.exitCode).Dur("duration", time.Since(job.StartedAt).Truncate(time.Second))
	if info, err := os.Stat(job.OutputPath); err == nil {
		event = event.Str("size", humanize.Bytes(uint64(info.Size())))
	}

	event.Msg("Downloader exited")
}
