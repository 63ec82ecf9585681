// Package recordertest provides a scriptable downloader command for tests.
package recordertest

import (
	"io"
	"sync"

	"github.com/tevino/abool"
	"gitlab.com/adam.stanek/livearchiver/pkg/recorder"
)

// Executor - recorder.Executor replacement which hands out mocked commands
type Executor struct {
	// StartErr - error returned by Start of every command created afterwards
	StartErr error
	// IgnoreInterrupt - commands keep running after Interrupt (only Kill or Finish ends them)
	IgnoreInterrupt bool

	commands []*Command
	mutex    sync.Mutex
}

// NewExecutor - constructor
func NewExecutor() *Executor {
	return &Executor{}
}

// Exec - matches recorder.Executor signature
func (e *Executor) Exec(name string, args ...string) recorder.Command {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	cmd := newCommand(name, args, e.StartErr, e.IgnoreInterrupt)
	e.commands = append(e.commands, cmd)
	return cmd
}

// Commands - returns all commands created so far
func (e *Executor) Commands() []*Command {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return append([]*Command(nil), e.commands...)
}

// Last - returns the most recently created command or nil
func (e *Executor) Last() *Command {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if len(e.commands) == 0 {
		return nil
	}

	return e.commands[len(e.commands)-1]
}

// ---------------------

// Command - mocked downloader process
type Command struct {
	Name string
	Args []string

	stdoutReader *io.PipeReader
	stdoutWriter *io.PipeWriter
	stderrReader *io.PipeReader
	stderrWriter *io.PipeWriter

	startErr        error
	ignoreInterrupt bool
	interrupted     *abool.AtomicBool
	killed          *abool.AtomicBool

	exitC      chan struct{}
	exitCode   int
	finishOnce sync.Once
}

func newCommand(name string, args []string, startErr error, ignoreInterrupt bool) *Command {
	cmd := &Command{
		Name:            name,
		Args:            args,
		startErr:        startErr,
		ignoreInterrupt: ignoreInterrupt,
		interrupted:     abool.New(),
		killed:          abool.New(),
		exitC:           make(chan struct{}),
	}

	cmd.stdoutReader, cmd.stdoutWriter = io.Pipe()
	cmd.stderrReader, cmd.stderrWriter = io.Pipe()
	return cmd
}

func (c *Command) StderrPipe() (io.ReadCloser, error) { return c.stderrReader, nil }
func (c *Command) StdoutPipe() (io.ReadCloser, error) { return c.stdoutReader, nil }
func (c *Command) Start() error                       { return c.startErr }

func (c *Command) Wait() error {
	<-c.exitC
	return nil
}

func (c *Command) ExitCode() int {
	return c.exitCode
}

func (c *Command) Interrupt() error {
	c.interrupted.Set()
	if !c.ignoreInterrupt {
		c.Finish(0)
	}

	return nil
}

func (c *Command) Kill() error {
	c.killed.Set()
	c.Finish(-1)
	return nil
}

// Finish - simulates process exit with given code
func (c *Command) Finish(exitCode int) {
	c.finishOnce.Do(func() {
		c.stdoutWriter.Close()
		c.stderrWriter.Close()
		c.exitCode = exitCode
		close(c.exitC)
	})
}

// Interrupted - whether a graceful stop was requested
func (c *Command) Interrupted() bool { return c.interrupted.IsSet() }

// Killed - whether the command was killed
func (c *Command) Killed() bool { return c.killed.IsSet() }

// WriteStdoutLine - emits line on standard output (blocks until it is read)
func (c *Command) WriteStdoutLine(line string) {
	io.WriteString(c.stdoutWriter, line+"\n")
}

// WriteStderrLine - emits line on standard error (blocks until it is read)
func (c *Command) WriteStderrLine(line string) {
	io.WriteString(c.stderrWriter, line+"\n")
}
