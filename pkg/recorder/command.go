package recorder

import (
	"io"
	"os/exec"
)

// Command - used exec.Command subset for easier mocking in tests
type Command interface {
	StderrPipe() (io.ReadCloser, error)
	StdoutPipe() (io.ReadCloser, error)
	Start() error
	Wait() error

	// Interrupt - asks the process group to finish gracefully
	Interrupt() error
	// Kill - terminates the process group immediately
	Kill() error
	ExitCode() int
}

// Executor - creates command for given executable and arguments
type Executor func(name string, args ...string) Command

// -------------------------------------------------

type realCommand struct {
	cmd *exec.Cmd
}

func (e *realCommand) StderrPipe() (io.ReadCloser, error) {
	return e.cmd.StderrPipe()
}

func (e *realCommand) StdoutPipe() (io.ReadCloser, error) {
	return e.cmd.StdoutPipe()
}

func (e *realCommand) Start() error {
	return e.cmd.Start()
}

func (e *realCommand) Wait() error {
	return e.cmd.Wait()
}

func (e *realCommand) ExitCode() int {
	return e.cmd.ProcessState.ExitCode()
}

func (e *realCommand) Interrupt() error {
	return interruptGroup(e.cmd)
}

func (e *realCommand) Kill() error {
	return killGroup(e.cmd)
}

// RealExecutor - executor spawning OS processes, each in its own process group
func RealExecutor(name string, args ...string) Command {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = sysProcAttr()

	return &realCommand{cmd: cmd}
}
