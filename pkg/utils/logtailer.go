package utils

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// LogTailer - keeps last N lines of a stream
type LogTailer struct {
	size  int
	lines []string
	mutex sync.Mutex
}

// NewLogTailer - constructor
func NewLogTailer(size int) *LogTailer {
	return &LogTailer{
		size:  size,
		lines: make([]string, 0, size),
	}
}

// Tail - reads the stream line by line until EOF, optional handler is called for every line
func (t *LogTailer) Tail(r io.Reader, handler func(line string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		t.Add(line)

		if handler != nil {
			handler(line)
		}
	}
}

// Add - appends line, oldest line is dropped if the tailer is full
func (t *LogTailer) Add(line string) {
	if t.size <= 0 {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if len(t.lines) == t.size {
		t.lines = append(t.lines[:0], t.lines[1:]...)
	}

	t.lines = append(t.lines, line)
}

// Lines - returns copy of the kept lines
func (t *LogTailer) Lines() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return append([]string(nil), t.lines...)
}

func (t *LogTailer) String() string {
	return strings.Join(t.Lines(), "\n")
}
