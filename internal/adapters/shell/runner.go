// Package shell runs external commands used by the transform steps.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CommandRunner = (*Runner)(nil)

// maxStderrTail bounds the stderr kept for error messages.
const maxStderrTail = 4096

// Runner implements ports.CommandRunner using os/exec.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner. Diagnostic output of commands is forwarded
// to logger line by line.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes argv with stdin as its standard input and returns its standard output.
func (r *Runner) Run(ctx context.Context, argv []string, stdin []byte) ([]byte, error) {
	if len(argv) == 0 {
		return nil, zerr.With(domain.ErrCommandFailed, "reason", "empty command")
	}

	name := argv[0]
	executable, err := exec.LookPath(name)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "command", name)
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // command comes from project configuration
	cmd.Args[0] = name
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout bytes.Buffer
	stderr := &logWriter{logger: r.logger}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	stderr.Flush()

	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		cause := runErr
		if tail := strings.TrimSpace(stderr.Tail()); tail != "" {
			cause = zerr.Wrap(errors.New(tail), runErr.Error())
		}
		err := zerr.With(zerr.Wrap(cause, domain.ErrCommandFailed.Error()), "command", name)
		return nil, zerr.With(err, "exit_code", exitCode)
	}

	return stdout.Bytes(), nil
}

// logWriter buffers partial writes and forwards complete lines to the logger.
// It keeps a bounded tail of everything written.
type logWriter struct {
	logger ports.Logger

	mu   sync.Mutex
	buf  bytes.Buffer
	tail []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tail = append(w.tail, p...)
	if len(w.tail) > maxStderrTail {
		w.tail = w.tail[len(w.tail)-maxStderrTail:]
	}

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush forwards any buffered partial line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

// Tail returns the last bytes written.
func (w *logWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.tail)
}

func (w *logWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || w.logger == nil {
		return
	}
	w.logger.Warn(line)
}
