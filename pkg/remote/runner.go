// Package remote executes backend command-line tools, either directly on the
// local machine or wrapped in a remote-shell invocation when the target has
// a host. One external process is spawned per invocation.
package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Command is one backend tool invocation.
type Command struct {
	// Name is the executable (e.g., "qstat").
	Name string

	// Args are the arguments.
	Args []string

	// Stdin is an optional payload streamed to the process's input by a
	// dedicated forwarder goroutine. Nil means the process gets a closed
	// stdin.
	Stdin io.Reader
}

// Result captures a finished invocation.
type Result struct {
	// Stdout and Stderr are the captured streams.
	Stdout []byte
	Stderr []byte

	// ExitCode is the process exit code. A non-zero code is not an error at
	// this layer; callers decide what it means for their protocol.
	ExitCode int
}

// Runner runs backend commands. Implementations must be safe for concurrent
// use.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ProcessRunner runs commands as local processes, optionally wrapped in an
// ssh invocation targeting a remote host.
type ProcessRunner struct {
	// host, when non-empty, wraps every command in "ssh <host> <cmd>".
	host string

	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a ProcessRunner.
type Option func(*ProcessRunner)

// WithRateLimit caps command invocations per second. Zero or negative means
// unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(r *ProcessRunner) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *ProcessRunner) {
		r.logger = logger
	}
}

// NewProcessRunner creates a runner. A non-empty host routes every command
// through ssh; an empty host executes locally.
func NewProcessRunner(host string, opts ...Option) *ProcessRunner {
	r := &ProcessRunner{host: host, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Host returns the remote host, or "" for local execution.
func (r *ProcessRunner) Host() string {
	return r.host
}

// Run spawns one process for cmd and waits for it to finish.
//
// When cmd.Stdin is set, the payload is streamed to the process on its own
// goroutine while this goroutine drains stdout and stderr. Writing and
// reading must not share a goroutine: a synchronous write-then-read over a
// pipe deadlocks once the pipe buffers fill.
func (r *ProcessRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return Result{}, err
		}
	}

	name, args := r.route(cmd)
	invocation := uuid.NewString()

	r.logger.Debug("running backend command",
		zap.String("invocation", invocation),
		zap.String("command", name),
		zap.Strings("args", args),
		zap.Bool("stdin", cmd.Stdin != nil))

	proc := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	var forwarded <-chan error
	if cmd.Stdin != nil {
		pipe, err := proc.StdinPipe()
		if err != nil {
			return Result{}, err
		}
		forwarded = Forward(pipe, cmd.Stdin)
	}

	if err := proc.Start(); err != nil {
		return Result{}, err
	}

	waitErr := proc.Wait()

	if forwarded != nil {
		if err := <-forwarded; err != nil {
			r.logger.Warn("stdin forwarding incomplete",
				zap.String("invocation", invocation),
				zap.Error(err))
		}
	}

	result := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return result, waitErr
		}
	}

	r.logger.Debug("backend command finished",
		zap.String("invocation", invocation),
		zap.Int("exit_code", result.ExitCode),
		zap.Int("stdout_bytes", len(result.Stdout)),
		zap.Int("stderr_bytes", len(result.Stderr)))

	return result, nil
}

// route applies the remote-shell wrap when a host is configured.
func (r *ProcessRunner) route(cmd Command) (string, []string) {
	if r.host == "" {
		return cmd.Name, cmd.Args
	}
	remote := cmd.Name
	if len(cmd.Args) > 0 {
		remote += " " + strings.Join(cmd.Args, " ")
	}
	return "ssh", []string{r.host, remote}
}
