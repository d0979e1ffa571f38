package shellrunner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

const (
	defaultMaxOutputBytes = 256 * 1024 // 256KB
	defaultTimeout        = 5 * time.Minute
)

// Runner executes external commands with bounded combined output. A non-zero
// exit is a result, not an error; errors are reserved for commands that never
// ran or were cut short.
type Runner struct {
	maxOutputBytes int64
	defaultTimeout time.Duration
}

type Option func(*Runner)

func WithMaxOutputBytes(n int64) Option {
	return func(r *Runner) { r.maxOutputBytes = n }
}

func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Runner) { r.defaultTimeout = d }
}

func New(opts ...Option) *Runner {
	r := &Runner{
		maxOutputBytes: defaultMaxOutputBytes,
		defaultTimeout: defaultTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ ports.CommandRunner = (*Runner)(nil)

func (r *Runner) Run(ctx context.Context, c domain.Command) (domain.CommandResult, error) {
	if (len(c.Argv) == 0) == (strings.TrimSpace(c.Shell) == "") {
		return domain.CommandResult{}, &domain.Fault{
			Op:   "shellrunner.run",
			Kind: domain.FaultBadConfig,
			Err:  errors.New("exactly one of argv or shell must be set"),
		}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := build(cctx, c)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	// Stdout and Stderr share one writer, so exec serializes writes for us.
	out := &boundedBuffer{max: r.maxOutputBytes}
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	err := cmd.Run()
	res := domain.CommandResult{
		Output:    out.Bytes(),
		Truncated: out.Truncated(),
		Duration:  time.Since(start),
	}

	if cctx.Err() != nil {
		res.ExitCode = -1
		return res, cctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, &domain.Fault{
			Op:   "shellrunner.run",
			Kind: domain.FaultExec,
			Err:  err,
		}
	}

	return res, nil
}

func build(ctx context.Context, c domain.Command) *exec.Cmd {
	if len(c.Argv) > 0 {
		return exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	}
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", c.Shell)
	}
	return exec.CommandContext(ctx, "bash", "-lc", c.Shell)
}

// boundedBuffer keeps the first max bytes written and drops the rest.
type boundedBuffer struct {
	max       int64
	buf       bytes.Buffer
	truncated bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	remain := b.max - int64(b.buf.Len())
	if remain <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if int64(len(p)) > remain {
		b.buf.Write(p[:remain])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *boundedBuffer) Bytes() []byte { return b.buf.Bytes() }
func (b *boundedBuffer) Truncated() bool { return b.truncated }
