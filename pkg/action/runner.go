package action

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/traditionalchinese"
)

// DefaultExecTimeout bounds a single command execution. The whitelist holds
// short-lived commands; anything hanging past this is killed.
const DefaultExecTimeout = 30 * time.Second

// EncodingBig5 decodes console output from the CP950/Big5 codepage used by
// Traditional Chinese Windows hosts.
const EncodingBig5 = "big5"

// Runner executes whitelisted command specs and decodes their output.
type Runner struct {
	timeout  time.Duration
	encoding string
	logger   *zap.Logger
}

// RunnerConfig holds configuration for the command runner.
type RunnerConfig struct {
	// Timeout bounds a single execution. Defaults to DefaultExecTimeout.
	Timeout time.Duration

	// Encoding names the console output encoding ("big5" or "" for UTF-8).
	Encoding string

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// NewRunner creates a command runner.
func NewRunner(cfg RunnerConfig) *Runner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		timeout:  timeout,
		encoding: cfg.Encoding,
		logger:   logger,
	}
}

// Run executes the spec and returns its decoded, trimmed output. Stdout is
// preferred; stderr is the fallback when stdout is empty. Execution errors
// are returned for the dispatcher to surface to the user.
func (r *Runner) Run(ctx context.Context, spec Spec) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Program, spec.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w", spec.Program, err)
	}

	raw := stdout.Bytes()
	if len(raw) == 0 {
		raw = stderr.Bytes()
	}

	decoded, err := r.decode(raw)
	if err != nil {
		return "", fmt.Errorf("decoding output of %s: %w", spec.Program, err)
	}

	r.logger.Debug("command executed",
		zap.String("program", spec.Program),
		zap.Int("output_bytes", len(decoded)),
	)

	return strings.TrimSpace(decoded), nil
}

// decode converts raw console bytes to UTF-8 per the configured encoding.
// With big5 configured the decode is unconditional: short Big5 sequences can
// coincidentally be valid UTF-8, so sniffing would misread real console
// output. ASCII is unaffected either way.
func (r *Runner) decode(raw []byte) (string, error) {
	if r.encoding != EncodingBig5 {
		return string(raw), nil
	}

	decoded, err := traditionalchinese.Big5.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
