// Package delegate runs the external analysis scripts and maps their
// stdout/stderr contract onto typed results. One invocation is one
// subprocess; invocations share no state and may run in parallel.
package delegate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Karthick9298/hostel-flavour/internal/civilday"
)

// Script names understood by the analysis service.
const (
	ScriptDaily      = "daily_analysis.py"
	ScriptWeekly     = "weekly_analysis.py"
	ScriptHistorical = "historical_analysis.py"
)

// Mode selects the historical analysis variant.
type Mode string

const (
	ModeComparison Mode = "comparison"
	ModeTrend      Mode = "trend"
	ModePattern    Mode = "pattern"
)

// ParseMode validates a historical analysis mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeComparison, ModeTrend, ModePattern:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown analysis mode %q", s)
	}
}

// DefaultTimeout is how long a script may run before it is killed.
const DefaultTimeout = 60 * time.Second

// ErrTimeout reports that a script was killed after exceeding the timeout.
// There is no retry at this layer; retry policy belongs to the caller.
var ErrTimeout = errors.New("analysis script timed out")

// Error reports a script run that failed before producing a usable result,
// either by exiting nonzero or by emitting something other than one JSON
// document. Detail carries the captured stderr text when there is one.
type Error struct {
	Script string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("analysis script %s failed", e.Script)
	}
	return fmt.Sprintf("analysis script %s failed: %s", e.Script, e.Detail)
}

// Response is the envelope every script prints on stdout. Raw holds the
// full document so callers can pass it through untouched.
type Response struct {
	Status  string          `json:"status"`
	Type    string          `json:"type,omitempty"`
	Message string          `json:"message,omitempty"`
	Date    string          `json:"date,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusNoData  = "no_data"
)

// Bridge invokes the analysis scripts as subprocesses.
type Bridge struct {
	interpreter string
	scriptsDir  string
	timeout     time.Duration
	logger      *slog.Logger
}

// New returns a bridge running scripts from scriptsDir with the given
// interpreter, enforcing DefaultTimeout per invocation.
func New(interpreter, scriptsDir string, logger *slog.Logger) *Bridge {
	return &Bridge{
		interpreter: interpreter,
		scriptsDir:  scriptsDir,
		timeout:     DefaultTimeout,
		logger:      logger,
	}
}

// Daily runs the single-day analysis script.
func (b *Bridge) Daily(ctx context.Context, day civilday.Day) (Response, error) {
	return b.Invoke(ctx, ScriptDaily, day.String())
}

// Weekly runs the analysis for the week containing day.
func (b *Bridge) Weekly(ctx context.Context, day civilday.Day) (Response, error) {
	return b.Invoke(ctx, ScriptWeekly, day.String())
}

// Historical runs the multi-day analysis over a window in the given mode.
func (b *Bridge) Historical(ctx context.Context, window civilday.Window, mode Mode) (Response, error) {
	return b.Invoke(ctx, ScriptHistorical, window.Start.String(), window.End.String(), string(mode))
}

// Invoke runs one script to completion and parses its stdout as a single
// JSON document. A nonzero exit fails with the captured stderr; running
// past the timeout kills the process and fails with ErrTimeout.
func (b *Bridge) Invoke(ctx context.Context, script string, args ...string) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.interpreter, append([]string{filepath.Join(b.scriptsDir, script)}, args...)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		b.logger.Warn("analysis script killed", "script", script, "elapsed", elapsed)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%s after %s: %w", script, b.timeout, ErrTimeout)
		}
		return Response{}, ctx.Err()
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		b.logger.Warn("analysis script failed", "script", script, "elapsed", elapsed, "stderr", detail)
		return Response{}, &Error{Script: script, Detail: detail}
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		b.logger.Warn("analysis script produced invalid output", "script", script, "elapsed", elapsed)
		return Response{}, &Error{Script: script, Detail: "invalid output"}
	}
	resp.Raw = json.RawMessage(bytes.TrimSpace(stdout.Bytes()))

	b.logger.Debug("analysis script finished", "script", script, "status", resp.Status, "elapsed", elapsed)
	return resp, nil
}
