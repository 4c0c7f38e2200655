package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner abstracts the external rasterizer so tests can stub it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// stderrCap bounds how much rasterizer output ends up in a log line.
const stderrCap = 4 << 10

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.logger.Error("ocr.exec.failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"error", err,
			"stderr", clipStderr(errb.String()),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return out.Bytes(), errb.Bytes(), err
	}

	r.logger.Debug("ocr.exec.ok",
		"cmd", name,
		"stdout_bytes", out.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

func clipStderr(s string) string {
	if len(s) <= stderrCap {
		return s
	}
	return s[:stderrCap] + "...(clipped)"
}
