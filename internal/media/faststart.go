package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Esosek/tubely/internal/metrics"
	"github.com/Esosek/tubely/pkg/models"
)

// Processor rewrites a media file's container layout for progressive
// playback, returning the path of the processed output.
type Processor interface {
	FastStart(ctx context.Context, inputPath string) (string, error)
}

// FFMPEG invokes the ffmpeg binary to remux media files.
type FFMPEG struct {
	log     *slog.Logger
	timeout time.Duration
}

// NewFFMPEG creates an FFMPEG with the given per-invocation timeout.
func NewFFMPEG(log *slog.Logger, timeout time.Duration) *FFMPEG {
	return &FFMPEG{log: log, timeout: timeout}
}

// FastStart remuxes the input so the moov atom sits at the front of the
// file. The streams are copied, not re-encoded. The output is written next
// to the input at the path returned by ProcessedPath.
func (f *FFMPEG) FastStart(ctx context.Context, inputPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	outputPath := ProcessedPath(inputPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-c", "copy",
		"-movflags", "faststart",
		"-f", "mp4",
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", models.ErrTranscodeFailed, ctx.Err())
		}
		f.log.Debug("ffmpeg stderr", "output", stderr.String())
		return "", fmt.Errorf("%w: %v", models.ErrTranscodeFailed, err)
	}

	metrics.TranscodeDuration.Observe(time.Since(start).Seconds())

	return outputPath, nil
}

// ProcessedPath derives the output path for a fast-start remux by inserting
// a ".processing" suffix before the extension, or appending it when the
// input has no extension.
func ProcessedPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	if ext == "" {
		return inputPath + ".processing"
	}
	return strings.TrimSuffix(inputPath, ext) + ".processing" + ext
}
