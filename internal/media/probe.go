// Package media wraps the external ffprobe/ffmpeg tools behind narrow
// interfaces so handlers can be tested without spawning real processes.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/Esosek/tubely/internal/metrics"
	"github.com/Esosek/tubely/pkg/models"
)

// Dimensions holds the pixel size of a video stream.
type Dimensions struct {
	Width  int
	Height int
}

// Prober reports the dimensions of the first video stream in a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (Dimensions, error)
}

// FFProbe invokes the ffprobe binary to inspect media files.
type FFProbe struct {
	log     *slog.Logger
	timeout time.Duration
}

// NewFFProbe creates an FFProbe with the given per-invocation timeout.
func NewFFProbe(log *slog.Logger, timeout time.Duration) *FFProbe {
	return &FFProbe{log: log, timeout: timeout}
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Probe runs ffprobe against the given path and returns the dimensions of
// the first video stream.
func (p *FFProbe) Probe(ctx context.Context, path string) (Dimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Dimensions{}, fmt.Errorf("%w: %v", models.ErrProbeFailed, ctx.Err())
		}
		p.log.Debug("ffprobe stderr", "output", stderr.String())
		return Dimensions{}, fmt.Errorf("%w: %v", models.ErrProbeFailed, err)
	}

	metrics.ProbeDuration.Observe(time.Since(start).Seconds())

	return parseProbeOutput(stdout.Bytes())
}

// parseProbeOutput extracts the dimensions of the first video stream from
// ffprobe's JSON output.
func parseProbeOutput(data []byte) (Dimensions, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Dimensions{}, fmt.Errorf("%w: %v", models.ErrProbeFailed, err)
	}

	for _, stream := range out.Streams {
		if stream.CodecType == "video" && stream.Width > 0 && stream.Height > 0 {
			return Dimensions{Width: stream.Width, Height: stream.Height}, nil
		}
	}

	return Dimensions{}, models.ErrNoVideoStream
}
