package diarize

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"turnscribe/internal/config"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

// CommandDiarizer runs an external diarization program and parses its stdout.
// The program receives the WAV path as its last argument.
type CommandDiarizer struct {
	Argv        []string
	NumSpeakers int
	Timeout     time.Duration
	Logger      *logrus.Logger
}

// NewCommandDiarizer builds a CommandDiarizer from the diarize config section.
func NewCommandDiarizer(cfg *config.Config, logger *logrus.Logger) (*CommandDiarizer, error) {
	argv, err := shlex.Split(cfg.Diarize.Command)
	if err != nil {
		return nil, fmt.Errorf("diarize.command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("diarize.command is empty")
	}
	return &CommandDiarizer{
		Argv:        argv,
		NumSpeakers: cfg.Diarize.NumSpeakers,
		Timeout:     time.Duration(cfg.Diarize.TimeoutSec * float64(time.Second)),
		Logger:      logger,
	}, nil
}

func (d *CommandDiarizer) args(wavPath string) []string {
	args := slices.Clone(d.Argv[1:])
	if d.NumSpeakers > 0 {
		args = append(args, "--num-speakers", strconv.Itoa(d.NumSpeakers))
	}
	return append(args, wavPath)
}

func (d *CommandDiarizer) Diarize(ctx context.Context, wavPath string, sampleRate int) (iter.Seq[Track], error) {
	runCtx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	args := d.args(wavPath)
	cmd := exec.CommandContext(runCtx, d.Argv[0], args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("TURNSCRIBE_SAMPLE_RATE=%d", sampleRate))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if d.Logger != nil {
		d.Logger.Debugf("diarize: %s %s", d.Argv[0], strings.Join(args, " "))
	}
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("diarizer failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("diarizer failed: %w", err)
	}
	tracks, err := ParseTracks(&stdout)
	if err != nil {
		return nil, err
	}
	if d.Logger != nil {
		d.Logger.Infof("diarized %s: %d tracks in %s", wavPath, len(tracks), time.Since(start).Round(time.Millisecond))
	}
	return slices.Values(tracks), nil
}

// FileDiarizer returns tracks read from a previously produced turns file.
type FileDiarizer struct {
	Path string
}

func (f FileDiarizer) Diarize(ctx context.Context, _ string, _ int) (iter.Seq[Track], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open turns: %w", err)
	}
	defer fh.Close()
	tracks, err := ParseTracks(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return slices.Values(tracks), nil
}
