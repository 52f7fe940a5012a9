// Package recorder captures microphone takes into timestamped WAV files.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"turnscribe/internal/media"

	"github.com/sirupsen/logrus"
)

// ErrNotBuilt is returned when capture support was left out of the build.
var ErrNotBuilt = errors.New("built without audio capture (rebuild with -tags whisper)")

// Stream yields captured mono PCM16 buffers. The returned slice is only valid
// until the next Read.
type Stream interface {
	Read() ([]int16, error)
	SampleRate() int
	Close() error
}

// Take is one finished recording.
type Take struct {
	media.Recording
	SampleRate int
	Samples    []int16
}

// Duration in seconds.
func (t Take) Duration() float64 {
	if t.SampleRate == 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

// Save writes the take into dir under its timestamped name.
func (t Take) Save(dir string) (string, error) {
	path := filepath.Join(dir, media.RecordingName(t.Recording))
	rec := t.Recording
	if err := media.WriteWAV(path, t.Samples, t.SampleRate, &rec); err != nil {
		return "", err
	}
	return path, nil
}

// Recorder appends buffers from a Stream until stopped.
type Recorder struct {
	stream  Stream
	logger  *logrus.Logger
	stopped atomic.Bool
	now     func() time.Time
}

func New(stream Stream, logger *logrus.Logger) *Recorder {
	return &Recorder{stream: stream, logger: logger, now: time.Now}
}

// Stop asks Run to finish after the buffer in flight. Safe from any goroutine.
func (r *Recorder) Stop() {
	r.stopped.Store(true)
}

// Run captures until Stop is called or ctx ends, then closes the stream.
// Cancellation is not an error; whatever was captured is returned.
func (r *Recorder) Run(ctx context.Context) (Take, error) {
	defer func() { _ = r.stream.Close() }()
	take := Take{SampleRate: r.stream.SampleRate()}
	take.Start = r.now().UTC()
	for !r.stopped.Load() && ctx.Err() == nil {
		buf, err := r.stream.Read()
		if err != nil {
			take.End = r.now().UTC()
			return take, fmt.Errorf("capture: %w", err)
		}
		take.Samples = append(take.Samples, buf...)
	}
	take.End = r.now().UTC()
	if r.logger != nil {
		r.logger.Infof("captured %.1fs at %d Hz", take.Duration(), take.SampleRate)
	}
	return take, nil
}
