package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"turnscribe/internal/logging"
	"turnscribe/internal/media"
)

type fakeStream struct {
	reads  int
	limit  int
	stop   func()
	err    error
	closed bool
	buf    []int16
}

func (f *fakeStream) Read() ([]int16, error) {
	f.reads++
	if f.err != nil && f.reads > f.limit {
		return nil, f.err
	}
	if f.reads == f.limit && f.stop != nil {
		f.stop()
	}
	for i := range f.buf {
		f.buf[i] = int16(f.reads)
	}
	return f.buf, nil
}

func (f *fakeStream) SampleRate() int { return 16000 }
func (f *fakeStream) Close() error    { f.closed = true; return nil }

func TestRecorderStopsOnFlag(t *testing.T) {
	fs := &fakeStream{limit: 3, buf: make([]int16, 4)}
	r := New(fs, logging.NewTestLogger())
	fs.stop = r.Stop
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	take, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !fs.closed {
		t.Fatalf("stream not closed")
	}
	if len(take.Samples) != 12 || take.Samples[0] != 1 || take.Samples[11] != 3 {
		t.Fatalf("samples = %v", take.Samples)
	}
	if !take.End.After(take.Start) {
		t.Fatalf("end %v not after start %v", take.End, take.Start)
	}

	path, err := take.Save(t.TempDir())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "audio_20240501_100001_to_20240501_100002.wav" {
		t.Fatalf("saved as %s", filepath.Base(path))
	}
	rec, err := media.ReadTimestamps(path)
	if err != nil {
		t.Fatalf("timestamps: %v", err)
	}
	if !rec.Start.Equal(take.Start) || !rec.End.Equal(take.End) {
		t.Fatalf("timestamps = %+v", rec)
	}
}

func TestRecorderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fs := &fakeStream{limit: 2, buf: make([]int16, 2), stop: cancel}
	take, err := New(fs, nil).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(take.Samples) != 4 {
		t.Fatalf("samples = %d", len(take.Samples))
	}
}

func TestRecorderReadError(t *testing.T) {
	boom := errors.New("device gone")
	fs := &fakeStream{limit: 1, buf: make([]int16, 2), err: boom}
	take, err := New(fs, nil).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected device error, got %v", err)
	}
	if len(take.Samples) != 2 || !fs.closed {
		t.Fatalf("partial take lost: %d samples closed=%v", len(take.Samples), fs.closed)
	}
}
