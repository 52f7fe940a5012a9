package media

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeStereo(t *testing.T, path string, rate int, left, right []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	data := make([]int, 0, len(left)*2)
	for i := range left {
		data = append(data, left[i], right[i])
	}
	buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: 2, SampleRate: rate}, Data: data, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = f.Close()
}

const missingFFmpeg = "turnscribe-no-such-ffmpeg"

func TestLoadDownmixesAndResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	left := make([]int, 800)
	right := make([]int, 800)
	for i := range left {
		left[i], right[i] = 1000, 3000
	}
	writeStereo(t, path, 8000, left, right)

	l := &Loader{SampleRate: 16000, TmpDir: t.TempDir(), FFmpeg: missingFFmpeg}
	a, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer a.Close()
	if a.WAVPath != path || a.WAVRate != 8000 {
		t.Fatalf("without ffmpeg the wav is read in place: path=%s rate=%d", a.WAVPath, a.WAVRate)
	}
	if a.SampleRate != 16000 || len(a.Samples) != 1600 {
		t.Fatalf("rate=%d samples=%d", a.SampleRate, len(a.Samples))
	}
	if got := a.Samples[100]; got < 1990 || got > 2010 {
		t.Fatalf("down-mixed sample = %d, want ~2000", got)
	}
	if d := a.Duration(); d < 0.099 || d > 0.101 {
		t.Fatalf("duration = %.4f", d)
	}
}

func TestLoadReportsRateOfWAVPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.wav")
	if err := WriteWAV(path, make([]int16, 44100), 44100, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := &Loader{SampleRate: 16000, TmpDir: t.TempDir(), FFmpeg: missingFFmpeg}
	a, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer a.Close()
	if a.WAVPath != path || a.WAVRate != 44100 {
		t.Fatalf("path=%s wav rate=%d, want the original 44100 Hz file", a.WAVPath, a.WAVRate)
	}
	if a.SampleRate != 16000 || len(a.Samples) != 16000 {
		t.Fatalf("rate=%d samples=%d", a.SampleRate, len(a.Samples))
	}
}

func TestLoadConvertsForeignRateWAV(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	path := filepath.Join(t.TempDir(), "talk.wav")
	if err := WriteWAV(path, make([]int16, 44100), 44100, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := &Loader{SampleRate: 16000, TmpDir: t.TempDir()}
	a, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.WAVPath == path || a.WAVRate != 16000 {
		t.Fatalf("expected a 16 kHz conversion, got path=%s rate=%d", a.WAVPath, a.WAVRate)
	}
	if _, rate, err := ReadWAV(a.WAVPath); err != nil || rate != 16000 {
		t.Fatalf("converted file rate=%d err=%v", rate, err)
	}
	converted := a.WAVPath
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(converted); !os.IsNotExist(err) {
		t.Fatalf("converted wav left behind: %v", err)
	}
}

func TestLoadMatchingWAVIsNotConverted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	if err := WriteWAV(path, make([]int16, 1600), 16000, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := &Loader{SampleRate: 16000, TmpDir: t.TempDir(), FFmpeg: missingFFmpeg}
	a, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.WAVPath != path || a.WAVRate != 16000 || len(a.Samples) != 1600 {
		t.Fatalf("audio = %s %d %d", a.WAVPath, a.WAVRate, len(a.Samples))
	}
}

func TestLoadNonWAVNeedsFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{SampleRate: 16000, TmpDir: t.TempDir(), FFmpeg: missingFFmpeg}
	if _, err := l.Load(context.Background(), path); !errors.Is(err, ErrFFmpegNotFound) {
		t.Fatalf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := &Loader{SampleRate: 16000}
	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "none.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadEmptyWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := WriteWAV(path, nil, 16000, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := &Loader{SampleRate: 16000}
	if _, err := l.Load(context.Background(), path); err == nil {
		t.Fatalf("expected an error for a wav without samples")
	}
}

func TestWriteWAVTimestampsRoundTrip(t *testing.T) {
	rec := Recording{
		Start: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 15, 10, 0, 0, time.UTC),
	}
	path := filepath.Join(t.TempDir(), RecordingName(rec))
	if filepath.Base(path) != "audio_20240102_150405_to_20240102_151000.wav" {
		t.Fatalf("name = %s", filepath.Base(path))
	}
	samples := []int16{0, 100, -100, 32767, -32768}
	if err := WriteWAV(path, samples, 16000, &rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadTimestamps(path)
	if err != nil {
		t.Fatalf("timestamps: %v", err)
	}
	if !got.Start.Equal(rec.Start) || !got.End.Equal(rec.End) {
		t.Fatalf("timestamps = %+v, want %+v", got, rec)
	}
	back, rate, err := ReadWAV(path)
	if err != nil || rate != 16000 {
		t.Fatalf("read: rate=%d err=%v", rate, err)
	}
	for i := range samples {
		if back[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, back[i], samples[i])
		}
	}
}

func TestParseCommentRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "only one line", "x\ny"} {
		if _, err := parseComment(in); !errors.Is(err, ErrNoTimestamps) {
			t.Fatalf("parseComment(%q) = %v", in, err)
		}
	}
}

func TestResampleLinearLength(t *testing.T) {
	in := []float32{0, 1, 2, 3}
	out := resampleLinear(in, 16000, 8000)
	if len(out) != 2 {
		t.Fatalf("downsample length got %d", len(out))
	}
	out = resampleLinear(in, 8000, 16000)
	if len(out) != 8 {
		t.Fatalf("upsample length got %d", len(out))
	}
}

func TestResampleLinearEnds(t *testing.T) {
	in := []float32{0, 10}
	out := resampleLinear(in, 1000, 2000)
	if out[0] != 0 || out[len(out)-1] != 10 {
		t.Fatalf("endpoints not preserved: %v", out)
	}
}
