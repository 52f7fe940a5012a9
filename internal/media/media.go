// Package media turns audio files into 16-bit mono PCM at the decoder rate.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoAudio is returned for files that decode to zero samples.
	ErrNoAudio = errors.New("no audio samples")
	// ErrFFmpegNotFound is returned when conversion is needed but ffmpeg is missing.
	ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH")
)

// Audio is a decoded recording.
type Audio struct {
	// Path is the file the caller asked for.
	Path string
	// WAVPath is a WAV rendition of Path; it equals Path unless conversion ran.
	WAVPath string
	// WAVRate is the sample rate of the file at WAVPath.
	WAVRate int
	// SampleRate is the rate of Samples.
	SampleRate int
	Samples    []int16
	converted  bool
}

// Duration in seconds.
func (a *Audio) Duration() float64 {
	if a.SampleRate == 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// Close removes the converted WAV, if any.
func (a *Audio) Close() error {
	if !a.converted {
		return nil
	}
	err := os.Remove(a.WAVPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Loader decodes audio files, converting through ffmpeg when needed.
type Loader struct {
	SampleRate int
	TmpDir     string
	FFmpeg     string // binary name or path; defaults to "ffmpeg"
	Logger     *logrus.Logger
}

// Load decodes path into mono PCM16 at l.SampleRate. Mono 16-bit WAV files at
// that rate are read directly; anything else (MP3 included) is converted with
// ffmpeg first. Without ffmpeg, other 16-bit WAV files are still read, down-mixed
// and resampled in memory, and WAVRate reports the file's own rate.
func (l *Loader) Load(ctx context.Context, path string) (*Audio, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	a := &Audio{Path: path, WAVPath: path}
	format, pcm16 := probeWAV(path)
	if !pcm16 || format.rate != l.SampleRate || format.channels != 1 {
		out, err := l.convert(ctx, path)
		switch {
		case err == nil:
			a.WAVPath = out
			a.converted = true
		case pcm16 && errors.Is(err, ErrFFmpegNotFound):
			if l.Logger != nil {
				l.Logger.Warnf("%s is %d Hz with %d channels and ffmpeg is missing; resampling in memory", path, format.rate, format.channels)
			}
		default:
			return nil, err
		}
	}
	samples, rate, err := ReadWAV(a.WAVPath)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.WAVRate = rate
	if rate != l.SampleRate {
		samples = floatToPCM16(resampleLinear(pcm16ToFloat(samples), rate, l.SampleRate))
		if l.Logger != nil {
			l.Logger.Debugf("resampled %s from %d Hz to %d Hz", path, rate, l.SampleRate)
		}
	}
	if len(samples) == 0 {
		_ = a.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoAudio)
	}
	a.Samples = samples
	a.SampleRate = l.SampleRate
	return a, nil
}

type wavFormat struct {
	rate     int
	channels int
}

// probeWAV reports the format of path and whether it is a 16-bit PCM WAV.
func probeWAV(path string) (wavFormat, bool) {
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		return wavFormat{}, false
	}
	f, err := os.Open(path)
	if err != nil {
		return wavFormat{}, false
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return wavFormat{}, false
	}
	format := wavFormat{rate: int(d.SampleRate), channels: int(d.NumChans)}
	return format, d.BitDepth == 16 && d.WavAudioFormat == 1
}

// convert runs ffmpeg to produce a 16 kHz mono PCM16 WAV in TmpDir.
func (l *Loader) convert(ctx context.Context, in string) (string, error) {
	bin := l.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", in, ErrFFmpegNotFound)
	}
	dir := l.TmpDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(dir, fmt.Sprintf("normalized_%s.wav", uuid.New().String()))
	cmd := exec.CommandContext(ctx, resolved,
		"-hide_banner", "-loglevel", "error",
		"-i", in,
		"-ac", "1",
		"-ar", strconv.Itoa(l.SampleRate),
		"-c:a", "pcm_s16le",
		"-y",
		out,
	)
	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, strings.TrimSpace(string(output)))
	}
	if l.Logger != nil {
		l.Logger.Infof("converted %s in %s", in, time.Since(start).Round(time.Millisecond))
	}
	return out, nil
}
