package media

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNoTimestamps is returned by ReadTimestamps for files without recording times.
var ErrNoTimestamps = errors.New("no recording timestamps in file")

// ReadWAV decodes a 16-bit WAV file and down-mixes it to mono by averaging
// channels. It returns the samples and the file's sample rate.
func ReadWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid wav file", path)
	}
	if d.BitDepth != 16 {
		return nil, 0, fmt.Errorf("%s: unsupported bit depth %d", path, d.BitDepth)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	channels := int(d.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	return downmix(buf.Data, channels), int(d.SampleRate), nil
}

func downmix(data []int, channels int) []int16 {
	if channels <= 1 {
		out := make([]int16, len(data))
		for i, v := range data {
			out[i] = int16(v)
		}
		return out
	}
	frames := len(data) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// Recording describes a captured take stored in a WAV comment chunk.
type Recording struct {
	Start time.Time
	End   time.Time
}

func (r Recording) comment() string {
	return r.Start.UTC().Format(time.RFC3339) + "\n" + r.End.UTC().Format(time.RFC3339)
}

// WriteWAV encodes mono PCM16 samples. A non-nil rec is stored in the INFO
// comment so ReadTimestamps can recover it.
func WriteWAV(path string, samples []int16, sampleRate int, rec *Recording) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if rec != nil {
		enc.Metadata = &wav.Metadata{Comments: rec.comment(), Software: "turnscribe"}
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return f.Close()
}

// ReadTimestamps returns the recording start and end embedded by WriteWAV.
func ReadTimestamps(path string) (Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return Recording{}, err
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Recording{}, fmt.Errorf("%s: not a valid wav file", path)
	}
	d.ReadMetadata()
	if err := d.Err(); err != nil {
		return Recording{}, fmt.Errorf("read metadata %s: %w", path, err)
	}
	if d.Metadata == nil {
		return Recording{}, ErrNoTimestamps
	}
	return parseComment(d.Metadata.Comments)
}

func parseComment(s string) (Recording, error) {
	lines := strings.Split(strings.TrimRight(strings.TrimSpace(s), "\x00"), "\n")
	if len(lines) < 2 {
		return Recording{}, ErrNoTimestamps
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(lines[0]))
	if err != nil {
		return Recording{}, fmt.Errorf("%w: start: %v", ErrNoTimestamps, err)
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(lines[1]))
	if err != nil {
		return Recording{}, fmt.Errorf("%w: end: %v", ErrNoTimestamps, err)
	}
	return Recording{Start: start, End: end}, nil
}

// RecordingName is the file name for a take, e.g. audio_20240102_150405_to_20240102_151000.wav.
func RecordingName(rec Recording) string {
	const layout = "20060102_150405"
	return fmt.Sprintf("audio_%s_to_%s.wav", rec.Start.UTC().Format(layout), rec.End.UTC().Format(layout))
}

func pcm16ToFloat(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, s := range in {
		out[i] = float32(s) / 32768.0
	}
	return out
}

func floatToPCM16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		out[i] = int16(math.Max(-32768, math.Min(32767, math.Round(float64(v)*32768))))
	}
	return out
}

func resampleLinear(in []float32, srcSR, dstSR int) []float32 {
	if srcSR == dstSR || len(in) == 0 {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}
	ratio := float64(dstSR) / float64(srcSR)
	outLen := int(float64(len(in))*ratio + 0.9999)
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = in[idx]*(1-frac) + in[idx+1]*frac
	}
	return out
}
