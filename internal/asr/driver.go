package asr

import (
	"context"
	"encoding/binary"
	"fmt"

	"turnscribe/internal/transcript"

	"github.com/sirupsen/logrus"
)

// DefaultWindowSamples is the number of samples fed to the recognizer per step.
const DefaultWindowSamples = 4000

// Driver feeds fixed-size windows into a Recognizer and collects words on one
// absolute timeline.
type Driver struct {
	rec           Recognizer
	sampleRate    int
	windowSamples int
	logger        *logrus.Logger
}

func NewDriver(rec Recognizer, sampleRate, windowSamples int, logger *logrus.Logger) *Driver {
	if windowSamples <= 0 {
		windowSamples = DefaultWindowSamples
	}
	return &Driver{rec: rec, sampleRate: sampleRate, windowSamples: windowSamples, logger: logger}
}

// WindowDuration is the nominal duration of one window in seconds.
func (d *Driver) WindowDuration() float64 {
	return float64(d.windowSamples) / float64(d.sampleRate)
}

// Run decodes samples window by window. Window i's words are shifted by i
// window durations; flushed words by the duration of every window. A window the
// recognizer fails on contributes nothing but still advances the offset.
func (d *Driver) Run(ctx context.Context, samples []int16) ([]transcript.Word, error) {
	if d.sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", d.sampleRate)
	}
	var (
		words  []transcript.Word
		offset float64
		step   = d.WindowDuration()
		buf    = make([]byte, d.windowSamples*2)
	)
	for i := 0; i < len(samples); i += d.windowSamples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(i+d.windowSamples, len(samples))
		chunk := encodePCM16(buf, samples[i:end])
		res, err := d.rec.Feed(chunk)
		if err != nil {
			d.logger.Warnf("decode window %d at %.2fs: %v", i/d.windowSamples, offset, err)
		} else if res.Accepted {
			words = d.absorb(words, res, offset)
		}
		offset += step
	}
	res, err := d.rec.Flush()
	if err != nil {
		d.logger.Warnf("flush recognizer: %v", err)
		return words, nil
	}
	return d.absorb(words, res, offset), nil
}

// absorb appends res's words shifted by offset. A start that would fall before
// the previous word's start is clamped so the sequence stays ordered.
func (d *Driver) absorb(words []transcript.Word, res Result, offset float64) []transcript.Word {
	for _, rw := range res.Words {
		w := transcript.Word{Text: rw.Text, Start: rw.Start + offset, End: rw.End + offset}
		if n := len(words); n > 0 && w.Start < words[n-1].Start {
			d.logger.Debugf("clamp %q start %.3f to %.3f", w.Text, w.Start, words[n-1].Start)
			w.Start = words[n-1].Start
			w.End = max(w.End, w.Start)
		}
		words = append(words, w)
	}
	return words
}

func encodePCM16(buf []byte, samples []int16) []byte {
	buf = buf[:len(samples)*2]
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func decodePCM16(chunk []byte) []int16 {
	out := make([]int16, len(chunk)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
	}
	return out
}
