//go:build whisper

package asr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"turnscribe/internal/config"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	vad "github.com/maxhawkins/go-webrtcvad"
	"github.com/sirupsen/logrus"
)

// whisperTranscriber runs whisper.cpp with one segment per word so every word
// carries its own timestamps.
type whisperTranscriber struct {
	model    whisper.Model
	language string
	threads  int
	logger   *logrus.Logger
}

func (w *whisperTranscriber) Transcribe(samples []float32) ([]RecognizedWord, error) {
	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper context: %w", err)
	}
	wctx.SetThreads(uint(w.threads))
	wctx.SetTokenTimestamps(true)
	wctx.SetSplitOnWord(true)
	wctx.SetMaxSegmentLength(1)
	if lang := strings.TrimSpace(w.language); lang != "" {
		if err := wctx.SetLanguage(lang); err != nil {
			w.logger.Warnf("set language %q: %v", lang, err)
		}
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, err
	}
	var words []RecognizedWord
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		words = append(words, RecognizedWord{
			Text:  text,
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
		})
	}
	return words, nil
}

func (w *whisperTranscriber) Close() error {
	return w.model.Close()
}

// webrtcDetector adapts the webrtc VAD to VoiceDetector.
type webrtcDetector struct {
	v    *vad.VAD
	rate int
	buf  []byte
}

func (d *webrtcDetector) IsVoice(frame []int16) (bool, error) {
	d.buf = d.buf[:0]
	for _, s := range frame {
		d.buf = binary.LittleEndian.AppendUint16(d.buf, uint16(s))
	}
	return d.v.Process(d.rate, d.buf)
}

func newWhisperRecognizer(cfg *config.Config, logger *logrus.Logger) (Recognizer, error) {
	if cfg.VAD.FrameMS != 10 && cfg.VAD.FrameMS != 20 && cfg.VAD.FrameMS != 30 {
		return nil, fmt.Errorf("vad.frame_ms must be 10, 20, or 30 (got %d)", cfg.VAD.FrameMS)
	}
	switch cfg.Audio.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("sample_rate must be 8k/16k/32k/48k for webrtc VAD (got %d)", cfg.Audio.SampleRate)
	}
	v, err := vad.New()
	if err != nil {
		return nil, fmt.Errorf("vad init: %w", err)
	}
	if err := v.SetMode(cfg.VAD.Aggressiveness); err != nil {
		return nil, fmt.Errorf("vad mode: %w", err)
	}
	frameSamples := cfg.Audio.SampleRate * cfg.VAD.FrameMS / 1000
	if !v.ValidRateAndFrameLength(cfg.Audio.SampleRate, frameSamples*2) {
		return nil, fmt.Errorf("invalid frame_ms %d for sample_rate %d", cfg.VAD.FrameMS, cfg.Audio.SampleRate)
	}
	model, err := whisper.New(cfg.ASR.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", cfg.ASR.ModelPath, err)
	}
	threads := cfg.ASR.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	tr := &whisperTranscriber{model: model, language: cfg.ASR.Language, threads: threads, logger: logger}
	seg, err := NewSegmenter(SegmenterConfig{
		SampleRate:    cfg.Audio.SampleRate,
		WindowSamples: cfg.Audio.WindowSamples,
		FrameMS:       cfg.VAD.FrameMS,
		SilenceMS:     cfg.VAD.SilenceMS,
		MaxSegmentMS:  cfg.VAD.MaxSegmentMS,
	}, &webrtcDetector{v: v, rate: cfg.Audio.SampleRate}, tr)
	if err != nil {
		_ = model.Close()
		return nil, err
	}
	logger.Infof("whisper model %s loaded (%d threads, language %q)", cfg.ASR.ModelPath, threads, cfg.ASR.Language)
	return seg, nil
}
