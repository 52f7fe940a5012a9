package asr

import (
	"fmt"
	"io"
	"strings"
)

// VoiceDetector classifies a single VAD frame as speech or not.
type VoiceDetector interface {
	IsVoice(frame []int16) (bool, error)
}

// Transcriber turns one utterance into words timed from its first sample.
type Transcriber interface {
	Transcribe(samples []float32) ([]RecognizedWord, error)
}

// SegmenterConfig controls utterance boundary detection.
type SegmenterConfig struct {
	SampleRate    int
	WindowSamples int
	FrameMS       int
	SilenceMS     int
	MaxSegmentMS  int
}

// Segmenter implements Recognizer on top of a VoiceDetector and a Transcriber.
// Voiced audio is buffered until enough trailing silence (or the maximum
// segment length) marks an utterance boundary; the utterance is then
// transcribed. Reported word times are relative to the nominal start of the
// window being fed, which is the offset the Driver adds back.
type Segmenter struct {
	cfg          SegmenterConfig
	vad          VoiceDetector
	tr           Transcriber
	frameSamples int

	pending   []int16 // partial frame carried to the next chunk
	pos       int     // absolute sample index of pending[0]
	windows   int
	utterance []int16
	uttStart  int
	inSpeech  bool
	silence   int
}

func NewSegmenter(cfg SegmenterConfig, vad VoiceDetector, tr Transcriber) (*Segmenter, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	if cfg.WindowSamples <= 0 {
		cfg.WindowSamples = DefaultWindowSamples
	}
	frame := cfg.SampleRate * cfg.FrameMS / 1000
	if frame <= 0 {
		return nil, fmt.Errorf("invalid frame_ms %d", cfg.FrameMS)
	}
	return &Segmenter{cfg: cfg, vad: vad, tr: tr, frameSamples: frame}, nil
}

func (s *Segmenter) Feed(chunk []byte) (Result, error) {
	ref := s.windows * s.cfg.WindowSamples
	s.windows++

	data := append(s.pending, decodePCM16(chunk)...)
	pos := s.pos
	var res Result
	for len(data) >= s.frameSamples {
		boundary, err := s.frame(data[:s.frameSamples], pos)
		if err != nil {
			s.pending, s.pos = nil, pos+len(data)
			return Result{}, err
		}
		data = data[s.frameSamples:]
		pos += s.frameSamples
		if !boundary {
			continue
		}
		words, err := s.finish(ref)
		if err != nil {
			s.pending, s.pos = nil, pos+len(data)
			return Result{}, err
		}
		res.Accepted = true
		res.Words = append(res.Words, words...)
	}
	s.pending = append(s.pending[:0:0], data...)
	s.pos = pos
	return res, nil
}

func (s *Segmenter) Flush() (Result, error) {
	if s.inSpeech {
		s.utterance = append(s.utterance, s.pending...)
	}
	s.pos += len(s.pending)
	s.pending = nil
	if !s.inSpeech || len(s.utterance) == 0 {
		return Result{}, nil
	}
	words, err := s.finish(s.windows * s.cfg.WindowSamples)
	if err != nil {
		return Result{}, err
	}
	return Result{Accepted: true, Words: words}, nil
}

// Close releases the transcriber when it holds native resources.
func (s *Segmenter) Close() error {
	if c, ok := s.tr.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// frame classifies one frame at absolute position pos and reports whether it
// closes the current utterance.
func (s *Segmenter) frame(f []int16, pos int) (bool, error) {
	voice, err := s.vad.IsVoice(f)
	if err != nil {
		return false, fmt.Errorf("vad: %w", err)
	}
	switch {
	case voice:
		if !s.inSpeech {
			s.inSpeech = true
			s.uttStart = pos
			s.utterance = s.utterance[:0]
		}
		s.utterance = append(s.utterance, f...)
		s.silence = 0
	case s.inSpeech:
		s.utterance = append(s.utterance, f...)
		s.silence += len(f)
	default:
		return false, nil
	}
	silenceLimit := s.cfg.SilenceMS * s.cfg.SampleRate / 1000
	maxLen := s.cfg.MaxSegmentMS * s.cfg.SampleRate / 1000
	return s.silence >= silenceLimit || (maxLen > 0 && len(s.utterance) >= maxLen), nil
}

// finish transcribes the buffered utterance and rebases word times onto the
// window starting at sample ref.
func (s *Segmenter) finish(ref int) ([]RecognizedWord, error) {
	pcm := s.utterance[:len(s.utterance)-min(s.silence, len(s.utterance))]
	shift := float64(s.uttStart-ref) / float64(s.cfg.SampleRate)
	s.inSpeech = false
	s.silence = 0
	if len(pcm) == 0 {
		s.utterance = s.utterance[:0]
		return nil, nil
	}
	words, err := s.tr.Transcribe(pcmToFloat32(pcm))
	s.utterance = s.utterance[:0]
	if err != nil {
		return nil, fmt.Errorf("transcribe utterance: %w", err)
	}
	out := words[:0]
	for _, w := range words {
		if isNonSpeech(w.Text) {
			continue
		}
		w.Start += shift
		w.End += shift
		out = append(out, w)
	}
	return out, nil
}

func pcmToFloat32(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, s := range pcm {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// isNonSpeech reports annotations such as [BLANK_AUDIO], (music) or ♪ ♪ that
// recognizers emit in place of words.
func isNonSpeech(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	for _, p := range [][2]string{{"[", "]"}, {"(", ")"}, {"*", "*"}, {"♪", "♪"}} {
		if strings.HasPrefix(t, p[0]) && strings.HasSuffix(t, p[1]) {
			return true
		}
	}
	return false
}
