package asr

import (
	"context"
	"errors"
	"testing"

	"turnscribe/internal/logging"
)

// markVAD treats any frame starting with a non-zero sample as speech.
type markVAD struct{}

func (markVAD) IsVoice(frame []int16) (bool, error) { return frame[0] != 0, nil }

// faultyVAD fails on frames starting with -1 and otherwise behaves like markVAD.
type faultyVAD struct{}

func (faultyVAD) IsVoice(frame []int16) (bool, error) {
	if frame[0] == -1 {
		return false, errors.New("vad frame rejected")
	}
	return frame[0] != 0, nil
}

type countingTranscriber struct {
	lengths []int
}

func (c *countingTranscriber) Transcribe(samples []float32) ([]RecognizedWord, error) {
	c.lengths = append(c.lengths, len(samples))
	return []RecognizedWord{
		{Text: "[BLANK_AUDIO]", Start: 0, End: 0},
		{Text: "hi", Start: 0, End: float64(len(samples)) / 16000},
	}, nil
}

func testSegmenter(t *testing.T, tr Transcriber) *Segmenter {
	t.Helper()
	s, err := NewSegmenter(SegmenterConfig{
		SampleRate:    16000,
		WindowSamples: 4000,
		FrameMS:       10,
		SilenceMS:     100,
		MaxSegmentMS:  10000,
	}, markVAD{}, tr)
	if err != nil {
		t.Fatalf("segmenter: %v", err)
	}
	return s
}

func voiced(samples []int16, from, to int) {
	for i := from; i < to; i++ {
		samples[i] = 1000
	}
}

func TestSegmenterBoundaryAcrossWindows(t *testing.T) {
	tr := &countingTranscriber{}
	seg := testSegmenter(t, tr)
	samples := make([]int16, 8000)
	voiced(samples, 1600, 3200)

	words, err := NewDriver(seg, 16000, 4000, logging.NewTestLogger()).Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(tr.lengths) != 1 || tr.lengths[0] != 1600 {
		t.Fatalf("transcribed lengths = %v, want one utterance of 1600 samples", tr.lengths)
	}
	if len(words) != 1 || words[0].Text != "hi" {
		t.Fatalf("words = %+v", words)
	}
	if !near(words[0].Start, 0.1) || !near(words[0].End, 0.2) {
		t.Fatalf("word timed %.4f-%.4f, want 0.1-0.2", words[0].Start, words[0].End)
	}
}

func TestSegmenterFlushesTrailingSpeech(t *testing.T) {
	tr := &countingTranscriber{}
	seg := testSegmenter(t, tr)
	samples := make([]int16, 4000)
	voiced(samples, 1920, 4000)

	words, err := NewDriver(seg, 16000, 4000, logging.NewTestLogger()).Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(words) != 1 || !near(words[0].Start, 0.12) {
		t.Fatalf("flushed words = %+v, want one word at 0.12s", words)
	}
}

func TestSegmenterFeedErrorKeepsTimeline(t *testing.T) {
	tr := &countingTranscriber{}
	seg, err := NewSegmenter(SegmenterConfig{
		SampleRate:    16000,
		WindowSamples: 4000,
		FrameMS:       10,
		SilenceMS:     100,
		MaxSegmentMS:  10000,
	}, faultyVAD{}, tr)
	if err != nil {
		t.Fatalf("segmenter: %v", err)
	}
	samples := make([]int16, 8000)
	samples[800] = -1
	voiced(samples, 4160, 5760)

	words, err := NewDriver(seg, 16000, 4000, logging.NewTestLogger()).Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if seg.pos != 8000 || len(seg.pending) != 0 {
		t.Fatalf("pos=%d pending=%d after failed window", seg.pos, len(seg.pending))
	}
	if len(tr.lengths) != 1 || tr.lengths[0] != 1600 {
		t.Fatalf("transcribed lengths = %v", tr.lengths)
	}
	if len(words) != 1 || !near(words[0].Start, 0.26) || !near(words[0].End, 0.36) {
		t.Fatalf("words = %+v, want one word at 0.26-0.36s", words)
	}
}

func TestSegmenterSilenceOnly(t *testing.T) {
	tr := &countingTranscriber{}
	seg := testSegmenter(t, tr)
	res, err := seg.Feed(make([]byte, 8000))
	if err != nil || res.Accepted {
		t.Fatalf("silent window: res=%+v err=%v", res, err)
	}
	res, err = seg.Flush()
	if err != nil || res.Accepted || len(tr.lengths) != 0 {
		t.Fatalf("silent flush: res=%+v err=%v calls=%v", res, err, tr.lengths)
	}
}

func TestSegmenterCarriesPartialFrames(t *testing.T) {
	tr := &countingTranscriber{}
	seg := testSegmenter(t, tr)
	// 100 samples is less than one 160-sample frame.
	if _, err := seg.Feed(make([]byte, 200)); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(seg.pending) != 100 || seg.pos != 0 {
		t.Fatalf("pending=%d pos=%d", len(seg.pending), seg.pos)
	}
	if _, err := seg.Feed(make([]byte, 200)); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(seg.pending) != 40 || seg.pos != 160 {
		t.Fatalf("pending=%d pos=%d", len(seg.pending), seg.pos)
	}
}

func TestIsNonSpeech(t *testing.T) {
	cases := map[string]bool{
		"[BLANK_AUDIO]": true,
		" (music) ":     true,
		"*thump*":       true,
		"♪ ♪":           true,
		"":              true,
		"hello":         false,
		"[partial":      false,
	}
	for in, want := range cases {
		if got := isNonSpeech(in); got != want {
			t.Fatalf("isNonSpeech(%q)=%v want %v", in, got, want)
		}
	}
}
