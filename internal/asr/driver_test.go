package asr

import (
	"context"
	"errors"
	"math"
	"testing"

	"turnscribe/internal/logging"
	"turnscribe/internal/transcript"
)

type scriptedRecognizer struct {
	feeds    []func() (Result, error)
	flush    Result
	flushErr error
	chunks   []int
	flushed  bool
}

func (r *scriptedRecognizer) Feed(chunk []byte) (Result, error) {
	i := len(r.chunks)
	r.chunks = append(r.chunks, len(chunk))
	if i < len(r.feeds) && r.feeds[i] != nil {
		return r.feeds[i]()
	}
	return Result{}, nil
}

func (r *scriptedRecognizer) Flush() (Result, error) {
	r.flushed = true
	return r.flush, r.flushErr
}

func accepted(words ...RecognizedWord) func() (Result, error) {
	return func() (Result, error) { return Result{Accepted: true, Words: words}, nil }
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDriverOffsetsWindowsAndFlush(t *testing.T) {
	rec := &scriptedRecognizer{
		feeds: []func() (Result, error){
			accepted(RecognizedWord{"a", 0.0, 0.1}),
			func() (Result, error) { return Result{}, errors.New("bad window") },
			accepted(RecognizedWord{"b", 0.05, 0.2}),
			func() (Result, error) { return Result{Words: []RecognizedWord{{"ignored", 0, 1}}}, nil },
		},
		flush: Result{Words: []RecognizedWord{{"c", 0.01, 0.1}}},
	}
	d := NewDriver(rec, 16000, 4000, logging.NewTestLogger())
	words, err := d.Run(context.Background(), make([]int16, 4000*3+1000))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rec.flushed {
		t.Fatalf("recognizer was not flushed")
	}
	if len(rec.chunks) != 4 || rec.chunks[3] != 2000 {
		t.Fatalf("chunk sizes = %v", rec.chunks)
	}
	want := []transcript.Word{{"a", 0.0, 0.1}, {"b", 0.55, 0.7}, {"c", 1.01, 1.1}}
	if len(words) != len(want) {
		t.Fatalf("words = %v", words)
	}
	for i := range want {
		if words[i].Text != want[i].Text || !near(words[i].Start, want[i].Start) || !near(words[i].End, want[i].End) {
			t.Fatalf("word %d = %+v, want %+v", i, words[i], want[i])
		}
	}
}

func TestDriverFlushErrorKeepsWindowWords(t *testing.T) {
	rec := &scriptedRecognizer{
		feeds: []func() (Result, error){
			accepted(RecognizedWord{"a", 0.1, 0.2}),
			accepted(RecognizedWord{"b", 0.0, 0.1}),
		},
		flush:    Result{Words: []RecognizedWord{{"lost", 0, 0.1}}},
		flushErr: errors.New("model crashed"),
	}
	d := NewDriver(rec, 16000, 4000, logging.NewTestLogger())
	words, err := d.Run(context.Background(), make([]int16, 8000))
	if err != nil {
		t.Fatalf("flush errors must not fail the run: %v", err)
	}
	if len(words) != 2 || words[0].Text != "a" || words[1].Text != "b" || !near(words[1].Start, 0.25) {
		t.Fatalf("words = %+v", words)
	}
}

func TestDriverMonotonicAcrossWindows(t *testing.T) {
	var feeds []func() (Result, error)
	for i := 0; i < 8; i++ {
		feeds = append(feeds, accepted(RecognizedWord{"w", 0.2, 0.24}, RecognizedWord{"x", 0.0, 0.1}))
	}
	d := NewDriver(&scriptedRecognizer{feeds: feeds}, 16000, 4000, logging.NewTestLogger())
	words, err := d.Run(context.Background(), make([]int16, 4000*8))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := 1; i < len(words); i++ {
		if words[i].Start < words[i-1].Start {
			t.Fatalf("word %d start %.3f before previous %.3f", i, words[i].Start, words[i-1].Start)
		}
	}
}

func TestDriverHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDriver(&scriptedRecognizer{}, 16000, 4000, logging.NewTestLogger())
	if _, err := d.Run(ctx, make([]int16, 8000)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPCMRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768}
	out := decodePCM16(encodePCM16(make([]byte, 10), in))
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("sample %d: %d != %d", i, out[i], in[i])
		}
	}
}
