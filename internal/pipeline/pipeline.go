// Package pipeline runs one audio file through decoding, diarization,
// alignment and naming, and writes the speaker-labeled transcript.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"turnscribe/internal/asr"
	"turnscribe/internal/diarize"
	"turnscribe/internal/history"
	"turnscribe/internal/hook"
	"turnscribe/internal/media"
	"turnscribe/internal/transcript"

	"github.com/sirupsen/logrus"
)

// AudioLoader decodes an input file.
type AudioLoader interface {
	Load(ctx context.Context, path string) (*media.Audio, error)
}

// Indexer records finished runs.
type Indexer interface {
	Record(ctx context.Context, r history.Run) (history.Run, error)
}

// Hooker is notified after a transcript is written.
type Hooker interface {
	Run(ctx context.Context, job hook.Job) error
}

// Pipeline wires the stages. Index and Hook are optional.
type Pipeline struct {
	Loader        AudioLoader
	Recognizer    asr.Recognizer
	Diarizer      diarize.Diarizer
	Namer         transcript.Namer
	Index         Indexer
	Hook          Hooker
	WindowSamples int
	Suffix        string
	Logger        *logrus.Logger
}

// Result summarizes a run.
type Result struct {
	Audio    string
	Output   string
	Text     string
	Duration float64
	Words    []transcript.Word
	Turns    []transcript.Turn
	Labeled  []transcript.LabeledWord
	Chunks   []transcript.Chunk
	Names    map[string]string
}

// Run processes audioPath. Decode problems inside a window are logged and
// skipped; failures to load, diarize, name or write are returned and leave no
// transcript behind.
func (p *Pipeline) Run(ctx context.Context, audioPath string) (*Result, error) {
	start := time.Now()
	audio, err := p.Loader.Load(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("load audio: %w", err)
	}
	defer func() {
		if err := audio.Close(); err != nil {
			p.Logger.Warnf("remove converted audio: %v", err)
		}
	}()
	p.Logger.Infof("loaded %s: %.1fs at %d Hz", audioPath, audio.Duration(), audio.SampleRate)

	words, err := asr.NewDriver(p.Recognizer, audio.SampleRate, p.WindowSamples, p.Logger).Run(ctx, audio.Samples)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	p.Logger.Infof("recognized %d words", len(words))

	tracks, err := p.Diarizer.Diarize(ctx, audio.WAVPath, audio.WAVRate)
	if err != nil {
		return nil, fmt.Errorf("diarize: %w", err)
	}
	turns := diarize.Extract(tracks)
	p.Logger.Infof("diarized %d turns, %d speakers", len(turns), len(diarize.Speakers(turns)))

	labeled := transcript.Align(words, turns)
	chunks := transcript.Coalesce(labeled)
	resolver := transcript.NewResolver(p.Namer)
	text, err := transcript.Compile(chunks, resolver)
	if err != nil {
		return nil, fmt.Errorf("name speakers: %w", err)
	}

	out := transcript.OutputPath(audioPath, p.Suffix)
	if err := transcript.WriteFile(out, text); err != nil {
		return nil, err
	}
	res := &Result{
		Audio:    audioPath,
		Output:   out,
		Text:     text,
		Duration: audio.Duration(),
		Words:    words,
		Turns:    turns,
		Labeled:  labeled,
		Chunks:   chunks,
		Names:    resolver.Names(),
	}
	p.Logger.Infof("wrote %s (%d chunks) in %s", out, len(chunks), time.Since(start).Round(time.Millisecond))

	p.index(ctx, res)
	p.notify(ctx, res)
	return res, nil
}

func (p *Pipeline) index(ctx context.Context, res *Result) {
	if p.Index == nil {
		return
	}
	run, err := p.Index.Record(ctx, history.Run{
		Audio:       res.Audio,
		Transcript:  res.Output,
		DurationSec: res.Duration,
		Words:       len(res.Words),
		Turns:       len(res.Turns),
		Chunks:      len(res.Chunks),
		Speakers:    len(res.Names),
	})
	if err != nil {
		p.Logger.Warnf("history: %v", err)
		return
	}
	p.Logger.Debugf("history: recorded run %s", run.ID)
}

func (p *Pipeline) notify(ctx context.Context, res *Result) {
	if p.Hook == nil {
		return
	}
	if err := p.Hook.Run(ctx, hook.Job{Audio: res.Audio, Transcript: res.Output, Text: res.Text, Timestamp: time.Now()}); err != nil {
		p.Logger.Warnf("hook: %v", err)
	}
}
