// Package diarize obtains "who spoke when" for an audio file and reduces it to
// start-ordered speaker turns.
package diarize

import (
	"cmp"
	"context"
	"iter"
	"slices"

	"turnscribe/internal/transcript"
)

// Track is one raw diarizer interval. Label is the diarizer's own track name
// and is informational only.
type Track struct {
	Start   float64              `json:"start"`
	End     float64              `json:"end"`
	Label   string               `json:"track,omitempty"`
	Speaker transcript.SpeakerID `json:"speaker"`
}

// Diarizer produces speaker tracks for a WAV file.
type Diarizer interface {
	Diarize(ctx context.Context, wavPath string, sampleRate int) (iter.Seq[Track], error)
}

// Extract converts tracks into turns ordered by start time. Ties keep input
// order; nothing is dropped or rewritten.
func Extract(tracks iter.Seq[Track]) []transcript.Turn {
	var turns []transcript.Turn
	for tr := range tracks {
		turns = append(turns, transcript.Turn{Speaker: tr.Speaker, Start: tr.Start, End: tr.End})
	}
	slices.SortStableFunc(turns, func(a, b transcript.Turn) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return turns
}

// Speakers returns the distinct speakers of turns in first-seen order.
func Speakers(turns []transcript.Turn) []transcript.SpeakerID {
	seen := map[transcript.SpeakerID]bool{}
	var out []transcript.SpeakerID
	for _, t := range turns {
		if !seen[t.Speaker] {
			seen[t.Speaker] = true
			out = append(out, t.Speaker)
		}
	}
	return out
}
