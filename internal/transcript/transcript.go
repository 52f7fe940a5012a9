// Package transcript merges recognized words with diarization turns and renders
// the per-speaker transcript.
package transcript

// SpeakerID is the opaque per-run speaker token produced by the diarizer. It is
// only meaningful within one run.
type SpeakerID string

// Word is a recognized word on the absolute file timeline, in seconds.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Turn is one diarization interval attributed to a speaker.
type Turn struct {
	Speaker SpeakerID
	Start   float64
	End     float64
}

// Label attributes a word or chunk to a speaker. The zero Label is the
// unassigned pseudo-speaker.
type Label struct {
	Speaker  SpeakerID
	Assigned bool
}

// Unassigned is the label of words that matched no turn.
var Unassigned = Label{}

// Speaking returns the label for an assigned speaker.
func Speaking(id SpeakerID) Label {
	return Label{Speaker: id, Assigned: true}
}

func (l Label) String() string {
	if !l.Assigned {
		return "unassigned"
	}
	return string(l.Speaker)
}

// LabeledWord is a Word with its speaker attribution.
type LabeledWord struct {
	Word
	Label Label
}

// Chunk is a maximal run of consecutive same-speaker words.
type Chunk struct {
	Label Label
	Text  string
}
