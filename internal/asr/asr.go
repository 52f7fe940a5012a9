package asr

import (
	"errors"

	"turnscribe/internal/config"

	"github.com/sirupsen/logrus"
)

// ErrNotBuilt is returned by constructors whose native backend was left out of
// the build.
var ErrNotBuilt = errors.New("built without whisper support (rebuild with -tags whisper)")

// RecognizedWord is a word as reported by a Recognizer, timed relative to the
// current utterance.
type RecognizedWord struct {
	Text  string
	Start float64
	End   float64
}

// Result is what a Recognizer reports for one fed chunk or a flush.
type Result struct {
	// Accepted is set when an utterance boundary was reached.
	Accepted bool
	Words    []RecognizedWord
}

// Recognizer consumes PCM16LE mono chunks incrementally. A chunk is only valid
// for the duration of the Feed call.
type Recognizer interface {
	Feed(chunk []byte) (Result, error)
	// Flush drains any pending partial utterance.
	Flush() (Result, error)
}

// NewRecognizer returns the whisper-backed recognizer.
func NewRecognizer(cfg *config.Config, logger *logrus.Logger) (Recognizer, error) {
	return newWhisperRecognizer(cfg, logger)
}
