package control

import (
	"io"

	"turnscribe/internal/config"
	"turnscribe/internal/diarize"
	"turnscribe/internal/transcript"

	"github.com/sirupsen/logrus"
)

// newDiarizer prefers a ready-made turns file over running the diarizer.
func newDiarizer(cfg *config.Config, turnsPath string, numSpeakers int, logger *logrus.Logger) (diarize.Diarizer, error) {
	if turnsPath != "" {
		return diarize.FileDiarizer{Path: turnsPath}, nil
	}
	d, err := diarize.NewCommandDiarizer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if numSpeakers > 0 {
		d.NumSpeakers = numSpeakers
	}
	return d, nil
}

// newNamer names speakers from a names file when one is configured, asking on
// the terminal for anyone it does not list.
func newNamer(cfg *config.Config, namesPath string, in io.Reader, out io.Writer) (transcript.Namer, error) {
	prompt := transcript.NewPromptNamer(in, out)
	if namesPath == "" {
		namesPath = cfg.Naming.NamesFile
	}
	if namesPath == "" {
		return prompt, nil
	}
	names, err := transcript.LoadNames(namesPath)
	if err != nil {
		return nil, err
	}
	return transcript.MapNamer{Names: names, Fallback: prompt}, nil
}
