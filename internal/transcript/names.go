package transcript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoName is returned when the operator gives no name for a speaker.
var ErrNoName = errors.New("no speaker name given")

// Namer supplies the display name for a speaker the first time it is seen.
// sample is the text of the first chunk attributed to the speaker.
type Namer interface {
	NameFor(label Label, sample string) (string, error)
}

// NamerFunc adapts a function to Namer.
type NamerFunc func(label Label, sample string) (string, error)

func (f NamerFunc) NameFor(label Label, sample string) (string, error) { return f(label, sample) }

// PromptNamer asks an operator on Out and blocks for one line on In.
type PromptNamer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptNamer returns a PromptNamer reading names from in and writing prompts to out.
func NewPromptNamer(in io.Reader, out io.Writer) *PromptNamer {
	return &PromptNamer{in: bufio.NewReader(in), out: out}
}

// NameFor shows the sample and reads a single line. Only end of input counts as
// "no answer"; an empty line is taken as the name.
func (p *PromptNamer) NameFor(label Label, sample string) (string, error) {
	if _, err := fmt.Fprintf(p.out, "Who said this?\n%s\ninput name:", sample); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w for %s", ErrNoName, label)
		}
		return "", fmt.Errorf("read name for %s: %w", label, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// MapNamer names speakers from a fixed mapping keyed by Label.String(). Labels
// missing from the mapping go to Fallback, or fail when it is nil.
type MapNamer struct {
	Names    map[string]string
	Fallback Namer
}

func (m MapNamer) NameFor(label Label, sample string) (string, error) {
	if name, ok := m.Names[label.String()]; ok {
		return name, nil
	}
	if m.Fallback != nil {
		return m.Fallback.NameFor(label, sample)
	}
	return "", fmt.Errorf("%w for %s: not in names file", ErrNoName, label)
}

// LoadNames reads a YAML mapping of speaker id to display name. The key
// "unassigned" is reserved for words that matched no turn; a diarizer speaker
// literally named "unassigned" shares that entry.
func LoadNames(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse names %s: %w", path, err)
	}
	return names, nil
}

// Resolver caches one name per label for the duration of a run.
type Resolver struct {
	namer Namer
	names map[Label]string
}

func NewResolver(namer Namer) *Resolver {
	return &Resolver{namer: namer, names: map[Label]string{}}
}

// Resolve returns the cached name for the chunk's label, asking the namer only
// on first sight. Names are never overwritten.
func (r *Resolver) Resolve(c Chunk) (string, error) {
	if name, ok := r.names[c.Label]; ok {
		return name, nil
	}
	name, err := r.namer.NameFor(c.Label, c.Text)
	if err != nil {
		return "", err
	}
	r.names[c.Label] = name
	return name, nil
}

// Names returns a copy of the names resolved so far, keyed by Label.String().
func (r *Resolver) Names() map[string]string {
	out := make(map[string]string, len(r.names))
	for l, n := range r.names {
		out[l.String()] = n
	}
	return out
}
